package config

import (
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/calendar"
	"main/internal/source"
	"main/pkg/exception"
)

// Resolved is the configuration after alias resolution: every option
// pinned to a concrete value, timestamps parsed, paths rooted at the
// config file's directory.
type Resolved struct {
	Start int64
	End   int64

	Exchanges []ResolvedExchange
	Pairs     []ResolvedPair
}

// ResolvedExchange pairs an exchange name with its session file spec.
type ResolvedExchange struct {
	Name     string
	Sessions calendar.SessionFileSpec
}

// ResolvedPair carries everything needed to build one pair's reader.
type ResolvedPair struct {
	Exchange   string
	Kind       string
	Quoted     string
	Base       string
	PriceStep  decimal.Decimal
	ErrLogFile string
	WindowFile WindowFileSpec
	Trd        source.FileSpec
	Prl        source.FileSpec
}

// WindowFileSpec references the tabular file holding a pair's activity
// window.
type WindowFileSpec struct {
	Path           string
	StartColumn    string
	StopColumn     string
	DatetimeLayout string
	Sep            rune
}

// Resolve applies the defaults-then-entry option resolution and parses
// every value. Relative file paths are resolved against dir, the
// directory holding the config file.
func (c *FileConfig) Resolve(dir string) (*Resolved, error) {
	d := c.Defaults

	simLayout, err := pick("simulation.datetime_format", c.Simulation.DatetimeFormat, d.DatetimeFormat)
	if err != nil {
		return nil, err
	}
	start, err := parseStamp(simLayout, c.Simulation.Start, "simulation.start")
	if err != nil {
		return nil, err
	}
	end, err := parseStamp(simLayout, c.Simulation.End, "simulation.end")
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, errors.Wrapf(exception.ErrConfigBadOption, "simulation end %s is not after start %s", c.Simulation.End, c.Simulation.Start)
	}

	out := &Resolved{Start: start, End: end}

	for _, ex := range c.Exchanges {
		spec, err := resolveSessions(ex, d, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "exchange %s", ex.Name)
		}
		out.Exchanges = append(out.Exchanges, ResolvedExchange{Name: ex.Name, Sessions: spec})
	}

	for _, p := range c.TradedPairs {
		rp, err := resolvePair(p, d, dir)
		if err != nil {
			return nil, errors.Wrapf(err, "pair %s/%s on %s", p.Base, p.Quoted, p.Exchange)
		}
		out.Pairs = append(out.Pairs, rp)
	}

	return out, nil
}

func resolveSessions(ex ExchangeConfig, d DefaultsConfig, dir string) (calendar.SessionFileSpec, error) {
	if ex.Sessions.Path == "" {
		return calendar.SessionFileSpec{}, errors.Wrap(exception.ErrConfigMissingOption, "sessions.path")
	}
	open, err := pick("open_colname", ex.Sessions.OpenColname, d.OpenColname)
	if err != nil {
		return calendar.SessionFileSpec{}, err
	}
	close, err := pick("close_colname", ex.Sessions.CloseColname, d.CloseColname)
	if err != nil {
		return calendar.SessionFileSpec{}, err
	}
	layout, err := pick("datetime_format", ex.Sessions.DatetimeFormat, d.DatetimeFormat)
	if err != nil {
		return calendar.SessionFileSpec{}, err
	}
	sep, err := pickSep(ex.Sessions.CSVSep, d.CSVSep)
	if err != nil {
		return calendar.SessionFileSpec{}, err
	}
	return calendar.SessionFileSpec{
		Path:           rootedPath(dir, ex.Sessions.Path),
		OpenColumn:     open,
		CloseColumn:    close,
		DatetimeLayout: layout,
		Sep:            sep,
	}, nil
}

func resolvePair(p TradedPairConfig, d DefaultsConfig, dir string) (ResolvedPair, error) {
	step, err := decimal.NewFromString(p.PriceStep)
	if err != nil {
		return ResolvedPair{}, errors.Wrapf(exception.ErrConfigBadOption, "price_step %q: %v", p.PriceStep, err)
	}
	if step.Sign() <= 0 {
		return ResolvedPair{}, errors.Wrapf(exception.ErrConfigBadOption, "price_step %q is not positive", p.PriceStep)
	}

	window, err := resolveWindowFile(p.StartStopDatetimes, d, dir)
	if err != nil {
		return ResolvedPair{}, err
	}
	trd, err := resolveHistory("trd", p.Trd, d, dir)
	if err != nil {
		return ResolvedPair{}, err
	}
	prl, err := resolveHistory("prl", p.Prl, d, dir)
	if err != nil {
		return ResolvedPair{}, err
	}

	errLog := p.ErrLogFile
	if errLog != "" {
		errLog = rootedPath(dir, errLog)
	}

	return ResolvedPair{
		Exchange:   p.Exchange,
		Kind:       p.Kind,
		Quoted:     p.Quoted,
		Base:       p.Base,
		PriceStep:  step,
		ErrLogFile: errLog,
		WindowFile: window,
		Trd:        trd,
		Prl:        prl,
	}, nil
}

func resolveWindowFile(s StartStopConfig, d DefaultsConfig, dir string) (WindowFileSpec, error) {
	if s.Path == "" {
		// No window file means the pair is active for the whole run.
		return WindowFileSpec{}, nil
	}
	start, err := pick("start_colname", s.StartColname, d.StartColname)
	if err != nil {
		return WindowFileSpec{}, err
	}
	stop, err := pick("stop_colname", s.StopColname, d.StopColname)
	if err != nil {
		return WindowFileSpec{}, err
	}
	layout, err := pick("datetime_format", s.DatetimeFormat, d.DatetimeFormat)
	if err != nil {
		return WindowFileSpec{}, err
	}
	sep, err := pickSep(s.CSVSep, d.CSVSep)
	if err != nil {
		return WindowFileSpec{}, err
	}
	return WindowFileSpec{
		Path:           rootedPath(dir, s.Path),
		StartColumn:    start,
		StopColumn:     stop,
		DatetimeLayout: layout,
		Sep:            sep,
	}, nil
}

func resolveHistory(name string, h HistoryRefConfig, d DefaultsConfig, dir string) (source.FileSpec, error) {
	datetime, err := pick(name+".datetime_colname", h.DatetimeColname, d.DatetimeColname)
	if err != nil {
		return source.FileSpec{}, err
	}
	// Trade files reference the resting order they consumed; price-level
	// files carry the order's own id. Either alias may satisfy the column.
	orderID := h.ReferenceOrderIDColname
	if orderID == "" {
		orderID = h.OrderIDColname
	}
	if orderID == "" {
		orderID = d.ReferenceOrderIDColname
	}
	if orderID == "" {
		orderID = d.OrderIDColname
	}
	if orderID == "" {
		return source.FileSpec{}, errors.Wrapf(exception.ErrConfigMissingOption, "%s.order_id_colname", name)
	}
	price, err := pick(name+".price_colname", h.PriceColname, d.PriceColname)
	if err != nil {
		return source.FileSpec{}, err
	}
	size, err := pick(name+".size_colname", h.SizeColname, d.SizeColname)
	if err != nil {
		return source.FileSpec{}, err
	}
	side, err := pick(name+".buy_sell_flag_colname", h.BuySellFlagColname, d.BuySellFlagColname)
	if err != nil {
		return source.FileSpec{}, err
	}
	layout, err := pick(name+".datetime_format", h.DatetimeFormat, d.DatetimeFormat)
	if err != nil {
		return source.FileSpec{}, err
	}
	sep, err := pickSep(h.CSVSep, d.CSVSep)
	if err != nil {
		return source.FileSpec{}, err
	}

	paths := make([]string, 0, len(h.PathList))
	for _, p := range h.PathList {
		paths = append(paths, rootedPath(dir, p))
	}

	return source.FileSpec{
		Paths: paths,
		Columns: source.Columns{
			Datetime: datetime,
			OrderID:  orderID,
			Price:    price,
			Size:     size,
			Side:     side,
		},
		DatetimeLayout: layout,
		Sep:            sep,
	}, nil
}

// pick resolves one option: entry value wins, defaults value backs it,
// neither is an error.
func pick(name, entry, def string) (string, error) {
	if entry != "" {
		return entry, nil
	}
	if def != "" {
		return def, nil
	}
	return "", errors.Wrap(exception.ErrConfigMissingOption, name)
}

func pickSep(entry, def string) (rune, error) {
	raw := entry
	if raw == "" {
		raw = def
	}
	if raw == "" {
		return ',', nil
	}
	runes := []rune(raw)
	if len(runes) != 1 {
		return 0, errors.Wrapf(exception.ErrConfigBadOption, "csv_sep %q is not a single character", raw)
	}
	return runes[0], nil
}

func parseStamp(layout, raw, name string) (int64, error) {
	t, err := time.Parse(layout, raw)
	if err != nil {
		return 0, errors.Wrapf(exception.ErrConfigBadOption, "%s %q: %v", name, raw, err)
	}
	return t.UTC().UnixNano(), nil
}

func rootedPath(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
