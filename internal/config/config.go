package config

// FileConfig mirrors the YAML configuration layout. Any option under
// defaults may be overridden per exchange or per traded pair; resolution
// order is entry-level value, else defaults value, else a configuration
// error.
type FileConfig struct {
	Defaults   DefaultsConfig     `yaml:"defaults"`
	Simulation SimulationConfig   `yaml:"simulation"`
	Exchanges  []ExchangeConfig   `yaml:"exchanges"`
	TradedPairs []TradedPairConfig `yaml:"traded_pairs"`
}

// DefaultsConfig carries the shared formatting options and column-name
// aliases inherited by every file reference.
type DefaultsConfig struct {
	DatetimeFormat          string `yaml:"datetime_format"`
	CSVSep                  string `yaml:"csv_sep"`
	OpenColname             string `yaml:"open_colname"`
	CloseColname            string `yaml:"close_colname"`
	DatetimeColname         string `yaml:"datetime_colname"`
	OrderIDColname          string `yaml:"order_id_colname"`
	ReferenceOrderIDColname string `yaml:"reference_order_id_colname"`
	PriceColname            string `yaml:"price_colname"`
	SizeColname             string `yaml:"size_colname"`
	BuySellFlagColname      string `yaml:"buy_sell_flag_colname"`
	StartColname            string `yaml:"start_colname"`
	StopColname             string `yaml:"stop_colname"`
}

// SimulationConfig bounds the simulation window. End is the hard ceiling:
// messages timestamped beyond it are discarded, never dispatched.
type SimulationConfig struct {
	Start          string `yaml:"start"`
	End            string `yaml:"end"`
	DatetimeFormat string `yaml:"datetime_format"`
}

// ExchangeConfig declares one exchange and its session calendar file.
type ExchangeConfig struct {
	Name     string         `yaml:"name"`
	Sessions SessionsConfig `yaml:"sessions"`
}

// SessionsConfig references the tabular file whose rows are session
// open/close intervals.
type SessionsConfig struct {
	Path           string `yaml:"path"`
	OpenColname    string `yaml:"open_colname"`
	CloseColname   string `yaml:"close_colname"`
	DatetimeFormat string `yaml:"datetime_format"`
	CSVSep         string `yaml:"csv_sep"`
}

// TradedPairConfig declares one traded pair, its activity window and its
// trade and price-level history files.
type TradedPairConfig struct {
	Exchange           string           `yaml:"exchange"`
	Kind               string           `yaml:"kind"`
	Quoted             string           `yaml:"quoted"`
	Base               string           `yaml:"base"`
	PriceStep          string           `yaml:"price_step"`
	ErrLogFile         string           `yaml:"err_log_file"`
	StartStopDatetimes StartStopConfig  `yaml:"start_stop_datetimes"`
	Trd                HistoryRefConfig `yaml:"trd"`
	Prl                HistoryRefConfig `yaml:"prl"`
}

// StartStopConfig references the file supplying the pair's activity
// window.
type StartStopConfig struct {
	Path           string `yaml:"path"`
	StartColname   string `yaml:"start_colname"`
	StopColname    string `yaml:"stop_colname"`
	DatetimeFormat string `yaml:"datetime_format"`
	CSVSep         string `yaml:"csv_sep"`
}

// HistoryRefConfig references one list of pre-sorted history files.
type HistoryRefConfig struct {
	PathList                []string `yaml:"path_list"`
	DatetimeColname         string   `yaml:"datetime_colname"`
	ReferenceOrderIDColname string   `yaml:"reference_order_id_colname"`
	OrderIDColname          string   `yaml:"order_id_colname"`
	PriceColname            string   `yaml:"price_colname"`
	SizeColname             string   `yaml:"size_colname"`
	BuySellFlagColname      string   `yaml:"buy_sell_flag_colname"`
	DatetimeFormat          string   `yaml:"datetime_format"`
	CSVSep                  string   `yaml:"csv_sep"`
}
