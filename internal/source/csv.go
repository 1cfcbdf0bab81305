package source

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"main/internal/schema"
	"main/pkg/exception"
)

// Columns names the record fields of a trade or price-level file after
// alias resolution.
type Columns struct {
	Datetime string
	OrderID  string
	Price    string
	Size     string
	Side     string
}

// FileSpec describes one list of pre-sorted delimited history files
// sharing a format.
type FileSpec struct {
	Paths          []string
	Columns        Columns
	DatetimeLayout string
	Sep            rune
}

// entry is one decoded history record.
type entry struct {
	ts      int64
	orderID uint64
	side    schema.Side
	price   schema.Price
	size    schema.Size
}

type columnIndex struct {
	datetime int
	orderID  int
	price    int
	size     int
	side     int
}

// stepTolerance absorbs decimal representation noise when converting a
// quoted price into an integer number of price steps.
var stepTolerance = decimal.New(1, -11)

// historyReader streams entries from a list of files in order, skipping
// malformed rows into the pair's error log. An unreadable file is fatal.
type historyReader struct {
	spec      FileSpec
	priceStep decimal.Decimal
	window    Window
	errlog    *ErrLog

	fileIdx int
	file    *os.File
	reader  *csv.Reader
	cols    columnIndex
	row     int
}

func newHistoryReader(spec FileSpec, priceStep decimal.Decimal, window Window, errlog *ErrLog) *historyReader {
	return &historyReader{
		spec:      spec,
		priceStep: priceStep,
		window:    window,
		errlog:    errlog,
	}
}

// next returns the next in-window entry, io.EOF when every file is
// drained, or a fatal error for an unreadable file.
func (r *historyReader) next() (entry, error) {
	for {
		if r.reader == nil {
			if r.fileIdx >= len(r.spec.Paths) {
				return entry{}, io.EOF
			}
			if err := r.openFile(r.spec.Paths[r.fileIdx]); err != nil {
				return entry{}, err
			}
		}

		record, err := r.reader.Read()
		if err == io.EOF {
			r.closeFile()
			r.fileIdx++
			continue
		}
		if err != nil {
			// A row the csv layer cannot split is a per-record problem.
			// Anything else comes from the file itself and would repeat
			// on the next read, so it ends the replica.
			if _, ok := err.(*csv.ParseError); !ok {
				return entry{}, errors.Wrapf(exception.ErrSourceUnreadable,
					"read %s: %v", r.currentPath(), err)
			}
			r.row++
			r.errlog.Reportf(0, "cannot read row %d of %s: %v", r.row, r.currentPath(), err)
			continue
		}
		r.row++

		e, perr := r.parse(record)
		if perr != nil {
			r.errlog.Reportf(0, "skip row %d of %s: %v", r.row, r.currentPath(), perr)
			continue
		}
		if !r.window.Contains(e.ts) {
			continue
		}
		return e, nil
	}
}

// restart rewinds the reader to the first row of the first file.
func (r *historyReader) restart() error {
	r.closeFile()
	r.fileIdx = 0
	return nil
}

func (r *historyReader) currentPath() string {
	if r.fileIdx < len(r.spec.Paths) {
		return r.spec.Paths[r.fileIdx]
	}
	return ""
}

func (r *historyReader) openFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(exception.ErrSourceUnreadable, "%s: %v", path, err)
	}
	reader := csv.NewReader(file)
	reader.Comma = r.spec.Sep
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		file.Close()
		return errors.Wrapf(exception.ErrSourceUnreadable, "read header of %s: %v", path, err)
	}
	cols, err := indexColumns(header, r.spec.Columns)
	if err != nil {
		file.Close()
		return errors.Wrapf(err, "header of %s", path)
	}

	r.file = file
	r.reader = reader
	r.cols = cols
	r.row = 1
	return nil
}

func (r *historyReader) closeFile() {
	if r.file != nil {
		r.file.Close()
	}
	r.file = nil
	r.reader = nil
}

func (r *historyReader) parse(record []string) (entry, error) {
	max := r.cols.datetime
	for _, idx := range []int{r.cols.orderID, r.cols.price, r.cols.size, r.cols.side} {
		if idx > max {
			max = idx
		}
	}
	if len(record) <= max {
		return entry{}, errors.Wrapf(exception.ErrMalformedRecord, "row has %d fields, need %d", len(record), max+1)
	}

	ts, err := time.Parse(r.spec.DatetimeLayout, record[r.cols.datetime])
	if err != nil {
		return entry{}, errors.Wrapf(exception.ErrMalformedRecord, "datetime %q: %v", record[r.cols.datetime], err)
	}
	orderID, err := strconv.ParseUint(record[r.cols.orderID], 10, 64)
	if err != nil {
		return entry{}, errors.Wrapf(exception.ErrMalformedRecord, "order id %q: %v", record[r.cols.orderID], err)
	}
	size, err := strconv.ParseInt(record[r.cols.size], 10, 64)
	if err != nil || size < 0 {
		return entry{}, errors.Wrapf(exception.ErrMalformedRecord, "size %q", record[r.cols.size])
	}
	side, err := parseSide(record[r.cols.side])
	if err != nil {
		return entry{}, err
	}
	price, err := priceSteps(record[r.cols.price], r.priceStep)
	if err != nil {
		return entry{}, err
	}

	return entry{
		ts:      ts.UTC().UnixNano(),
		orderID: orderID,
		side:    side,
		price:   price,
		size:    schema.Size(size),
	}, nil
}

func indexColumns(header []string, cols Columns) (columnIndex, error) {
	idx := columnIndex{datetime: -1, orderID: -1, price: -1, size: -1, side: -1}
	for i, name := range header {
		switch name {
		case cols.Datetime:
			idx.datetime = i
		case cols.OrderID:
			idx.orderID = i
		case cols.Price:
			idx.price = i
		case cols.Size:
			idx.size = i
		case cols.Side:
			idx.side = i
		}
	}
	for name, got := range map[string]int{
		cols.Datetime: idx.datetime,
		cols.OrderID:  idx.orderID,
		cols.Price:    idx.price,
		cols.Size:     idx.size,
		cols.Side:     idx.side,
	} {
		if got < 0 {
			return columnIndex{}, errors.Wrapf(exception.ErrUnknownColumn, "column %q", name)
		}
	}
	return idx, nil
}

func parseSide(raw string) (schema.Side, error) {
	switch raw {
	case "0", "B", "b", "False", "false":
		return schema.SideBuy, nil
	case "1", "S", "s", "True", "true":
		return schema.SideSell, nil
	default:
		return schema.SideUnknown, errors.Wrapf(exception.ErrMalformedRecord, "buy-sell flag %q", raw)
	}
}

// priceSteps converts a quoted decimal price into an integer number of
// price steps. A price that does not land on the step grid is malformed.
func priceSteps(raw string, step decimal.Decimal) (schema.Price, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, errors.Wrapf(exception.ErrMalformedRecord, "price %q: %v", raw, err)
	}
	if step.IsZero() {
		return 0, errors.Wrap(exception.ErrConfigBadOption, "price step is zero")
	}
	steps := value.Div(step)
	rounded := steps.Round(0)
	if steps.Sub(rounded).Abs().GreaterThan(stepTolerance) {
		return 0, errors.Wrapf(exception.ErrMalformedRecord, "price %q is not a multiple of step %s", raw, step)
	}
	return schema.Price(rounded.IntPart()), nil
}
