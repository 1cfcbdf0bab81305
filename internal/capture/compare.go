package capture

import (
	"bytes"
	"io"
	"os"

	"github.com/yanun0323/errors"
)

// Divergence reports the first point where two capture logs differ.
type Divergence struct {
	Index int
	Left  *Record
	Right *Record
}

// Compare reads two capture logs and returns nil when they carry the same
// dispatch sequence, or the first divergence otherwise. Two runs of the
// same configuration must compare equal.
func Compare(leftPath, rightPath string) (*Divergence, error) {
	left, err := os.Open(leftPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open capture log %s", leftPath)
	}
	defer left.Close()
	right, err := os.Open(rightPath)
	if err != nil {
		return nil, errors.Wrapf(err, "open capture log %s", rightPath)
	}
	defer right.Close()

	lr := NewReader(left, ReaderOptions{})
	rr := NewReader(right, ReaderOptions{})

	for i := 0; ; i++ {
		lrec, lpayload, lerr := lr.Next()
		rrec, rpayload, rerr := rr.Next()

		switch {
		case lerr == io.EOF && rerr == io.EOF:
			return nil, nil
		case lerr == io.EOF:
			return &Divergence{Index: i, Right: &rrec}, nil
		case rerr == io.EOF:
			return &Divergence{Index: i, Left: &lrec}, nil
		case lerr != nil:
			return nil, errors.Wrapf(lerr, "record %d of %s", i, leftPath)
		case rerr != nil:
			return nil, errors.Wrapf(rerr, "record %d of %s", i, rightPath)
		}

		if lrec != rrec || !bytes.Equal(lpayload, rpayload) {
			l, r := lrec, rrec
			return &Divergence{Index: i, Left: &l, Right: &r}, nil
		}
	}
}
