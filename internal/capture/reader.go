package capture

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/yanun0323/errors"

	"main/pkg/exception"
)

// ReaderOptions controls record decoding.
type ReaderOptions struct {
	DisableChecksum bool
	MaxPayloadSize  int
}

// Reader decodes capture log records sequentially.
type Reader struct {
	r         *bufio.Reader
	opts      ReaderOptions
	headerBuf []byte
	payload   []byte
}

// NewReader wraps an io.Reader with capture log decoding.
func NewReader(r io.Reader, opts ReaderOptions) *Reader {
	return &Reader{
		r:         bufio.NewReader(r),
		opts:      opts,
		headerBuf: make([]byte, recordHeaderSize),
	}
}

// Next returns the next record and its encoded payload.
// The payload is only valid until the next call to Next.
func (r *Reader) Next() (Record, []byte, error) {
	n, err := io.ReadFull(r.r, r.headerBuf)
	if err != nil {
		if err == io.EOF && n == 0 {
			return Record{}, nil, io.EOF
		}
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return Record{}, nil, errors.Wrap(exception.ErrCaptureCorrupted, "truncated header")
		}
		return Record{}, nil, err
	}

	rec, payloadLen, err := decodeRecordHeader(r.headerBuf)
	if err != nil {
		return rec, nil, err
	}
	if r.opts.MaxPayloadSize > 0 && payloadLen > uint32(r.opts.MaxPayloadSize) {
		return rec, nil, errors.Wrapf(exception.ErrCaptureCorrupted, "payload length %d exceeds limit", payloadLen)
	}

	if payloadLen > 0 {
		if cap(r.payload) < int(payloadLen) {
			r.payload = make([]byte, payloadLen)
		}
		r.payload = r.payload[:payloadLen]
		if _, err := io.ReadFull(r.r, r.payload); err != nil {
			return rec, nil, errors.Wrap(exception.ErrCaptureCorrupted, "truncated payload")
		}
	} else {
		r.payload = r.payload[:0]
	}

	var checksumBuf [recordChecksumSize]byte
	if _, err := io.ReadFull(r.r, checksumBuf[:]); err != nil {
		return rec, nil, errors.Wrap(exception.ErrCaptureCorrupted, "truncated checksum")
	}

	if !r.opts.DisableChecksum {
		expected := binary.LittleEndian.Uint32(checksumBuf[:])
		if sum := checksum(r.headerBuf, r.payload); sum != expected {
			return rec, nil, errors.Wrap(exception.ErrCaptureCorrupted, "checksum mismatch")
		}
	}

	return rec, r.payload, nil
}
