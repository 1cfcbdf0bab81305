package capture

import (
	"bufio"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/yanun0323/errors"

	"main/internal/codec"
	"main/internal/schema"
)

const defaultBufferSize = 256 * 1024

// Config controls the capture log writer.
type Config struct {
	Path       string
	BufferSize int
}

func (c Config) withDefaults() Config {
	if c.BufferSize == 0 {
		c.BufferSize = defaultBufferSize
	}
	return c
}

// Validate checks if the configuration is usable.
func (c Config) Validate() error {
	if c.Path == "" {
		return errors.New("invalid capture config: Path is empty")
	}
	if c.BufferSize <= 0 {
		return errors.New("invalid capture config: BufferSize must be > 0")
	}
	return nil
}

// Writer appends dispatched messages to a capture log. Appends happen on
// the simulation thread in dispatch order, so the writer is synchronous.
type Writer struct {
	file *os.File
	buf  *bufio.Writer

	headerBuf  []byte
	payloadBuf []byte
}

// NewWriter creates the capture log file, truncating any previous run.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create capture dir %s", dir)
		}
	}
	file, err := os.Create(cfg.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "create capture log %s", cfg.Path)
	}
	return &Writer{
		file:      file,
		buf:       bufio.NewWriterSize(file, cfg.BufferSize),
		headerBuf: make([]byte, recordHeaderSize),
	}, nil
}

// Append writes one dispatched message.
func (w *Writer) Append(msg schema.Message) error {
	payload, ok := codec.EncodePayload(w.payloadBuf, msg)
	if !ok {
		return errors.Errorf("capture: kind %s payload %T mismatch", msg.Kind, msg.Payload)
	}
	w.payloadBuf = payload

	rec := Record{Ts: msg.Ts, Seq: msg.Seq, Source: msg.Source, Kind: msg.Kind}
	encodeHeader(w.headerBuf, rec, len(payload))
	sum := checksum(w.headerBuf, payload)

	if _, err := w.buf.Write(w.headerBuf); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.buf.Write(payload); err != nil {
			return err
		}
	}
	var checksumBuf [recordChecksumSize]byte
	binary.LittleEndian.PutUint32(checksumBuf[:], sum)
	if _, err := w.buf.Write(checksumBuf[:]); err != nil {
		return err
	}
	return nil
}

// Close flushes and syncs the log.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
