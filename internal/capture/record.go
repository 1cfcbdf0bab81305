package capture

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/yanun0323/errors"

	"main/internal/schema"
	"main/pkg/exception"
)

const (
	recordVersion      uint16 = 1
	recordHeaderSize          = 40
	recordChecksumSize        = 4
)

var (
	recordMagic = [4]byte{'C', 'A', 'P', '1'}
	crcTable    = crc32.MakeTable(crc32.Castagnoli)
)

// Record is one dispatched message as it appears in the capture log:
// the stamped envelope plus the encoded payload.
type Record struct {
	Ts     int64
	Seq    uint64
	Source schema.StreamID
	Kind   schema.Kind
}

func encodeHeader(dst []byte, rec Record, payloadLen int) {
	_ = dst[recordHeaderSize-1]
	copy(dst[0:4], recordMagic[:])
	binary.LittleEndian.PutUint16(dst[4:6], recordVersion)
	binary.LittleEndian.PutUint16(dst[6:8], uint16(recordHeaderSize))
	binary.LittleEndian.PutUint16(dst[8:10], uint16(rec.Kind))
	binary.LittleEndian.PutUint16(dst[10:12], schema.SchemaVersion)
	binary.LittleEndian.PutUint32(dst[12:16], uint32(rec.Source))
	binary.LittleEndian.PutUint32(dst[16:20], uint32(payloadLen))
	binary.LittleEndian.PutUint64(dst[20:28], rec.Seq)
	binary.LittleEndian.PutUint64(dst[28:36], uint64(rec.Ts))
	binary.LittleEndian.PutUint32(dst[36:40], 0)
}

func checksum(header []byte, payload []byte) uint32 {
	crc := crc32.Update(0, crcTable, header)
	return crc32.Update(crc, crcTable, payload)
}

func decodeRecordHeader(src []byte) (Record, uint32, error) {
	if len(src) < recordHeaderSize {
		return Record{}, 0, errors.Wrap(exception.ErrCaptureCorrupted, "short header")
	}
	if !bytes.Equal(src[0:4], recordMagic[:]) {
		return Record{}, 0, errors.Wrap(exception.ErrCaptureCorrupted, "invalid magic")
	}
	if ver := binary.LittleEndian.Uint16(src[4:6]); ver != recordVersion {
		return Record{}, 0, errors.Wrapf(exception.ErrCaptureCorrupted, "unsupported record version %d", ver)
	}
	if headerSize := binary.LittleEndian.Uint16(src[6:8]); headerSize != recordHeaderSize {
		return Record{}, 0, errors.Wrapf(exception.ErrCaptureCorrupted, "invalid header size %d", headerSize)
	}
	if sv := binary.LittleEndian.Uint16(src[10:12]); sv != schema.SchemaVersion {
		return Record{}, 0, errors.Wrapf(exception.ErrCaptureCorrupted, "unsupported schema version %d", sv)
	}
	payloadLen := binary.LittleEndian.Uint32(src[16:20])
	rec := Record{
		Kind:   schema.Kind(binary.LittleEndian.Uint16(src[8:10])),
		Source: schema.StreamID(binary.LittleEndian.Uint32(src[12:16])),
		Seq:    binary.LittleEndian.Uint64(src[20:28]),
		Ts:     int64(binary.LittleEndian.Uint64(src[28:36])),
	}
	return rec, payloadLen, nil
}
