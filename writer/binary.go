package writer

import (
	"encoding/binary"
	"io"

	"github.com/locdb/locdb/dbformat"
)

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func currentOffset(s io.Seeker) (int64, error) {
	return s.Seek(0, io.SeekCurrent)
}

// alignToPage pads sink with NUL bytes up to the next page boundary.
func alignToPage(s io.WriteSeeker) error {
	offset, err := currentOffset(s)
	if err != nil {
		return err
	}
	target := dbformat.AlignToPage(offset)
	if target == offset {
		return nil
	}
	pad := make([]byte, target-offset)
	_, err = s.Write(pad)
	return err
}
