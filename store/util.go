package store

import (
	"encoding/binary"
	"fmt"
)

func uint64ToBytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func bytesToUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid uint64 bytes length %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}
