package index

import (
	"bytes"
	"encoding/binary"
	"time"
)

// key = invTime(8) + 0x00 + source path, so a forward cursor yields the
// newest page first. Undated pages sort last.
func makeDateKey(t time.Time, key string) []byte {
	var inv uint64 = ^uint64(0)
	if !t.IsZero() {
		inv = ^uint64(t.UnixNano())
	}

	buf := make([]byte, 8, 8+1+len(key))
	binary.BigEndian.PutUint64(buf, inv)
	buf = append(buf, 0x00)
	buf = append(buf, key...)
	return buf
}

func keyFromDateKey(k []byte) string {
	if len(k) < 8+2 || k[8] != 0x00 {
		return ""
	}
	return string(bytes.Clone(k[9:]))
}
