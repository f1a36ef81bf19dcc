package session

import (
	"testing"
	"time"
)

// FuzzSnapshotDecode feeds arbitrary bytes to the decoder.
// Goal: no panics, and anything that decodes can be encoded again.
func FuzzSnapshotDecode(f *testing.F) {
	snap := &Snapshot{
		UserID:       "13000000000",
		Nickname:     "fuzz",
		Head:         "h",
		RegisterDate: time.UnixMilli(1700000000000),
		LoginCount:   3,
		IssuedAt:     time.UnixMilli(1700003600000),
	}
	encoded, err := Encode(snap)
	if err == nil {
		f.Add(encoded)
	}

	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{CurrentSchemaVersion})
	f.Add([]byte{255, 255, 255})
	if len(encoded) > 10 {
		f.Add(encoded[:10])
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}

		if _, err := Encode(s); err != nil {
			t.Fatalf("re-encode of decoded snapshot failed: %v", err)
		}
	})
}
