package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// CurrentSchemaVersion is written by Encode.
const CurrentSchemaVersion uint8 = 1

// ErrSnapshotCorrupt is returned when a stored value cannot be decoded.
var ErrSnapshotCorrupt = errors.New("ticket snapshot corrupt")

// Encode serializes s with the current schema version.
func Encode(s *Snapshot) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil snapshot")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 1 + len(s.UserID) + 2 + len(s.Nickname) + 2 + len(s.Head) + 8*3 + 4)

	buf.WriteByte(CurrentSchemaVersion)

	if err := writeShortString(&buf, "userID", s.UserID); err != nil {
		return nil, err
	}
	// Nicknames are stored as up to 255 characters, which is more than 255
	// bytes once multi-byte text is involved.
	if err := writeString(&buf, "nickname", s.Nickname); err != nil {
		return nil, err
	}
	if err := writeString(&buf, "head", s.Head); err != nil {
		return nil, err
	}

	_ = binary.Write(&buf, binary.BigEndian, unixMilli(s.RegisterDate))
	_ = binary.Write(&buf, binary.BigEndian, unixMilli(s.LastLoginDate))
	_ = binary.Write(&buf, binary.BigEndian, s.LoginCount)
	_ = binary.Write(&buf, binary.BigEndian, unixMilli(s.IssuedAt))

	return buf.Bytes(), nil
}

// Decode parses a value produced by Encode. Every failure wraps
// ErrSnapshotCorrupt.
func Decode(data []byte) (*Snapshot, error) {
	s, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	return s, nil
}

func decode(reader *bytes.Reader) (*Snapshot, error) {
	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != CurrentSchemaVersion {
		return nil, fmt.Errorf("unknown schema version %d", version)
	}

	s := &Snapshot{SchemaVersion: version}

	if s.UserID, err = readShortString(reader); err != nil {
		return nil, err
	}
	if s.UserID == "" {
		return nil, errors.New("empty userID")
	}
	if s.Nickname, err = readString(reader); err != nil {
		return nil, err
	}
	if s.Head, err = readString(reader); err != nil {
		return nil, err
	}

	var registered, lastLogin, issued int64
	if err := binary.Read(reader, binary.BigEndian, &registered); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &lastLogin); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.LoginCount); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &issued); err != nil {
		return nil, err
	}
	s.RegisterDate = fromUnixMilli(registered)
	s.LastLoginDate = fromUnixMilli(lastLogin)
	s.IssuedAt = fromUnixMilli(issued)

	if reader.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", reader.Len())
	}

	return s, nil
}

func writeShortString(buf *bytes.Buffer, field, v string) error {
	if len(v) > math.MaxUint8 {
		return fmt.Errorf("%s too long", field)
	}
	buf.WriteByte(byte(len(v)))
	buf.WriteString(v)
	return nil
}

func readShortString(reader *bytes.Reader) (string, error) {
	n, err := reader.ReadByte()
	if err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

func writeString(buf *bytes.Buffer, field, v string) error {
	if len(v) > math.MaxUint16 {
		return fmt.Errorf("%s too long", field)
	}
	_ = binary.Write(buf, binary.BigEndian, uint16(len(v)))
	buf.WriteString(v)
	return nil
}

func readString(reader *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

// Zero times round-trip as zero rather than the Unix epoch.
func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMilli(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
