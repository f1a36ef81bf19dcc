package session

import "time"

// Snapshot is the immutable copy of a user captured when a ticket is issued.
//
// A snapshot is never re-read from the user store while its ticket is alive,
// so later profile changes only show up on the next login.
type Snapshot struct {
	UserID        string
	Nickname      string
	Head          string
	RegisterDate  time.Time
	LastLoginDate time.Time
	LoginCount    uint32
	IssuedAt      time.Time

	SchemaVersion uint8
}
