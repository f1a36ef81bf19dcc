package internal

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/google/uuid"
)

// TicketLength is the length of every ticket returned by NewTicket.
const TicketLength = 32

// NewTicket returns a random version 4 UUID rendered as 32 lowercase hex
// characters without dashes.
func NewTicket() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate ticket: %w", err)
	}
	return hex.EncodeToString(id[:]), nil
}

// NewTicketFromReader is NewTicket drawing entropy from r.
func NewTicketFromReader(r io.Reader) (string, error) {
	id, err := uuid.NewRandomFromReader(r)
	if err != nil {
		return "", fmt.Errorf("generate ticket: %w", err)
	}
	return hex.EncodeToString(id[:]), nil
}
