package app

import (
	"io"
	"log/slog"

	"github.com/MrEthical07/ticketAuth/internal/config"
)

// NewLogger returns a slog logger writing cfg.Format records at cfg.Level.
func NewLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", "ticketauth"), nil
}
