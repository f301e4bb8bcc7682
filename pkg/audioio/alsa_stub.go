//go:build !linux

package audioio

import (
	"fmt"
	"log/slog"
)

func newALSASource(cfg Config, logger *slog.Logger) (Source, error) {
	return nil, fmt.Errorf("alsa backend is only available on linux")
}

func newALSASink(cfg Config, logger *slog.Logger) (Sink, error) {
	return nil, fmt.Errorf("alsa backend is only available on linux")
}
