package metrics

import (
	"time"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/errors"
)

const (
	defaultDirPerm = 0o755

	// DefaultWindowSize caps each rolling window's sample count
	DefaultWindowSize = 60

	// DefaultMemoryInterval is the wall-clock cadence of memory
	// sampling, independent of frame rate
	DefaultMemoryInterval = time.Second
)

type Config struct {
	WindowSize     int
	MemoryInterval time.Duration
	DBPath         string
	Enabled        bool
}

func DefaultConfig() Config {
	return Config{
		WindowSize:     DefaultWindowSize,
		MemoryInterval: DefaultMemoryInterval,
		Enabled:        false,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.WindowSize <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "window size must be positive")
	}
	if c.Enabled && c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}

	return nil
}
