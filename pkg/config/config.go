package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the runtime's tunable knobs: logging and the two ring
// capacities spec §4.2 leaves to the constructor's capacity argument.
type Config struct {
	LogLevel            logrus.Level  `json:"log_level"`
	EventRingCapacity   int           `json:"event_ring_capacity"`
	RequestRingCapacity int           `json:"request_ring_capacity"`
	FsWorkers           int           `json:"fs_workers"`
	InterruptPoll       time.Duration `json:"interrupt_poll"`
	OutputFormat        string        `json:"output_format"`
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:            logrus.InfoLevel,
		EventRingCapacity:   1024,
		RequestRingCapacity: 256,
		FsWorkers:           4,
		InterruptPoll:       10 * time.Millisecond,
		OutputFormat:        "table", // table, json
	}
}

// NewLogger creates a configured logger instance.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
