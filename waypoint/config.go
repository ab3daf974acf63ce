package waypoint

import (
	"strings"
	"time"
)

// Config holds all configuration options for the waypoint manager
type Config struct {
	MissionFile  string        // Mission command file (.json or .gpx)
	StartID      int64         // Waypoint id the segment starts at
	WindowLength int           // Number of waypoints in the segment
	RouteName    string        // Route identifier used in RTE sentences and GPX output
	SerialPort   string        // Serial port device (e.g., /dev/ttyUSB0, COM1)
	BaudRate     int           // Serial baud rate
	Quiet        bool          // Suppress informational messages
	GPXFile      string        // Write the segment as a GPX route (empty = disabled)
	Interval     time.Duration // Re-send the segment at this period (0 = send once)
	Duration     time.Duration // How long to keep re-sending (0 = until interrupted)
	LogFile      string        // Rotating log file (empty = stderr)
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		StartID:      1,
		WindowLength: 5,
		RouteName:    "SEG",
		BaudRate:     4800,
		Quiet:        false,
		Interval:     0,
		Duration:     0,
	}
}

// Validate checks if the configuration is valid and returns an error if not
func (c *Config) Validate() error {
	if c.MissionFile == "" {
		return ErrMissingMissionFile
	}
	if c.WindowLength <= 0 || c.WindowLength > MaxWindowLength {
		return ErrInvalidWindowLength
	}
	if strings.ContainsAny(c.RouteName, ",*$\r\n") {
		return ErrInvalidRouteName
	}
	if len(c.RouteName) > MaxRouteNameLength {
		return ErrRouteNameTooLong
	}
	if c.BaudRate <= 0 {
		return ErrInvalidBaudRate
	}
	if c.Interval < 0 || c.Duration < 0 {
		return ErrInvalidInterval
	}
	return nil
}
