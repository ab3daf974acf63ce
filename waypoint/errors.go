package waypoint

import "errors"

// Common errors returned by the waypoint manager
var (
	ErrEmptyMissionCommand      = errors.New("mission command must contain at least one waypoint")
	ErrMissionTooLarge          = errors.New("mission command must contain at most 65535 waypoints")
	ErrDuplicateWaypointID      = errors.New("waypoint ids must be unique")
	ErrDanglingNextID           = errors.New("next waypoint id not found in mission command")
	ErrWaypointNotFound         = errors.New("waypoint not found in mission command")
	ErrInvalidWindowLength      = errors.New("window length must be between 1 and 65535")
	ErrInvalidBaudRate          = errors.New("baud rate must be positive")
	ErrInvalidInterval          = errors.New("interval and duration must be non-negative")
	ErrMissingMissionFile       = errors.New("mission file must be specified")
	ErrUnsupportedMissionFormat = errors.New("mission file must be .json or .gpx")
	ErrInvalidRouteName         = errors.New("route name must not contain NMEA delimiters")
	ErrRouteNameTooLong         = errors.New("route name must be at most 32 characters")
)
