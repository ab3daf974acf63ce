package waypoint

// MaxWindowLength is the largest mission command segment that can be extracted
const MaxWindowLength = 65535

// MaxMissionLength is the largest mission command that can be validated
const MaxMissionLength = 65535

// Position represents a geodetic point
type Position struct {
	Latitude  float64 `json:"latitude"`  // degrees
	Longitude float64 `json:"longitude"` // degrees
	Altitude  float64 `json:"altitude"`  // meters
}

// Waypoint represents a navigation point linked to its successor by NextID
type Waypoint struct {
	Position
	ID     int64 `json:"id"`
	NextID int64 `json:"next_id"`
}

// MissionCommand is an unordered collection of waypoints. Traversal order is
// determined only by following NextID links.
type MissionCommand []Waypoint

// Leg represents the path between two consecutive waypoints in a segment
type Leg struct {
	From     int64   `json:"from"`
	To       int64   `json:"to"`
	Distance float64 `json:"distance"` // meters
	Bearing  float64 `json:"bearing"`  // degrees
}
