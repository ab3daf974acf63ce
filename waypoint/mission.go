package waypoint

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Validate checks the preconditions segment extraction relies on: the
// mission command is non-empty, ids are unique and every NextID resolves
func (m MissionCommand) Validate() error {
	if len(m) == 0 {
		return ErrEmptyMissionCommand
	}
	if len(m) > MaxMissionLength {
		return ErrMissionTooLarge
	}

	ids := make(map[int64]struct{}, len(m))
	for _, wp := range m {
		if _, dup := ids[wp.ID]; dup {
			return fmt.Errorf("waypoint %d: %w", wp.ID, ErrDuplicateWaypointID)
		}
		ids[wp.ID] = struct{}{}
	}
	for _, wp := range m {
		if _, ok := ids[wp.NextID]; !ok {
			return fmt.Errorf("waypoint %d -> %d: %w", wp.ID, wp.NextID, ErrDanglingNextID)
		}
	}
	return nil
}

// Find returns the waypoint with the given id
func (m MissionCommand) Find(id int64) (Waypoint, bool) {
	return FindWaypoint(m, id)
}

// Reachable returns the number of distinct waypoints reached by following
// NextID links from id, including id itself. It returns 0 if id is absent.
func (m MissionCommand) Reachable(id int64) int {
	seen := make(map[int64]struct{})
	nid := id
	for {
		if _, ok := seen[nid]; ok {
			return len(seen)
		}
		wp, ok := m.Find(nid)
		if !ok {
			return len(seen)
		}
		seen[nid] = struct{}{}
		nid = wp.NextID
	}
}

// ReadMissionJSON decodes a JSON array of waypoints
func ReadMissionJSON(r io.Reader) (MissionCommand, error) {
	var mission MissionCommand
	if err := json.NewDecoder(r).Decode(&mission); err != nil {
		return nil, fmt.Errorf("failed to decode mission command: %w", err)
	}
	if len(mission) == 0 {
		return nil, ErrEmptyMissionCommand
	}
	return mission, nil
}

// LoadMissionFile reads a mission command from a .json or .gpx file
func LoadMissionFile(filename string) (MissionCommand, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		file, err := os.Open(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open mission file %s: %w", filename, err)
		}
		defer file.Close()

		mission, err := ReadMissionJSON(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		return mission, nil
	case ".gpx":
		return ReadGPXFile(filename)
	default:
		return nil, fmt.Errorf("%s: %w", filename, ErrUnsupportedMissionFormat)
	}
}
