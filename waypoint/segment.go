package waypoint

import "fmt"

// Segment is a groomed mission command segment. A Segment is only produced
// when every slot of the window was filled, and its last waypoint is always
// its own successor.
type Segment struct {
	waypoints []Waypoint
}

// ExtractSegment extracts a groomed segment of the given length from ws,
// starting at id
func ExtractSegment(ws []Waypoint, id int64, length int) (Segment, error) {
	if len(ws) == 0 {
		return Segment{}, ErrEmptyMissionCommand
	}
	if len(ws) > MaxMissionLength {
		return Segment{}, ErrMissionTooLarge
	}
	if length <= 0 || length > MaxWindowLength {
		return Segment{}, ErrInvalidWindowLength
	}

	win := make([]Waypoint, length)
	n, ok := fillWindow(ws, id, win)
	if !ok {
		missing := id
		if n > 0 {
			missing = win[n-1].NextID
		}
		return Segment{}, fmt.Errorf("slot %d of %d: waypoint %d: %w", n, length, missing, ErrWaypointNotFound)
	}
	GroomWindow(win)

	return Segment{waypoints: win}, nil
}

// Len returns the number of waypoints in the segment
func (s Segment) Len() int {
	return len(s.waypoints)
}

// At returns the waypoint in slot i
func (s Segment) At(i int) Waypoint {
	return s.waypoints[i]
}

// First returns the first waypoint of the segment
func (s Segment) First() Waypoint {
	return s.waypoints[0]
}

// Last returns the self-terminating last waypoint of the segment
func (s Segment) Last() Waypoint {
	return s.waypoints[len(s.waypoints)-1]
}

// Waypoints returns a copy of the segment's waypoints
func (s Segment) Waypoints() []Waypoint {
	out := make([]Waypoint, len(s.waypoints))
	copy(out, s.waypoints)
	return out
}

// IDs returns the waypoint ids in window order
func (s Segment) IDs() []int64 {
	ids := make([]int64, len(s.waypoints))
	for i, wp := range s.waypoints {
		ids[i] = wp.ID
	}
	return ids
}

// Mission returns the segment's distinct waypoints in order of first
// appearance, each linked to the successor it had at that appearance. The
// result is a valid mission command from which the same segment can be
// extracted again.
func (s Segment) Mission() MissionCommand {
	seen := make(map[int64]struct{}, len(s.waypoints))
	var mission MissionCommand
	for _, wp := range s.waypoints {
		if _, ok := seen[wp.ID]; ok {
			continue
		}
		seen[wp.ID] = struct{}{}
		mission = append(mission, wp)
	}
	return mission
}

// IsGroomed reports whether the last waypoint is its own successor
func (s Segment) IsGroomed() bool {
	if len(s.waypoints) == 0 {
		return false
	}
	last := s.Last()
	return last.NextID == last.ID
}

// Legs returns the legs between consecutive waypoints of the segment
func (s Segment) Legs() []Leg {
	if len(s.waypoints) < 2 {
		return nil
	}
	legs := make([]Leg, 0, len(s.waypoints)-1)
	for i := 0; i < len(s.waypoints)-1; i++ {
		from, to := s.waypoints[i], s.waypoints[i+1]
		legs = append(legs, Leg{
			From:     from.ID,
			To:       to.ID,
			Distance: Distance(from.Position, to.Position),
			Bearing:  Bearing(from.Position, to.Position),
		})
	}
	return legs
}

// Distance returns the total length of the segment in meters
func (s Segment) Distance() float64 {
	var total float64
	for _, leg := range s.Legs() {
		total += leg.Distance
	}
	return total
}
