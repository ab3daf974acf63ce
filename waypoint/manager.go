package waypoint

// FindWaypoint returns the first waypoint in ws whose ID matches id
func FindWaypoint(ws []Waypoint, id int64) (Waypoint, bool) {
	for i := range ws {
		if ws[i].ID == id {
			return ws[i], true
		}
	}
	return Waypoint{}, false
}

// FillWindow fills win by following NextID links through ws, starting at id.
// Cycles shorter than the window are unrolled, so the same waypoints may
// appear more than once. It returns false as soon as a lookup fails; win is
// then only partially populated and must not be used.
func FillWindow(ws []Waypoint, id int64, win []Waypoint) bool {
	_, ok := fillWindow(ws, id, win)
	return ok
}

// fillWindow is FillWindow that also reports the number of slots filled
func fillWindow(ws []Waypoint, id int64, win []Waypoint) (int, bool) {
	nid := id
	for i := range win {
		wp, ok := FindWaypoint(ws, nid)
		if !ok {
			return i, false
		}
		win[i] = wp
		nid = wp.NextID
	}
	return len(win), true
}

// GroomWindow makes the last waypoint in win its own successor so that the
// segment terminates within the window
func GroomWindow(win []Waypoint) {
	if len(win) == 0 {
		return
	}
	last := &win[len(win)-1]
	last.NextID = last.ID
}

// AutoPilotMissionCommandSegment fills win from the mission command ws
// starting at id and, if every slot was filled, grooms it. It returns the
// fill result. The caller owns both slices; ws is only read.
func AutoPilotMissionCommandSegment(ws []Waypoint, id int64, win []Waypoint) bool {
	if !FillWindow(ws, id, win) {
		return false
	}
	GroomWindow(win)
	return true
}
