package waypoint

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// GPX represents the root GPX document structure
type GPX struct {
	XMLName   xml.Name     `xml:"gpx"`
	Version   string       `xml:"version,attr"`
	Creator   string       `xml:"creator,attr"`
	Xmlns     string       `xml:"xmlns,attr"`
	Waypoints []RoutePoint `xml:"wpt"`
	Routes    []Route      `xml:"rte"`
}

// Route represents a GPX route
type Route struct {
	Name        string       `xml:"name"`
	RoutePoints []RoutePoint `xml:"rtept"`
}

// RoutePoint represents a single point in a GPX route, also used for
// standalone waypoints. The waypoint id is carried in Name and its
// successor in Extensions.
type RoutePoint struct {
	Lat        float64               `xml:"lat,attr"`
	Lon        float64               `xml:"lon,attr"`
	Elevation  float64               `xml:"ele"`
	Name       string                `xml:"name,omitempty"`
	Extensions *RoutePointExtensions `xml:"extensions,omitempty"`
}

// RoutePointExtensions holds the successor link of a route point
type RoutePointExtensions struct {
	Next string `xml:"next,omitempty"`
}

// GPXWriter handles writing mission command segments to a GPX file
type GPXWriter struct {
	filename string
	gpx      *GPX
	file     *os.File
}

// NewGPXWriter creates a new GPX writer
func NewGPXWriter(filename string) (*GPXWriter, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create GPX file %s: %w", filename, err)
	}

	gpx := &GPX{
		Version: "1.1",
		Creator: "go-waypoint-manager",
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Routes:  []Route{},
	}

	writer := &GPXWriter{
		filename: filename,
		gpx:      gpx,
		file:     file,
	}

	return writer, nil
}

func newRoutePoint(wp Waypoint) RoutePoint {
	return RoutePoint{
		Lat:        wp.Latitude,
		Lon:        wp.Longitude,
		Elevation:  wp.Altitude,
		Name:       strconv.FormatInt(wp.ID, 10),
		Extensions: &RoutePointExtensions{Next: strconv.FormatInt(wp.NextID, 10)},
	}
}

// AddSegment adds a segment to the GPX file as a route, one route point per
// window slot. The segment's distinct waypoints are also written as <wpt>
// elements so the file reloads as a valid mission command; a waypoint id
// already written by an earlier segment is kept as first written.
func (w *GPXWriter) AddSegment(name string, seg Segment) {
	route := Route{
		Name:        name,
		RoutePoints: make([]RoutePoint, 0, seg.Len()),
	}
	for _, wp := range seg.waypoints {
		route.RoutePoints = append(route.RoutePoints, newRoutePoint(wp))
	}
	w.gpx.Routes = append(w.gpx.Routes, route)

	for _, wp := range seg.Mission() {
		if w.hasWaypoint(wp.ID) {
			continue
		}
		w.gpx.Waypoints = append(w.gpx.Waypoints, newRoutePoint(wp))
	}
}

func (w *GPXWriter) hasWaypoint(id int64) bool {
	name := strconv.FormatInt(id, 10)
	for _, p := range w.gpx.Waypoints {
		if p.Name == name {
			return true
		}
	}
	return false
}

// WriteToFile writes the current GPX data to the file
func (w *GPXWriter) WriteToFile() error {
	_, err := w.file.Seek(0, 0)
	if err != nil {
		return fmt.Errorf("failed to seek to beginning of file: %w", err)
	}

	err = w.file.Truncate(0)
	if err != nil {
		return fmt.Errorf("failed to truncate file: %w", err)
	}

	_, err = w.file.WriteString(xml.Header)
	if err != nil {
		return fmt.Errorf("failed to write XML header: %w", err)
	}

	encoder := xml.NewEncoder(w.file)
	encoder.Indent("", "  ")
	err = encoder.Encode(w.gpx)
	if err != nil {
		return fmt.Errorf("failed to encode GPX data: %w", err)
	}

	err = w.file.Sync()
	if err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	return nil
}

// Close writes any pending data and closes the GPX file
func (w *GPXWriter) Close() error {
	if w.file != nil {
		err := w.WriteToFile()
		if err != nil {
			w.file.Close()
			w.file = nil
			return err
		}
		err = w.file.Close()
		w.file = nil
		return err
	}
	return nil
}

// GetRoutePointCount returns the number of route points currently stored
func (w *GPXWriter) GetRoutePointCount() int {
	count := 0
	for _, route := range w.gpx.Routes {
		count += len(route.RoutePoints)
	}
	return count
}

// GetWaypointCount returns the number of standalone waypoints currently stored
func (w *GPXWriter) GetWaypointCount() int {
	return len(w.gpx.Waypoints)
}

// ReadGPXFile reads a mission command from a GPX file. The <wpt> elements
// are used when present, otherwise the points of the first route. Point
// names are waypoint ids (position+1 when empty). A missing <next>
// extension links a point to the following one; the last point is linked
// to itself.
func ReadGPXFile(filename string) (MissionCommand, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open GPX file %s: %w", filename, err)
	}
	defer file.Close()

	var gpx GPX
	decoder := xml.NewDecoder(file)
	err = decoder.Decode(&gpx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPX file %s: %w", filename, err)
	}

	points := gpx.Waypoints
	if len(points) == 0 && len(gpx.Routes) > 0 {
		points = gpx.Routes[0].RoutePoints
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no waypoints found in GPX file %s: %w", filename, ErrEmptyMissionCommand)
	}

	mission, err := missionFromPoints(points)
	if err != nil {
		return nil, fmt.Errorf("GPX file %s: %w", filename, err)
	}
	return mission, nil
}

func missionFromPoints(points []RoutePoint) (MissionCommand, error) {
	mission := make(MissionCommand, len(points))
	for i, rp := range points {
		id := int64(i + 1)
		if name := strings.TrimSpace(rp.Name); name != "" {
			var err error
			id, err = strconv.ParseInt(name, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("point %d: invalid waypoint id %q", i, rp.Name)
			}
		}
		mission[i] = Waypoint{
			Position: Position{
				Latitude:  rp.Lat,
				Longitude: rp.Lon,
				Altitude:  rp.Elevation,
			},
			ID: id,
		}
	}

	// Resolve successors once every id is known
	for i, rp := range points {
		if rp.Extensions != nil && strings.TrimSpace(rp.Extensions.Next) != "" {
			next, err := strconv.ParseInt(strings.TrimSpace(rp.Extensions.Next), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("point %d: invalid next waypoint id %q", i, rp.Extensions.Next)
			}
			mission[i].NextID = next
		} else if i < len(points)-1 {
			mission[i].NextID = mission[i+1].ID
		} else {
			mission[i].NextID = mission[i].ID
		}
	}

	return mission, nil
}
