package waypoint

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const testRouteGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <rte>
    <name>Harbor loop</name>
    <rtept lat="37.8080" lon="-122.4177"><ele>10.0</ele><name>10</name></rtept>
    <rtept lat="37.8199" lon="-122.4783"><ele>67.0</ele><name>20</name></rtept>
    <rtept lat="37.8270" lon="-122.4230"><ele>40.0</ele><name>30</name></rtept>
  </rte>
</gpx>`

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestNewGPXWriter(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "segment.gpx")

	writer, err := NewGPXWriter(tempFile)
	if err != nil {
		t.Fatalf("Failed to create GPX writer: %v", err)
	}
	defer writer.Close()

	if writer.filename != tempFile {
		t.Errorf("Expected filename %s, got %s", tempFile, writer.filename)
	}
	if writer.gpx.Version != "1.1" {
		t.Errorf("Expected GPX version 1.1, got %s", writer.gpx.Version)
	}
	if writer.gpx.Creator != "go-waypoint-manager" {
		t.Errorf("Expected creator 'go-waypoint-manager', got %s", writer.gpx.Creator)
	}
	if writer.GetRoutePointCount() != 0 {
		t.Errorf("Expected no route points, got %d", writer.GetRoutePointCount())
	}
}

func TestNewGPXWriterInvalidPath(t *testing.T) {
	_, err := NewGPXWriter("/invalid/path/segment.gpx")
	if err == nil {
		t.Error("Expected error for invalid file path, got nil")
	}
}

func TestGPXWriterRoundTrip(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "segment.gpx")

	seg, err := ExtractSegment(createTestMission(), 2, 4)
	if err != nil {
		t.Fatalf("Failed to extract segment: %v", err)
	}

	writer, err := NewGPXWriter(tempFile)
	if err != nil {
		t.Fatalf("Failed to create GPX writer: %v", err)
	}
	writer.AddSegment("SEG", seg)

	if writer.GetRoutePointCount() != 4 {
		t.Errorf("Expected 4 route points, got %d", writer.GetRoutePointCount())
	}
	if writer.GetWaypointCount() != 3 {
		t.Errorf("Expected 3 waypoints, got %d", writer.GetWaypointCount())
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close GPX writer: %v", err)
	}

	content, err := os.ReadFile(tempFile)
	if err != nil {
		t.Fatalf("Failed to read GPX file: %v", err)
	}
	contentStr := string(content)
	if !strings.HasPrefix(contentStr, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>") {
		t.Error("GPX file should start with XML declaration")
	}
	for _, want := range []string{"<wpt ", "<rte>", "<name>SEG</name>", "<next>2</next>", `lat="37.7849"`} {
		if !strings.Contains(contentStr, want) {
			t.Errorf("GPX file should contain %s", want)
		}
	}
	if strings.Index(contentStr, "<wpt ") > strings.Index(contentStr, "<rte>") {
		t.Error("Waypoints should be written before routes")
	}

	// The written file reloads as the segment's own mission command
	mission, err := ReadGPXFile(tempFile)
	if err != nil {
		t.Fatalf("Failed to read GPX file back: %v", err)
	}
	if !reflect.DeepEqual(mission, seg.Mission()) {
		t.Errorf("Expected reloaded mission %+v, got %+v", seg.Mission(), mission)
	}
}

func TestGPXWriterUnrolledSegmentReloadsAsMission(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "unrolled.gpx")

	seg, err := ExtractSegment(createTestMission(), 1, 5)
	if err != nil {
		t.Fatalf("Failed to extract segment: %v", err)
	}

	writer, err := NewGPXWriter(tempFile)
	if err != nil {
		t.Fatalf("Failed to create GPX writer: %v", err)
	}
	writer.AddSegment("SEG", seg)
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close GPX writer: %v", err)
	}

	mission, err := LoadMissionFile(tempFile)
	if err != nil {
		t.Fatalf("Failed to load GPX mission: %v", err)
	}
	if err := mission.Validate(); err != nil {
		t.Fatalf("Reloaded mission should validate: %v", err)
	}

	again, err := ExtractSegment(mission, 1, 5)
	if err != nil {
		t.Fatalf("Failed to extract from reloaded mission: %v", err)
	}
	if want := []int64{1, 2, 3, 1, 2}; !reflect.DeepEqual(again.IDs(), want) {
		t.Errorf("Expected ids %v, got %v", want, again.IDs())
	}
	if !reflect.DeepEqual(again.Waypoints(), seg.Waypoints()) {
		t.Errorf("Expected reloaded segment %+v, got %+v", seg.Waypoints(), again.Waypoints())
	}
}

func TestGPXWriterSharedWaypointsAcrossSegments(t *testing.T) {
	writer, err := NewGPXWriter(filepath.Join(t.TempDir(), "multi.gpx"))
	if err != nil {
		t.Fatalf("Failed to create GPX writer: %v", err)
	}
	defer writer.Close()

	first, err := ExtractSegment(createTestMission(), 1, 2)
	if err != nil {
		t.Fatalf("Failed to extract segment: %v", err)
	}
	second, err := ExtractSegment(createTestMission(), 2, 2)
	if err != nil {
		t.Fatalf("Failed to extract segment: %v", err)
	}
	writer.AddSegment("A", first)
	writer.AddSegment("B", second)

	if writer.GetWaypointCount() != 3 {
		t.Errorf("Expected 3 distinct waypoints, got %d", writer.GetWaypointCount())
	}
	if writer.GetRoutePointCount() != 4 {
		t.Errorf("Expected 4 route points, got %d", writer.GetRoutePointCount())
	}
}

func TestGPXWriterCloseTwice(t *testing.T) {
	writer, err := NewGPXWriter(filepath.Join(t.TempDir(), "close.gpx"))
	if err != nil {
		t.Fatalf("Failed to create GPX writer: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}
}

func TestReadGPXFileDefaults(t *testing.T) {
	path := writeTestFile(t, "route.gpx", testRouteGPX)

	mission, err := ReadGPXFile(path)
	if err != nil {
		t.Fatalf("Failed to read GPX file: %v", err)
	}

	want := []struct{ id, next int64 }{{10, 20}, {20, 30}, {30, 30}}
	if len(mission) != len(want) {
		t.Fatalf("Expected %d waypoints, got %d", len(want), len(mission))
	}
	for i, w := range want {
		if mission[i].ID != w.id || mission[i].NextID != w.next {
			t.Errorf("Waypoint %d: expected {id:%d next:%d}, got {id:%d next:%d}",
				i, w.id, w.next, mission[i].ID, mission[i].NextID)
		}
	}
	if mission[1].Altitude != 67.0 || mission[1].Latitude != 37.8199 {
		t.Errorf("Unexpected position for waypoint 20: %+v", mission[1].Position)
	}
	if err := mission.Validate(); err != nil {
		t.Errorf("Mission read from a plain route should validate: %v", err)
	}
}

func TestReadGPXFileExtensionsAndUnnamedPoints(t *testing.T) {
	content := `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <rte>
    <rtept lat="1.0" lon="2.0"><ele>0</ele></rtept>
    <rtept lat="1.1" lon="2.1"><ele>0</ele></rtept>
    <rtept lat="1.2" lon="2.2"><ele>0</ele><extensions><next>1</next></extensions></rtept>
  </rte>
</gpx>`
	path := writeTestFile(t, "unnamed.gpx", content)

	mission, err := ReadGPXFile(path)
	if err != nil {
		t.Fatalf("Failed to read GPX file: %v", err)
	}

	seg, err := ExtractSegment(mission, 1, 5)
	if err != nil {
		t.Fatalf("Failed to extract segment: %v", err)
	}
	if want := []int64{1, 2, 3, 1, 2}; !reflect.DeepEqual(seg.IDs(), want) {
		t.Errorf("Expected ids %v, got %v", want, seg.IDs())
	}
}

func TestReadGPXFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "Not XML", content: "this is not xml"},
		{name: "No routes", content: `<gpx version="1.1"><trk><name>t</name></trk></gpx>`},
		{name: "Empty route", content: `<gpx version="1.1"><rte><name>r</name></rte></gpx>`},
		{name: "Bad id", content: `<gpx><rte><rtept lat="1" lon="1"><name>ALPHA</name></rtept></rte></gpx>`},
		{name: "Bad next", content: `<gpx><rte><rtept lat="1" lon="1"><extensions><next>x</next></extensions></rtept></rte></gpx>`},
		{name: "Bad waypoint id", content: `<gpx><wpt lat="1" lon="1"><name>ALPHA</name></wpt></gpx>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestFile(t, "bad.gpx", tt.content)
			if _, err := ReadGPXFile(path); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}

	if _, err := ReadGPXFile(filepath.Join(t.TempDir(), "missing.gpx")); err == nil {
		t.Error("Expected error for missing file")
	}
}
