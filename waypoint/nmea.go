package waypoint

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// maxSentenceLength is the NMEA 0183 limit including '$' and CRLF
const maxSentenceLength = 82

// MaxRouteNameLength is the longest route name for which an RTE sentence
// with five-digit counters and a single int64 id stays within the NMEA limit
const MaxRouteNameLength = 32

// calculateChecksum calculates the NMEA checksum for a sentence
func calculateChecksum(sentence string) string {
	var checksum byte
	for i := 1; i < len(sentence); i++ { // Skip the '$' character
		checksum ^= sentence[i]
	}
	return fmt.Sprintf("%02X", checksum)
}

// formatNMEA formats a complete NMEA sentence with checksum
func formatNMEA(sentence string) string {
	checksum := calculateChecksum(sentence)
	return fmt.Sprintf("%s*%s\r\n", sentence, checksum)
}

// formatLatitude converts decimal degrees to NMEA DDMM.MMMM and hemisphere
func formatLatitude(lat float64) (string, string) {
	deg := int(math.Abs(lat))
	mins := (math.Abs(lat) - float64(deg)) * 60
	hem := "N"
	if lat < 0 {
		hem = "S"
	}
	return fmt.Sprintf("%02d%07.4f", deg, mins), hem
}

// formatLongitude converts decimal degrees to NMEA DDDMM.MMMM and hemisphere
func formatLongitude(lon float64) (string, string) {
	deg := int(math.Abs(lon))
	mins := (math.Abs(lon) - float64(deg)) * 60
	hem := "E"
	if lon < 0 {
		hem = "W"
	}
	return fmt.Sprintf("%03d%07.4f", deg, mins), hem
}

// generateWPL generates a WPL (Waypoint Location) sentence
func generateWPL(wp Waypoint) string {
	lat, latHem := formatLatitude(wp.Latitude)
	lon, lonHem := formatLongitude(wp.Longitude)

	sentence := fmt.Sprintf("$GPWPL,%s,%s,%s,%s,%d", lat, latHem, lon, lonHem, wp.ID)
	return formatNMEA(sentence)
}

// generateRTE generates RTE (Routes) sentences listing ids in order. The ids
// are split across as many sentences as needed to respect the NMEA length
// limit.
func generateRTE(route string, ids []int64) []string {
	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = strconv.FormatInt(id, 10)
	}

	// The sentence counters are part of every header, so grow their
	// reserved width until the chunking agrees with it
	for digits := 1; ; digits++ {
		chunks := chunkRouteFields(route, fields, digits)
		if len(strconv.Itoa(len(chunks))) > digits {
			continue
		}

		sentences := make([]string, len(chunks))
		for i, chunk := range chunks {
			sentence := fmt.Sprintf("$GPRTE,%d,%d,c,%s,%s",
				len(chunks), i+1, route, strings.Join(chunk, ","))
			sentences[i] = formatNMEA(sentence)
		}
		return sentences
	}
}

// chunkRouteFields packs waypoint fields into RTE sentences. A field that
// cannot fit alongside any other gets a sentence of its own.
func chunkRouteFields(route string, fields []string, digits int) [][]string {
	header := len("$GPRTE,") + digits + len(",") + digits + len(",c,") + len(route)
	limit := maxSentenceLength - len("*HH\r\n")

	var chunks [][]string
	var chunk []string
	size := header
	for _, f := range fields {
		if len(chunk) > 0 && size+1+len(f) > limit {
			chunks = append(chunks, chunk)
			chunk = nil
			size = header
		}
		chunk = append(chunk, f)
		size += 1 + len(f)
	}
	if len(chunk) > 0 {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// SegmentSentences renders a segment as one WPL sentence per distinct
// waypoint, in order of first appearance, followed by the RTE sentences
// listing every window slot
func SegmentSentences(seg Segment, route string) []string {
	var sentences []string

	seen := make(map[int64]struct{}, seg.Len())
	for _, wp := range seg.waypoints {
		if _, ok := seen[wp.ID]; ok {
			continue
		}
		seen[wp.ID] = struct{}{}
		sentences = append(sentences, generateWPL(wp))
	}

	sentences = append(sentences, generateRTE(route, seg.IDs())...)
	return sentences
}

// WriteNMEA writes the sentences for a segment to w
func WriteNMEA(w io.Writer, seg Segment, route string) error {
	if len(route) > MaxRouteNameLength {
		return ErrRouteNameTooLong
	}
	for _, sentence := range SegmentSentences(seg, route) {
		if _, err := io.WriteString(w, sentence); err != nil {
			return fmt.Errorf("failed to write NMEA sentence: %w", err)
		}
	}
	return nil
}
