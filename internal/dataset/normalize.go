// Package dataset converts raw tabular input into the canonical
// two-column time series consumed by the rest of the pipeline.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"quantplane/internal/dedup"
	"quantplane/internal/store"
)

// Point is one row of the canonical series. Target is NaN when the
// source value was missing or unparsable.
type Point struct {
	Timestamp time.Time
	Target    float64
}

// Normalized is the output of NormalizeFile: the canonical series, its
// profile and the content checksum derived from the serialized series.
type Normalized struct {
	Points   []Point
	Profile  store.Profile
	Checksum string
}

// timestampLayouts are tried in order when parsing source timestamps.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// NormalizeFile reads the raw CSV, selects the mapped columns, parses
// and orders the series and computes profile plus checksum. Rows with
// unparsable timestamps are dropped. Rows sharing a timestamp keep the
// last occurrence in input order. The profile and checksum describe
// the canonical, deduplicated series, not the raw input.
func NormalizeFile(rawPath string, mapping store.ColumnMapping) (*Normalized, error) {
	f, err := os.Open(rawPath)
	if err != nil {
		return nil, fmt.Errorf("open raw file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	tsIdx, targetIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case mapping.Timestamp:
			tsIdx = i
		case mapping.Target:
			targetIdx = i
		}
	}
	if tsIdx < 0 || targetIdx < 0 {
		return nil, fmt.Errorf("missing columns: need timestamp=%q, target=%q", mapping.Timestamp, mapping.Target)
	}

	var points []Point
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read raw row: %w", err)
		}
		if tsIdx >= len(rec) {
			continue
		}
		ts, ok := parseTimestamp(rec[tsIdx])
		if !ok {
			continue
		}
		target := math.NaN()
		if targetIdx < len(rec) {
			if v, err := strconv.ParseFloat(strings.TrimSpace(rec[targetIdx]), 64); err == nil {
				target = v
			}
		}
		points = append(points, Point{Timestamp: ts, Target: target})
	}

	before := len(points)

	// Stable sort preserves input order among equal timestamps so that
	// keep-last dedup sees later input rows last.
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	deduped := points[:0:0]
	for _, p := range points {
		if n := len(deduped); n > 0 && deduped[n-1].Timestamp.Equal(p.Timestamp) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}

	missing := 0
	for _, p := range deduped {
		if math.IsNaN(p.Target) {
			missing++
		}
	}
	missingRate := 0.0
	if len(deduped) > 0 {
		missingRate = float64(missing) / float64(len(deduped))
	}

	profile := store.Profile{
		RowCount:    len(deduped),
		MissingRate: missingRate,
		DupRemoved:  before - len(deduped),
	}
	if len(deduped) > 0 {
		start := deduped[0].Timestamp.Format(time.RFC3339)
		end := deduped[len(deduped)-1].Timestamp.Format(time.RFC3339)
		profile.TimeRangeStart = &start
		profile.TimeRangeEnd = &end
	}

	serialized := Serialize(deduped)

	return &Normalized{
		Points:   deduped,
		Profile:  profile,
		Checksum: dedup.ChecksumBytes(serialized),
	}, nil
}

// Serialize renders the canonical series as CSV bytes. Missing targets
// serialize as empty fields. This byte form is both the processed
// artifact content and the checksum input.
func Serialize(points []Point) []byte {
	var b strings.Builder
	b.WriteString("timestamp,target\n")
	for _, p := range points {
		b.WriteString(p.Timestamp.Format(time.RFC3339))
		b.WriteByte(',')
		if !math.IsNaN(p.Target) {
			b.WriteString(strconv.FormatFloat(p.Target, 'g', -1, 64))
		}
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// ParseProcessed reads back a processed.csv artifact. Rows with empty
// targets are returned with NaN targets.
func ParseProcessed(content []byte) ([]Point, error) {
	r := csv.NewReader(strings.NewReader(string(content)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read processed header: %w", err)
	}
	if len(header) < 2 || header[0] != "timestamp" || header[1] != "target" {
		return nil, fmt.Errorf("processed artifact missing timestamp/target columns")
	}

	var points []Point
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read processed row: %w", err)
		}
		if len(rec) < 1 {
			continue
		}
		ts, ok := parseTimestamp(rec[0])
		if !ok {
			return nil, fmt.Errorf("processed artifact has bad timestamp %q", rec[0])
		}
		target := math.NaN()
		if len(rec) > 1 && strings.TrimSpace(rec[1]) != "" {
			v, err := strconv.ParseFloat(rec[1], 64)
			if err != nil {
				return nil, fmt.Errorf("processed artifact has bad target %q", rec[1])
			}
			target = v
		}
		points = append(points, Point{Timestamp: ts, Target: target})
	}
	return points, nil
}

// LastValue returns the last non-missing target in the series, used as
// the reference price for signal generation.
func LastValue(points []Point) (float64, error) {
	for i := len(points) - 1; i >= 0; i-- {
		if !math.IsNaN(points[i].Target) {
			return points[i].Target, nil
		}
	}
	return 0, fmt.Errorf("series has no observed target values")
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
