package table

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
)

// ============================================================================
// ROUTE MAPPERS - EDGE GEOMETRY, TIMESTAMPS AND SPEED
// ============================================================================

// earthRadiusKm is the sphere radius the haversine distance uses
const earthRadiusKm = 6371

// LengthMapper writes the great-circle length of an edge between two
// [lon, lat] coordinate pairs, in kilometres
type LengthMapper struct {
	StartColumn  string
	EndColumn    string
	LengthColumn string
}

// ProcessLength creates a haversine length mapper
func ProcessLength(start, end, length string) *LengthMapper {
	return &LengthMapper{StartColumn: start, EndColumn: end, LengthColumn: length}
}

func (m *LengthMapper) Apply(row Row) ([]Row, error) {
	lon1, lat1, err := coordAt(row, m.StartColumn)
	if err != nil {
		return nil, err
	}
	lon2, lat2, err := coordAt(row, m.EndColumn)
	if err != nil {
		return nil, err
	}
	row[m.LengthColumn] = haversineKm(lon1, lat1, lon2, lat2)
	return []Row{row}, nil
}

func coordAt(row Row, field string) (lon, lat float64, err error) {
	val, ok := row[field]
	if !ok {
		return 0, 0, &FieldError{Field: field, Reason: "missing"}
	}
	pair, ok := val.([]any)
	if !ok || len(pair) != 2 {
		return 0, 0, &FieldError{Field: field, Reason: "not a [lon, lat] pair"}
	}
	if lon, err = cast.ToFloat64E(pair[0]); err != nil {
		return 0, 0, &FieldError{Field: field, Reason: "longitude not numeric"}
	}
	if lat, err = cast.ToFloat64E(pair[1]); err != nil {
		return 0, 0, &FieldError{Field: field, Reason: "latitude not numeric"}
	}
	return lon, lat, nil
}

func haversineKm(lon1, lat1, lon2, lat2 float64) float64 {
	l1 := lon1 * math.Pi / 180
	l2 := lon2 * math.Pi / 180
	f1 := lat1 * math.Pi / 180
	f2 := lat2 * math.Pi / 180
	sinLat := math.Sin((f2 - f1) / 2)
	sinLon := math.Sin((l2 - l1) / 2)
	h := sinLat*sinLat + math.Cos(f1)*math.Cos(f2)*sinLon*sinLon
	return earthRadiusKm * 2 * math.Asin(math.Sqrt(h))
}

// timestampLayouts are probed in order, mirroring the layouts the example
// data actually carries. The compact form is first: YYYYMMDDThhmmss.ffffff.
var timestampLayouts = []string{
	"20060102T150405.000000",
	"20060102T150405",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000000",
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// TimeMapper derives the weekday, hour and duration of an edge traversal
// from its enter and leave timestamps
type TimeMapper struct {
	EnterColumn   string
	LeaveColumn   string
	TimeColumn    string
	WeekdayColumn string
	HourColumn    string
}

// ProcessTime creates a traversal time mapper. The weekday and hour come
// from the enter timestamp; the duration is leave minus enter in seconds.
func ProcessTime(enter, leave, duration, weekday, hour string) *TimeMapper {
	return &TimeMapper{
		EnterColumn:   enter,
		LeaveColumn:   leave,
		TimeColumn:    duration,
		WeekdayColumn: weekday,
		HourColumn:    hour,
	}
}

func (m *TimeMapper) Apply(row Row) ([]Row, error) {
	enterStr, err := row.String(m.EnterColumn)
	if err != nil {
		return nil, err
	}
	leaveStr, err := row.String(m.LeaveColumn)
	if err != nil {
		return nil, err
	}
	enter, err := parseTimestamp(enterStr)
	if err != nil {
		return nil, &FieldError{Field: m.EnterColumn, Reason: err.Error()}
	}
	leave, err := parseTimestamp(leaveStr)
	if err != nil {
		return nil, &FieldError{Field: m.LeaveColumn, Reason: err.Error()}
	}
	row[m.WeekdayColumn] = enter.Format("Mon")
	row[m.HourColumn] = enter.Hour()
	row[m.TimeColumn] = leave.Sub(enter).Seconds()
	return []Row{row}, nil
}

// SpeedMapper derives speed in km/h from a length in kilometres and a
// duration in seconds
type SpeedMapper struct {
	LengthColumn string
	TimeColumn   string
	SpeedColumn  string
}

// ProcessSpeed creates a speed mapper
func ProcessSpeed(length, duration, speed string) *SpeedMapper {
	return &SpeedMapper{LengthColumn: length, TimeColumn: duration, SpeedColumn: speed}
}

func (m *SpeedMapper) Apply(row Row) ([]Row, error) {
	length, err := row.Float(m.LengthColumn)
	if err != nil {
		return nil, err
	}
	seconds, err := row.Float(m.TimeColumn)
	if err != nil {
		return nil, err
	}
	row[m.SpeedColumn] = length / seconds * 3600
	return []Row{row}, nil
}
