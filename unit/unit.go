// Package unit maps distance and time unit tags to scale factors.
//
// The reference units are the inch and the microsecond: every sample the
// driver accumulates is held in those units and scaled on the way out.
package unit

import (
	"errors"
	"strings"
)

// ErrUnknownUnit is returned when a unit name cannot be parsed.
var ErrUnknownUnit = errors.New("unit: unknown unit")

// Distance identifies a length unit
type Distance uint8

const (
	Nanometer Distance = iota
	Micrometer
	Millimeter
	Centimeter
	Meter
	Kilometer
	Thou
	Inch
	Foot
	Yard
	Mile
	distanceCount
)

// Time identifies a duration unit
type Time uint8

const (
	Nanosecond Time = iota
	Microsecond
	Millisecond
	Second
	Minute
	Hour
	timeCount
)

// Spec pairs a distance unit with a time unit.
type Spec struct {
	Distance Distance
	Time     Time
}

// Default is millimetres and milliseconds.
var Default = Spec{Distance: Millimeter, Time: Millisecond}

// Valid reports whether both tags are known.
func (s Spec) Valid() bool {
	return s.Distance.Valid() && s.Time.Valid()
}

func (s Spec) String() string {
	return s.Distance.String() + "/" + s.Time.String()
}

var distanceNames = [distanceCount]struct{ abbr, name string }{
	Nanometer:  {"nm", "nanometer"},
	Micrometer: {"um", "micrometer"},
	Millimeter: {"mm", "millimeter"},
	Centimeter: {"cm", "centimeter"},
	Meter:      {"m", "meter"},
	Kilometer:  {"km", "kilometer"},
	Thou:       {"th", "thou"},
	Inch:       {"in", "inch"},
	Foot:       {"ft", "foot"},
	Yard:       {"yd", "yard"},
	Mile:       {"mi", "mile"},
}

var timeNames = [timeCount]struct{ abbr, name string }{
	Nanosecond:  {"ns", "nanosecond"},
	Microsecond: {"us", "microsecond"},
	Millisecond: {"ms", "millisecond"},
	Second:      {"sec", "second"},
	Minute:      {"min", "minute"},
	Hour:        {"hr", "hour"},
}

// Valid reports whether d is a known distance unit.
func (d Distance) Valid() bool { return d < distanceCount }

// Valid reports whether t is a known time unit.
func (t Time) Valid() bool { return t < timeCount }

func (d Distance) String() string {
	if !d.Valid() {
		return "?"
	}
	return distanceNames[d].abbr
}

func (t Time) String() string {
	if !t.Valid() {
		return "?"
	}
	return timeNames[t].abbr
}

// ParseDistance accepts an abbreviation or a full name, singular or plural,
// in any case ("mm", "Millimeters", "inch").
func ParseDistance(s string) (Distance, error) {
	key := normalize(s)
	for i, n := range distanceNames {
		if key == n.abbr || key == n.name {
			return Distance(i), nil
		}
	}
	switch key {
	case "feet":
		return Foot, nil
	case "inches":
		return Inch, nil
	case "mil":
		return Thou, nil
	}
	return 0, &ParseError{Kind: "distance", Input: s}
}

// ParseTime accepts an abbreviation or a full name ("ms", "seconds", "h").
func ParseTime(s string) (Time, error) {
	key := normalize(s)
	for i, n := range timeNames {
		if key == n.abbr || key == n.name {
			return Time(i), nil
		}
	}
	switch key {
	case "s":
		return Second, nil
	case "h":
		return Hour, nil
	}
	return 0, &ParseError{Kind: "time", Input: s}
}

func normalize(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "metre", "meter")
	if len(key) > 3 && strings.HasSuffix(key, "s") && key != "inches" {
		key = strings.TrimSuffix(key, "s")
	}
	return key
}

// ParseError reports a unit name that matched nothing.
type ParseError struct {
	Kind  string
	Input string
}

func (e *ParseError) Error() string {
	return "unit: unknown " + e.Kind + " unit \"" + e.Input + "\""
}

func (e *ParseError) Unwrap() error { return ErrUnknownUnit }

// PerInch returns how many d fit in one inch. Unknown tags scale by 1.
func PerInch(d Distance) float64 {
	switch d {
	case Nanometer:
		return 25400000.0
	case Micrometer:
		return 25400.0
	case Millimeter:
		return 25.4
	case Centimeter:
		return 2.54
	case Meter:
		return 0.0254
	case Kilometer:
		return 0.0000254
	case Thou:
		return 1000.0
	case Inch:
		return 1.0
	case Foot:
		return 1.0 / 12.0
	case Yard:
		return 1.0 / 36.0
	case Mile:
		return 1.0 / 63360.0
	}
	return 1.0
}

// PerSecond returns how many t fit in one second. Unknown tags scale by 1.
func PerSecond(t Time) float64 {
	switch t {
	case Nanosecond:
		return 1e9
	case Microsecond:
		return 1e6
	case Millisecond:
		return 1e3
	case Second:
		return 1.0
	case Minute:
		return 1.0 / 60.0
	case Hour:
		return 1.0 / 3600.0
	}
	return 1.0
}

// PerMicrosecond returns how many t fit in one microsecond. Unknown tags
// scale by 1.
func PerMicrosecond(t Time) float64 {
	switch t {
	case Nanosecond:
		return 1000.0
	case Microsecond:
		return 1.0
	case Millisecond:
		return 1e-3
	case Second:
		return 1e-6
	case Minute:
		return 1.0 / 6e7
	case Hour:
		return 1.0 / 3.6e9
	}
	return 1.0
}

// ToDistance converts a value in inches to d.
func ToDistance(inches float64, d Distance) float64 {
	return inches * PerInch(d)
}

// FromDistance converts a value in d to inches.
func FromDistance(v float64, d Distance) float64 {
	return v / PerInch(d)
}

// ToTime converts a value in microseconds to t.
func ToTime(micros float64, t Time) float64 {
	return micros * PerMicrosecond(t)
}

// FromTime converts a value in t to microseconds.
func FromTime(v float64, t Time) float64 {
	return v / PerMicrosecond(t)
}
