// Package solartime converts civil clock time to local mean or true solar
// time for a birth location.
package solartime

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrMissingLongitude is returned when a solar correction is requested
// without a longitude
var ErrMissingLongitude = errors.New("longitude is required for solar time correction")

// Mode selects the correction applied to the civil clock
type Mode int

const (
	// None uses the civil clock unchanged
	None Mode = iota
	// LMT is local mean time: 4 minutes per degree from the zone meridian
	LMT
	// TST is true solar time: LMT plus the equation of time
	TST
)

func (m Mode) String() string {
	switch m {
	case LMT:
		return "lmt"
	case TST:
		return "tst"
	default:
		return "none"
	}
}

// MarshalText renders the mode by name
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// ParseMode accepts none, lmt or tst in any case. The empty string is None.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "lmt", "mean", "local_mean_time":
		return LMT, nil
	case "tst", "true", "true_solar_time":
		return TST, nil
	default:
		return None, fmt.Errorf("unknown solar time mode %q", s)
	}
}

// Civil is a wall-clock birth date and time with no zone attached
type Civil struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
}

func (c Civil) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", c.Year, int(c.Month), c.Day, c.Hour, c.Minute)
}

// Result is the outcome of a correction
type Result struct {
	Mode Mode `json:"mode"`

	// Civil is the input wall clock
	Civil Civil `json:"-"`

	// Instant is the absolute moment of birth
	Instant time.Time `json:"instant"`

	// Year, Month and Day are the effective calendar date: the civil date
	// shifted by DayDelta
	Year  int        `json:"-"`
	Month time.Month `json:"-"`
	Day   int        `json:"-"`

	// SecondsOfDay is the adjusted clock, 0 <= SecondsOfDay < 86400
	SecondsOfDay int `json:"-"`

	// DayDelta is the number of days the correction moved the date
	DayDelta int `json:"dayDelta"`

	// CorrectionMinutes is the total applied offset, positive is later
	CorrectionMinutes float64 `json:"correctionMinutes"`

	// EquationOfTimeMinutes is the EoT part of the correction (TST only)
	EquationOfTimeMinutes float64 `json:"equationOfTimeMinutes,omitempty"`

	// AdjustedTime is the corrected local clock, HH:MM:SS
	AdjustedTime string `json:"adjustedTime"`

	// AdjustedDate is the effective calendar date, YYYY-MM-DD
	AdjustedDate string `json:"adjustedDate"`
}

// Hour returns the hour of the adjusted clock
func (r Result) Hour() int { return r.SecondsOfDay / 3600 }

// Minute returns the minute of the adjusted clock
func (r Result) Minute() int { return (r.SecondsOfDay % 3600) / 60 }

// Date returns the effective calendar date at midnight UTC. Only the
// Y/M/D fields are meaningful.
func (r Result) Date() time.Time {
	return time.Date(r.Year, r.Month, r.Day, 0, 0, 0, 0, time.UTC)
}

// Correct applies mode to the civil time. tzOffsetMinutes is the zone offset
// east of UTC; longitude is in degrees east and is required for LMT and TST.
func Correct(civil Civil, tzOffsetMinutes int, longitude *float64, mode Mode) (Result, error) {
	zone := time.FixedZone(zoneName(tzOffsetMinutes), tzOffsetMinutes*60)
	local := time.Date(civil.Year, civil.Month, civil.Day, civil.Hour, civil.Minute, 0, 0, zone)

	res := Result{
		Mode:    mode,
		Civil:   civil,
		Instant: local.UTC(),
	}

	var correction float64
	switch mode {
	case None:
	case LMT, TST:
		if longitude == nil {
			return Result{}, fmt.Errorf("%w (mode %s)", ErrMissingLongitude, mode)
		}
		correction = MeanTimeOffset(*longitude, tzOffsetMinutes)
		if mode == TST {
			res.EquationOfTimeMinutes = EquationOfTime(local.YearDay())
			correction += res.EquationOfTimeMinutes
		}
	default:
		return Result{}, fmt.Errorf("unknown solar time mode %d", int(mode))
	}
	res.CorrectionMinutes = correction

	// The adjusted clock is kept on an unbounded seconds-since-midnight basis
	// so a correction that crosses midnight is resolved by one floor division.
	adjusted := civil.Hour*3600 + civil.Minute*60 + int(math.Round(correction*60))
	res.DayDelta = floorDiv(adjusted, 86400)
	res.SecondsOfDay = adjusted - res.DayDelta*86400

	// AddDate on a UTC midnight normalizes month and year rollover
	date := time.Date(civil.Year, civil.Month, civil.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, res.DayDelta)
	res.Year, res.Month, res.Day = date.Date()

	res.AdjustedTime = fmt.Sprintf("%02d:%02d:%02d", res.SecondsOfDay/3600, (res.SecondsOfDay%3600)/60, res.SecondsOfDay%60)
	res.AdjustedDate = date.Format("2006-01-02")
	return res, nil
}

// MeanTimeOffset returns the local mean time offset in minutes for a
// longitude, relative to the standard meridian of the zone (15° per hour)
func MeanTimeOffset(longitude float64, tzOffsetMinutes int) float64 {
	meridian := float64(tzOffsetMinutes) / 4
	return (longitude - meridian) * 4
}

// EquationOfTime returns apparent minus mean solar time in minutes for a
// day of the year, using the common trigonometric approximation
func EquationOfTime(dayOfYear int) float64 {
	b := 2 * math.Pi / 365 * float64(dayOfYear-81)
	return 9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func zoneName(offsetMinutes int) string {
	sign := '+'
	if offsetMinutes < 0 {
		sign = '-'
		offsetMinutes = -offsetMinutes
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, offsetMinutes/60, offsetMinutes%60)
}
