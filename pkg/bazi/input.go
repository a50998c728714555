package bazi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrissnell/bazi/pkg/sexagenary"
	"github.com/chrissnell/bazi/pkg/solartime"
)

// ErrInvalidInput is returned for a malformed birth request
var ErrInvalidInput = errors.New("invalid birth input")

// Zone offsets run from UTC-12:00 to UTC+14:00
const (
	minOffsetMinutes = -12 * 60
	maxOffsetMinutes = 14 * 60
)

// BirthInput is a civil birth moment and the correction policy to apply
type BirthInput struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int

	// TimezoneOffsetMinutes is the civil zone offset east of UTC
	TimezoneOffsetMinutes int
	// Longitude in degrees east, required for LMT and TST
	Longitude *float64

	SolarTimeMode solartime.Mode
	ZiHourMode    sexagenary.ZiHourMode
}

// ParseBirthInput builds an input from the string forms used on the wire:
// a YYYY-MM-DD date, an HH:MM time and mode names
func ParseBirthInput(date, clock string, tzOffsetMinutes int, longitude *float64, solarMode, ziMode string) (BirthInput, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return BirthInput{}, fmt.Errorf("%w: birth date %q: want YYYY-MM-DD", ErrInvalidInput, date)
	}
	c, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return BirthInput{}, fmt.Errorf("%w: birth time %q: want HH:MM", ErrInvalidInput, clock)
	}
	sm, err := solartime.ParseMode(solarMode)
	if err != nil {
		return BirthInput{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	zm, err := sexagenary.ParseZiHourMode(ziMode)
	if err != nil {
		return BirthInput{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	in := BirthInput{
		Year:                  d.Year(),
		Month:                 d.Month(),
		Day:                   d.Day(),
		Hour:                  c.Hour(),
		Minute:                c.Minute(),
		TimezoneOffsetMinutes: tzOffsetMinutes,
		Longitude:             longitude,
		SolarTimeMode:         sm,
		ZiHourMode:            zm,
	}
	return in, in.Validate()
}

// Validate checks field ranges. The year range is left to the solar term
// table, which reports it as out of range rather than invalid.
func (b BirthInput) Validate() error {
	if b.Month < time.January || b.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidInput, int(b.Month))
	}
	if b.Day < 1 || b.Day > daysIn(b.Year, b.Month) {
		return fmt.Errorf("%w: day %d of %04d-%02d", ErrInvalidInput, b.Day, b.Year, int(b.Month))
	}
	if b.Hour < 0 || b.Hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrInvalidInput, b.Hour)
	}
	if b.Minute < 0 || b.Minute > 59 {
		return fmt.Errorf("%w: minute %d", ErrInvalidInput, b.Minute)
	}
	if b.TimezoneOffsetMinutes < minOffsetMinutes || b.TimezoneOffsetMinutes > maxOffsetMinutes {
		return fmt.Errorf("%w: timezone offset %d minutes", ErrInvalidInput, b.TimezoneOffsetMinutes)
	}
	if b.Longitude != nil && (*b.Longitude < -180 || *b.Longitude > 180) {
		return fmt.Errorf("%w: longitude %g", ErrInvalidInput, *b.Longitude)
	}
	return nil
}

// Civil returns the wall-clock part of the input
func (b BirthInput) Civil() solartime.Civil {
	return solartime.Civil{Year: b.Year, Month: b.Month, Day: b.Day, Hour: b.Hour, Minute: b.Minute}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Request is one chart calculation. ExternalID, Name and Gender are echoed
// back unchanged for the caller's collaborators.
type Request struct {
	ExternalID string
	Name       string
	Gender     string
	Birth      BirthInput
	RuleSet    string
}
