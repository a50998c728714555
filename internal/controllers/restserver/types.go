package restserver

import (
	"encoding/json"
	"time"

	"github.com/chrissnell/bazi/pkg/bazi"
	"github.com/chrissnell/bazi/pkg/solarterm"
)

// ChartRequest is the wire form of one calculation request
type ChartRequest struct {
	ExternalID            string   `json:"externalId,omitempty"`
	Name                  string   `json:"name,omitempty"`
	Gender                string   `json:"gender,omitempty"`
	BirthDate             string   `json:"birthDate"`
	BirthTime             string   `json:"birthTime"`
	TimezoneOffsetMinutes int      `json:"timezoneOffsetMinutes"`
	Longitude             *float64 `json:"longitude,omitempty"`
	SolarTimeMode         string   `json:"solarTimeMode,omitempty"`
	ZiHourMode            string   `json:"ziHourMode,omitempty"`
	RuleSet               string   `json:"ruleSet,omitempty"`
	// Persist stores the chart and returns its id
	Persist bool `json:"persist,omitempty"`
}

func (c ChartRequest) toRequest() (bazi.Request, error) {
	in, err := bazi.ParseBirthInput(c.BirthDate, c.BirthTime, c.TimezoneOffsetMinutes, c.Longitude, c.SolarTimeMode, c.ZiHourMode)
	if err != nil {
		return bazi.Request{}, err
	}
	return bazi.Request{
		ExternalID: c.ExternalID,
		Name:       c.Name,
		Gender:     c.Gender,
		Birth:      in,
		RuleSet:    c.RuleSet,
	}, nil
}

// BatchItem is one entry of a batch response
type BatchItem struct {
	ID    string          `json:"id,omitempty"`
	Chart json.RawMessage `json:"chart"`
}

// SolarTermView is one term instant of a year
type SolarTermView struct {
	Index         int       `json:"index"`
	Name          string    `json:"name"`
	English       string    `json:"english"`
	Longitude     float64   `json:"longitude"`
	MonthBoundary bool      `json:"monthBoundary"`
	At            time.Time `json:"at"`
}

// SolarTermsResponse lists a year's terms and the source that produced them
type SolarTermsResponse struct {
	Year   int             `json:"year"`
	Source solarterm.Tier  `json:"source"`
	Terms  []SolarTermView `json:"terms"`
}

// RuleView summarizes one shensha rule
type RuleView struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	English  string   `json:"english,omitempty"`
	Category string   `json:"category"`
	Kind     string   `json:"kind"`
	Excludes []string `json:"excludes,omitempty"`
}

// RuleSetView summarizes a loaded rule set
type RuleSetView struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Default     bool       `json:"default,omitempty"`
	Rules       []RuleView `json:"rules"`
}
