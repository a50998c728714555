package bazi

import (
	"encoding/json"
	"fmt"
)

// Step is one entry of a calculation log
type Step struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// CalculationLog is the ordered, append-only trace of one calculation
type CalculationLog struct {
	steps []Step
}

func (l *CalculationLog) add(stage, format string, args ...interface{}) {
	l.steps = append(l.steps, Step{Stage: stage, Message: fmt.Sprintf(format, args...)})
}

// Steps returns a copy of the recorded steps
func (l CalculationLog) Steps() []Step {
	out := make([]Step, len(l.steps))
	copy(out, l.steps)
	return out
}

// Len returns the number of steps
func (l CalculationLog) Len() int { return len(l.steps) }

func (l CalculationLog) MarshalJSON() ([]byte, error) {
	if l.steps == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.steps)
}

func (l *CalculationLog) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &l.steps)
}
