package job

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownFrequencyType = errors.New("unknown frequency type")
	ErrUnknownSymbol        = errors.New("unknown symbol")
)

// Step actions for @on_success_action / @on_fail_action.
const (
	QuitWithSuccess = 1
	QuitWithFailure = 2
	GoToNextStep    = 3
	GoToStep        = 4
)

var stepActions = map[string]int64{
	"quit_with_success": QuitWithSuccess,
	"quit_with_failure": QuitWithFailure,
	"go_to_next_step":   GoToNextStep,
	"go_to_step":        GoToStep,
}

// Schedule frequency types for @freq_type.
const (
	FreqOnce            = 1
	FreqDaily           = 4
	FreqWeekly          = 8
	FreqMonthly         = 16
	FreqMonthlyRelative = 32
	FreqOnAgentStart    = 64
	FreqIdle            = 128
)

var frequencyTypes = map[string]int64{
	"once":             FreqOnce,
	"daily":            FreqDaily,
	"weekly":           FreqWeekly,
	"monthly":          FreqMonthly,
	"monthly_relative": FreqMonthlyRelative,
	"on_agent_start":   FreqOnAgentStart,
	"idle":             FreqIdle,
}

// Day-of-week bits for @freq_interval on weekly schedules.
var frequencyIntervals = map[string]int64{
	"sunday":    1,
	"monday":    2,
	"tuesday":   4,
	"wednesday": 8,
	"thursday":  16,
	"friday":    32,
	"saturday":  64,
}

// symbolText returns the bare text of a string value.
func symbolText(v Value) (string, bool) {
	s, ok := v.(String)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(string(s)), true
}

// numeric converts all-digit strings to Int and leaves anything else alone.
func numeric(v Value) Value {
	if s, ok := symbolText(v); ok {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(n)
		}
	}
	return v
}

// translate maps a symbolic value through table. Unknown symbols pass
// through unchanged unless strict is set, so codes the table does not
// name yet can still be written as numbers or raw literals.
func translate(table map[string]int64, strict bool) func(Value) (Value, error) {
	return func(v Value) (Value, error) {
		v = numeric(v)
		s, ok := symbolText(v)
		if !ok {
			return v, nil
		}
		if code, found := table[strings.ToLower(s)]; found {
			return Int(code), nil
		}
		if strict {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, s)
		}
		return v, nil
	}
}

// frequencyType requires a known symbol or one of the known codes.
func frequencyType(v Value) (Value, error) {
	v = numeric(v)
	switch t := v.(type) {
	case Int:
		for _, code := range frequencyTypes {
			if int64(t) == code {
				return t, nil
			}
		}
		return nil, fmt.Errorf("%w: %d", ErrUnknownFrequencyType, int64(t))
	case String:
		if code, ok := frequencyTypes[strings.ToLower(strings.TrimSpace(string(t)))]; ok {
			return Int(code), nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrequencyType, string(t))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFrequencyType, v.SQL())
	}
}

// numericParam converts digit strings so @active_start_time = '0700' renders as 700.
func numericParam(v Value) (Value, error) {
	return numeric(v), nil
}
