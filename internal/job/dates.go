package job

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var ErrInvalidDate = errors.New("invalid date")

// dateLayout is the YYYYMMDD form msdb expects for @active_start_date.
const dateLayout = "20060102"

var knownLayouts = []string{
	dateLayout,
	"2006-1-2",
	"2006/1/2",
	"1/2/2006",
	"1/2/06",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
}

var yearPattern = regexp.MustCompile(`\b\d{4}\b`)

var naturalDates = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDate reads a free-form date. Fixed layouts are tried first; anything
// else ("tomorrow", "next monday") is parsed relative to now.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	for _, layout := range knownLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	r, err := naturalDates.Parse(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if yearIgnored(s, r.Time) {
		return time.Time{}, fmt.Errorf("%w: %q: year not understood", ErrInvalidDate, s)
	}
	return r.Time, nil
}

// yearIgnored reports whether s spells out a year and t lies in none of them.
// The natural-language rules only read day and month.
func yearIgnored(s string, t time.Time) bool {
	years := yearPattern.FindAllString(s, -1)
	if len(years) == 0 {
		return false
	}
	for _, y := range years {
		if n, err := strconv.Atoi(y); err == nil && n == t.Year() {
			return false
		}
	}
	return true
}

// startDate returns the validator for @active_start_date.
func startDate(now func() time.Time) func(Value) (Value, error) {
	return func(v Value) (Value, error) {
		var text string
		switch t := v.(type) {
		case Int:
			text = strconv.FormatInt(int64(t), 10)
		case String:
			text = string(t)
		default:
			return nil, fmt.Errorf("%w: %s", ErrInvalidDate, v.SQL())
		}
		d, err := ParseDate(text, now())
		if err != nil {
			return nil, err
		}
		n, _ := strconv.ParseInt(d.Format(dateLayout), 10, 64)
		return Int(n), nil
	}
}
