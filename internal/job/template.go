package job

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Recurrence choices offered by the job template.
const (
	RecurrenceDaily  = "daily"
	RecurrenceWeekly = "weekly"
)

type templateStep struct {
	StepName     string `yaml:"step_name"`
	Command      string `yaml:"command"`
	DatabaseName string `yaml:"database_name,omitempty"`
}

type templateSchedule struct {
	Name                 string `yaml:"name"`
	FreqType             string `yaml:"freq_type"`
	FreqInterval         any    `yaml:"freq_interval"`
	FreqRecurrenceFactor int    `yaml:"freq_recurrence_factor"`
	ActiveStartDate      string `yaml:"active_start_date"`
	ActiveStartTime      string `yaml:"active_start_time"`
}

type templateJob struct {
	Steps     []templateStep     `yaml:"steps"`
	Schedules []templateSchedule `yaml:"schedules"`
	Alerts    []map[string]any   `yaml:"alerts"`
	Servers   []map[string]any   `yaml:"servers"`
}

// Template renders a starter job definition with one step and one schedule.
func Template(name, recurrence, database string, today time.Time) ([]byte, error) {
	sched := templateSchedule{
		Name:            recurrence,
		ActiveStartDate: today.Format("2006-01-02"),
		ActiveStartTime: "070000",
	}
	switch recurrence {
	case "", RecurrenceDaily:
		sched.Name = RecurrenceDaily
		sched.FreqType = "daily"
		sched.FreqInterval = 1
	case RecurrenceWeekly:
		sched.FreqType = "weekly"
		sched.FreqInterval = "monday"
		sched.FreqRecurrenceFactor = 1
	default:
		return nil, fmt.Errorf("unsupported recurrence %q (want %s or %s)", recurrence, RecurrenceDaily, RecurrenceWeekly)
	}

	doc := map[string]templateJob{
		name: {
			Steps: []templateStep{{
				StepName:     name + "_step_1",
				Command:      "SELECT 1;",
				DatabaseName: database,
			}},
			Schedules: []templateSchedule{sched},
			Alerts:    []map[string]any{},
			Servers:   []map[string]any{},
		},
	}
	return yaml.Marshal(doc)
}

// WriteTemplate writes the template to jobs/<name>.yml below root and
// returns the path. An existing file is never overwritten.
func WriteTemplate(root, name, recurrence, database string, today time.Time) (string, error) {
	data, err := Template(name, recurrence, database, today)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, "jobs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name+".yml")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create job file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
