// Package job compiles job definitions into the msdb stored-procedure calls
// that create a SQL Server Agent job with its steps, schedules, alerts and
// target servers.
package job

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Compiler turns definitions into scripts. The zero value is usable.
type Compiler struct {
	// Database the job procedures live in; msdb when empty.
	Database string
	// NotifyOperator receives failure e-mails when set.
	NotifyOperator string
	// StrictSymbols rejects unknown action and interval names instead of
	// passing them through to the server.
	StrictSymbols bool
	// Now supplies the default schedule start date; time.Now when nil.
	Now func() time.Time
}

func (c *Compiler) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Compiler) database() string {
	if c.Database == "" {
		return "msdb"
	}
	return c.Database
}

// Compile renders the full creation script for def and returns it with the job name.
func (c *Compiler) Compile(def *Definition) (string, string, error) {
	if def == nil || strings.TrimSpace(def.Name) == "" {
		return "", "", fmt.Errorf("%w: missing job name", ErrInvalidJobDefinition)
	}
	name := def.Name

	var b strings.Builder
	fmt.Fprintf(&b, "USE %s;\n\n", c.database())

	header, err := BuildExec("sp_add_job", c.jobParams(name), Params{}, nil)
	if err != nil {
		return "", "", err
	}
	b.WriteString(header)

	servers := def.Servers
	if len(servers) == 0 {
		servers = []Params{{}}
	}

	for i, step := range def.Steps {
		sql, err := c.formatStep(name, step, i, len(def.Steps))
		if err != nil {
			return "", "", fmt.Errorf("step %d of %s: %w", i+1, name, err)
		}
		b.WriteString(sql)
	}
	for i, sched := range def.Schedules {
		sql, err := c.formatSchedule(name, sched)
		if err != nil {
			return "", "", fmt.Errorf("schedule %d of %s: %w", i+1, name, err)
		}
		b.WriteString(sql)
	}
	for i, alert := range def.Alerts {
		sql, err := BuildExec("sp_add_alert", withJobName(name, alert), Params{}, nil)
		if err != nil {
			return "", "", fmt.Errorf("alert %d of %s: %w", i+1, name, err)
		}
		b.WriteString(sql)
	}
	for i, server := range servers {
		sql, err := BuildExec("sp_add_jobserver", withJobName(name, server), Params{}, nil)
		if err != nil {
			return "", "", fmt.Errorf("server %d of %s: %w", i+1, name, err)
		}
		b.WriteString(sql)
	}

	return name, b.String(), nil
}

func (c *Compiler) jobParams(name string) Params {
	p := NewParams(Param{"job_name", String(name)})
	if c.NotifyOperator != "" {
		p.Set("notify_level_email", Int(3))
		p.Set("notify_email_operator_name", String(c.NotifyOperator))
	} else {
		p.Set("notify_level_email", Int(0))
	}
	p.Set("notify_level_eventlog", Int(0))
	return p
}

// withJobName puts job_name first, then the authored keys.
func withJobName(name string, entry Params) Params {
	p := NewParams(Param{"job_name", String(name)})
	for _, kv := range entry.items {
		if kv.Key == "job_name" {
			continue
		}
		p.Set(kv.Key, kv.Value)
	}
	return p
}

// formatStep applies position-dependent defaults: every step but the last
// goes to the next step on success, the last quits with success, and all
// of them quit with failure.
func (c *Compiler) formatStep(job string, step Params, index, total int) (string, error) {
	success := Int(GoToNextStep)
	if index+1 == total {
		success = Int(QuitWithSuccess)
	}
	defaults := NewParams(
		Param{"subsystem", String("TSQL")},
		Param{"on_success_action", success},
		Param{"on_fail_action", Int(QuitWithFailure)},
	)
	validators := []Validator{
		{Key: "on_success_action", Fn: translate(stepActions, c.StrictSymbols)},
		{Key: "on_fail_action", Fn: translate(stepActions, c.StrictSymbols)},
	}
	return BuildExec("sp_add_jobstep", withJobName(job, step), defaults, validators)
}

func (c *Compiler) formatSchedule(job string, sched Params) (string, error) {
	today, _ := strconv.ParseInt(c.now().Format(dateLayout), 10, 64)
	defaults := NewParams(
		Param{"name", String("daily")},
		Param{"freq_type", String("daily")},
		Param{"freq_interval", Int(0)},
		Param{"freq_recurrence_factor", Int(0)},
		Param{"active_start_date", Int(today)},
		Param{"active_start_time", String("0700")},
	)
	validators := []Validator{
		{Key: "active_start_date", Fn: startDate(c.now)},
		{Key: "active_start_time", Fn: numericParam},
		{Key: "freq_type", Fn: frequencyType},
		{Key: "freq_interval", Fn: translate(frequencyIntervals, c.StrictSymbols)},
	}
	return BuildExec("sp_add_jobschedule", withJobName(job, sched), defaults, validators)
}

// DropScript deletes the job named name if it exists.
func DropScript(name string) string {
	return fmt.Sprintf(`DECLARE @job_id binary(16);
SELECT @job_id = job_id FROM msdb.dbo.sysjobs WHERE name = %s;
IF (@job_id IS NOT NULL)
BEGIN
    EXEC msdb.dbo.sp_delete_job @job_id = @job_id;
END`, String(name).SQL())
}
