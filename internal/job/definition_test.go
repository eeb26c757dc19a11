package job_test

import (
	"os"
	"path/filepath"
	"testing"

	"deployable-sql/internal/job"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nightlyYAML = `nightly:
  steps:
    - step_name: load
      command: EXEC cu.load;
      retry_attempts: 3
    - step_name: report
      command: EXEC cu.report;
      database_name: sales
      output_file_name: NULL
      append_output: true
  schedules:
    - name: weekdays
      freq_type: weekly
      freq_interval: 62
  servers:
    - server_name: N'(local)'
`

func TestParse(t *testing.T) {
	def, err := job.Parse([]byte(nightlyYAML))
	require.NoError(t, err)

	assert.Equal(t, "nightly", def.Name)
	require.Len(t, def.Steps, 2)
	require.Len(t, def.Schedules, 1)
	assert.Empty(t, def.Alerts)
	require.Len(t, def.Servers, 1)

	var keys []string
	for _, kv := range def.Steps[1].Items() {
		keys = append(keys, kv.Key)
	}
	assert.Equal(t, []string{"step_name", "command", "database_name", "output_file_name", "append_output"}, keys)

	get := func(p job.Params, key string) job.Value {
		v, ok := p.Get(key)
		require.True(t, ok, key)
		return v
	}
	assert.Equal(t, job.String("EXEC cu.load;"), get(def.Steps[0], "command"))
	assert.Equal(t, job.Int(3), get(def.Steps[0], "retry_attempts"))
	assert.Equal(t, job.Raw("NULL"), get(def.Steps[1], "output_file_name"))
	assert.Equal(t, job.Int(1), get(def.Steps[1], "append_output"))
	assert.Equal(t, job.Int(62), get(def.Schedules[0], "freq_interval"))
	assert.Equal(t, job.Raw("N'(local)'"), get(def.Servers[0], "server_name"))
}

func TestParse_EmptySettings(t *testing.T) {
	def, err := job.Parse([]byte("nightly:\n"))
	require.NoError(t, err)
	assert.Equal(t, "nightly", def.Name)
	assert.Empty(t, def.Steps)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"no job name":      "- a\n- b\n",
		"two job names":    "a:\n  steps: []\nb:\n  steps: []\n",
		"unknown section":  "a:\n  triggers: []\n",
		"section not list": "a:\n  steps: nope\n",
		"entry not map":    "a:\n  steps:\n    - just a string\n",
		"nested value":     "a:\n  steps:\n    - command:\n        nested: 1\n",
		"settings scalar":  "a: 3\n",
	}
	for name, doc := range cases {
		_, err := job.Parse([]byte(doc))
		assert.ErrorIs(t, err, job.ErrInvalidJobDefinition, name)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nightly.yml")
	require.NoError(t, os.WriteFile(path, []byte(nightlyYAML), 0o644))

	def, err := job.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "nightly", def.Name)

	_, err = job.LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
