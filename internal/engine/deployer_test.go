package engine_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"deployable-sql/internal/dialect"
	"deployable-sql/internal/engine"
	"deployable-sql/internal/job"
	"deployable-sql/internal/layout"
	"deployable-sql/internal/logging"
	"deployable-sql/internal/schema"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is an Executor that remembers every statement it was given.
type recorder struct {
	stmts   []string
	respond func(query string, args []any) ([][]any, error)
}

func (r *recorder) Execute(_ context.Context, query string, args ...any) ([][]any, error) {
	r.stmts = append(r.stmts, query)
	if r.respond != nil {
		return r.respond(query, args)
	}
	return nil, nil
}

func (r *recorder) Close() error { return nil }

// failOn rejects any statement containing substr.
func failOn(substr string) func(string, []any) ([][]any, error) {
	return func(q string, _ []any) ([][]any, error) {
		if strings.Contains(q, substr) {
			return nil, &engine.ExecutionError{Statement: q, Err: errors.New("permission denied")}
		}
		return nil, nil
	}
}

func writeObject(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

var testNow = time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)

func newDeployer(t *testing.T, root string, rec *recorder, opts engine.Options) (*engine.Deployer, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	opts.Root = root
	if opts.Database == "" {
		opts.Database = "sales"
	}
	if opts.Compiler == nil {
		opts.Compiler = &job.Compiler{Now: func() time.Time { return testNow }}
	}
	return engine.New(rec, &dialect.MSSQLDialect{}, opts, logging.New(&logs, "debug")), &logs
}

func TestSyncFile_View(t *testing.T) {
	root := t.TempDir()
	writeObject(t, root, "views/active_members.sql", "SELECT id, name FROM members WHERE active = 1\nORDER BY name;\n")

	want := []string{
		"USE sales;",
		"IF OBJECT_ID('cu.active_members') IS NOT NULL DROP VIEW cu.active_members;",
		"CREATE VIEW cu.active_members AS\nSELECT id, name FROM members WHERE active = 1;",
	}

	for _, input := range []string{"views/active_members.sql", "active_members.sql"} {
		rec := &recorder{}
		d, _ := newDeployer(t, root, rec, engine.Options{})

		res, err := d.SyncFile(context.Background(), input)
		require.NoError(t, err, input)
		if diff := cmp.Diff(want, rec.stmts); diff != "" {
			t.Errorf("%s: statements mismatch (-want +got):\n%s", input, diff)
		}
		assert.Equal(t, schema.StatusDeployed, res.Status)
		assert.Equal(t, schema.KindView, res.Kind)
		assert.Equal(t, "cu.active_members", res.Object)
	}
}

func TestSyncFile_FunctionAndProcedure(t *testing.T) {
	root := t.TempDir()
	fn := "CREATE FUNCTION cu.total() RETURNS INT AS BEGIN RETURN 1 END\n"
	sp := "CREATE PROCEDURE cu.refresh AS SELECT 1 ORDER BY 1\n"
	writeObject(t, root, "functions/total.sql", fn)
	writeObject(t, root, "sps/refresh.sql", sp)

	rec := &recorder{}
	d, _ := newDeployer(t, root, rec, engine.Options{Schema: "rpt"})
	_, err := d.SyncFile(context.Background(), "functions/total.sql")
	require.NoError(t, err)
	_, err = d.SyncFile(context.Background(), "refresh.sql")
	require.NoError(t, err)

	want := []string{
		"USE sales;",
		"IF OBJECT_ID('rpt.total') IS NOT NULL DROP FUNCTION rpt.total;",
		fn,
		"USE sales;",
		"IF OBJECT_ID('rpt.refresh') IS NOT NULL DROP PROCEDURE rpt.refresh;",
		sp,
	}
	if diff := cmp.Diff(want, rec.stmts); diff != "" {
		t.Errorf("statements mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncFile_Permission(t *testing.T) {
	root := t.TempDir()
	writeObject(t, root, "permissions/grant_deployable.sql", "GRANT CONTROL ON SCHEMA :: cu TO deployer;")

	rec := &recorder{}
	d, logs := newDeployer(t, root, rec, engine.Options{})
	res, err := d.SyncFile(context.Background(), "permissions/grant_deployable.sql")

	require.NoError(t, err)
	assert.Empty(t, rec.stmts)
	assert.Equal(t, schema.StatusSkipped, res.Status)
	assert.Contains(t, logs.String(), "level=WARN")
}

func TestSyncFile_ClassificationPolicy(t *testing.T) {
	root := t.TempDir()

	rec := &recorder{}
	d, _ := newDeployer(t, root, rec, engine.Options{})
	res, err := d.SyncFile(context.Background(), "bogus/foo.sql")
	assert.ErrorIs(t, err, layout.ErrUnknownKind)
	assert.Equal(t, schema.StatusFailed, res.Status)

	_, err = d.SyncFile(context.Background(), "a/b/c.sql")
	assert.ErrorIs(t, err, layout.ErrIllegalPath)

	permissive, logs := newDeployer(t, root, rec, engine.Options{Permissive: true})
	res, err = permissive.SyncFile(context.Background(), "bogus/foo.sql")
	require.NoError(t, err)
	assert.Equal(t, schema.StatusSkipped, res.Status)
	assert.Contains(t, logs.String(), "could not classify")
	assert.Empty(t, rec.stmts)
}

func TestSyncFile_MissingFile(t *testing.T) {
	rec := &recorder{}
	d, _ := newDeployer(t, t.TempDir(), rec, engine.Options{})

	_, err := d.SyncFile(context.Background(), "views/missing.sql")
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, rec.stmts)
}

func TestSyncFile_Table(t *testing.T) {
	root := t.TempDir()
	body := "CREATE TABLE cu.members (id INT PRIMARY KEY);"
	writeObject(t, root, "tables/members.sql", body)

	for _, exists := range []bool{true, false} {
		count := int64(0)
		if exists {
			count = 1
		}
		var gotArgs []any
		rec := &recorder{respond: func(q string, args []any) ([][]any, error) {
			if strings.HasPrefix(q, "SELECT COUNT(*)") {
				gotArgs = args
				return [][]any{{count}}, nil
			}
			return nil, nil
		}}
		d, _ := newDeployer(t, root, rec, engine.Options{})

		res, err := d.SyncFile(context.Background(), "tables/members.sql")
		require.NoError(t, err)
		assert.Equal(t, []any{"cu.members"}, gotArgs)
		if exists {
			assert.Equal(t, schema.StatusSkipped, res.Status)
			assert.Len(t, rec.stmts, 2)
			assert.NotContains(t, rec.stmts, body)
		} else {
			assert.Equal(t, schema.StatusDeployed, res.Status)
			require.Len(t, rec.stmts, 3)
			assert.Equal(t, body, rec.stmts[2])
		}
		for _, s := range rec.stmts {
			assert.NotContains(t, s, "DROP")
		}
	}
}

func TestSyncFile_Job(t *testing.T) {
	root := t.TempDir()
	doc := "nightly:\n  steps:\n    - step_name: load\n      command: EXEC cu.load;\n  schedules:\n    - name: daily\n"
	writeObject(t, root, "jobs/nightly.yml", doc)

	rec := &recorder{}
	d, _ := newDeployer(t, root, rec, engine.Options{})
	res, err := d.SyncFile(context.Background(), "nightly.yml")
	require.NoError(t, err)
	assert.Equal(t, "nightly", res.Object)

	def, err := job.Parse([]byte(doc))
	require.NoError(t, err)
	_, script, err := (&job.Compiler{Now: func() time.Time { return testNow }}).Compile(def)
	require.NoError(t, err)

	want := []string{"USE sales;", job.DropScript("nightly"), script}
	if diff := cmp.Diff(want, rec.stmts); diff != "" {
		t.Errorf("statements mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncFile_JobUnsupported(t *testing.T) {
	root := t.TempDir()
	writeObject(t, root, "jobs/nightly.yml", "nightly:\n")

	rec := &recorder{}
	d := engine.New(rec, &dialect.PostgresDialect{}, engine.Options{Root: root}, logging.New(&bytes.Buffer{}, "info"))
	_, err := d.SyncFile(context.Background(), "jobs/nightly.yml")
	assert.ErrorIs(t, err, dialect.ErrJobsUnsupported)
	assert.Empty(t, rec.stmts)
}

func TestSyncFile_ExecutionErrorStopsAfterDrop(t *testing.T) {
	root := t.TempDir()
	writeObject(t, root, "views/v.sql", "SELECT 1")

	rec := &recorder{respond: failOn("CREATE VIEW")}
	d, _ := newDeployer(t, root, rec, engine.Options{})
	res, err := d.SyncFile(context.Background(), "views/v.sql")

	var execErr *engine.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Contains(t, execErr.Statement, "CREATE VIEW cu.v")
	assert.Equal(t, schema.StatusFailed, res.Status)
	assert.Len(t, rec.stmts, 3)
}

func threeViews(t *testing.T) string {
	root := t.TempDir()
	for _, n := range []string{"a", "b", "c"} {
		writeObject(t, root, "views/"+n+".sql", "SELECT '"+n+"' AS n")
	}
	writeObject(t, root, "views/README.md", "not sql")
	writeObject(t, root, "views/.scratch.sql", "SELECT 0")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "views", "old"), 0o755))
	return root
}

func TestSyncFolder_FailFast(t *testing.T) {
	rec := &recorder{respond: failOn("CREATE VIEW cu.b")}
	d, _ := newDeployer(t, threeViews(t), rec, engine.Options{})

	results, err := d.SyncFolder(context.Background(), "views")
	require.Error(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, schema.StatusDeployed, results[0].Status)
	assert.Equal(t, schema.StatusFailed, results[1].Status)
	for _, s := range rec.stmts {
		assert.NotContains(t, s, "cu.c")
	}
}

func TestSyncFolder_KeepGoing(t *testing.T) {
	rec := &recorder{respond: failOn("CREATE VIEW cu.b")}
	var seen []string
	d, _ := newDeployer(t, threeViews(t), rec, engine.Options{
		KeepGoing:  true,
		OnProgress: func(r schema.SyncResult) { seen = append(seen, r.Object) },
	})

	results, err := d.SyncFolder(context.Background(), "views")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cu.b")
	require.Len(t, results, 3)
	assert.Equal(t, schema.StatusDeployed, results[2].Status)
	assert.Equal(t, []string{"cu.a", "cu.b", "cu.c"}, seen)
}

func TestPlan(t *testing.T) {
	root := threeViews(t)
	writeObject(t, root, "functions/f.sql", "CREATE FUNCTION f")
	writeObject(t, root, "stored_procedures/p.sql", "CREATE PROCEDURE p")
	writeObject(t, root, "sps/q.sql", "CREATE PROCEDURE q")
	writeObject(t, root, "jobs/nightly.yml", "nightly:\n")
	writeObject(t, root, "jobs/notes.sql", "-- not a job")

	d, _ := newDeployer(t, root, &recorder{}, engine.Options{})
	files, err := d.Plan(engine.SyncOrder...)
	require.NoError(t, err)

	want := []string{
		filepath.Join("views", "a.sql"),
		filepath.Join("views", "b.sql"),
		filepath.Join("views", "c.sql"),
		filepath.Join("jobs", "nightly.yml"),
		filepath.Join("functions", "f.sql"),
		filepath.Join("stored_procedures", "p.sql"),
		filepath.Join("sps", "q.sql"),
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	_, err = d.PlanFolder("bogus")
	assert.ErrorIs(t, err, layout.ErrUnknownKind)
}

func TestSyncAll(t *testing.T) {
	root := t.TempDir()
	writeObject(t, root, "views/v.sql", "SELECT 1")
	writeObject(t, root, "functions/f.sql", "CREATE FUNCTION cu.f")

	rec := &recorder{}
	d, _ := newDeployer(t, root, rec, engine.Options{})
	results, err := d.SyncAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "cu.v", results[0].Object)
	assert.Equal(t, "cu.f", results[1].Object)

	rec.stmts = nil
	results, err = d.SyncAll(context.Background(), schema.KindFunction)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, schema.KindFunction, results[0].Kind)
}

func TestSyncFiles_Cancelled(t *testing.T) {
	root := threeViews(t)
	rec := &recorder{}
	d, _ := newDeployer(t, root, rec, engine.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := d.SyncFolder(ctx, "views")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Empty(t, rec.stmts)
}

func TestStatus(t *testing.T) {
	root := t.TempDir()
	writeObject(t, root, "views/v.sql", "SELECT 1")
	writeObject(t, root, "tables/members.sql", "CREATE TABLE cu.members (id INT)")
	writeObject(t, root, "jobs/etl.yml", "nightly_etl:\n")

	rec := &recorder{respond: func(q string, args []any) ([][]any, error) {
		if !strings.HasPrefix(q, "SELECT COUNT(*)") {
			return nil, nil
		}
		switch args[0] {
		case "cu.members", "nightly_etl":
			return [][]any{{int64(1)}}, nil
		}
		return [][]any{{int64(0)}}, nil
	}}
	d, _ := newDeployer(t, root, rec, engine.Options{})

	states, err := d.Status(context.Background(), schema.KindView, schema.KindTable, schema.KindJob)
	require.NoError(t, err)
	require.Len(t, states, 3)

	got := map[string]bool{}
	for _, st := range states {
		require.NoError(t, st.Err)
		got[st.Artifact.Name.String()] = st.Exists
	}
	assert.Equal(t, map[string]bool{"cu.v": false, "cu.members": true, "nightly_etl": true}, got)
	assert.Equal(t, "USE sales;", rec.stmts[0])
}

func TestTest(t *testing.T) {
	rec := &recorder{respond: func(string, []any) ([][]any, error) {
		return [][]any{{"sales", "cu", "members", "BASE TABLE"}}, nil
	}}
	d, logs := newDeployer(t, t.TempDir(), rec, engine.Options{})

	require.NoError(t, d.Test(context.Background()))
	assert.Equal(t, []string{"SELECT * FROM INFORMATION_SCHEMA.TABLES"}, rec.stmts)
	assert.Contains(t, logs.String(), "connection ok")
}
