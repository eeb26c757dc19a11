package layout_test

import (
	"os"
	"path/filepath"
	"testing"

	"deployable-sql/internal/layout"
	"deployable-sql/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, body string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestClassify_FolderPath(t *testing.T) {
	c := layout.NewClassifier(t.TempDir())

	cases := map[string]schema.ObjectKind{
		"views/active_members.sql":   schema.KindView,
		"./views/active_members.sql": schema.KindView,
		"tables/members.sql":         schema.KindTable,
		"functions/f.sql":            schema.KindFunction,
		"stored_procedures/p.sql":    schema.KindStoredProcedure,
		"sps/p.sql":                  schema.KindStoredProcedure,
		"permissions/grant.sql":      schema.KindPermission,
		"jobs/nightly.yml":           schema.KindJob,
	}
	for in, want := range cases {
		res, err := c.Classify(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, res.Kind, in)
	}
}

func TestClassify_BareNameMatchesFolderPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "views/active_members.sql", "SELECT 1")
	c := layout.NewClassifier(root)

	byName, err := c.Classify("active_members.sql")
	require.NoError(t, err)
	byPath, err := c.Classify("views/active_members.sql")
	require.NoError(t, err)

	assert.Equal(t, byPath, byName)
	assert.Equal(t, "views/active_members.sql", byName.Rel)
}

func TestClassify_Errors(t *testing.T) {
	root := t.TempDir()
	c := layout.NewClassifier(root)

	_, err := c.Classify("bogus/foo.sql")
	assert.ErrorIs(t, err, layout.ErrUnknownKind)

	_, err = c.Classify("a/b/c.sql")
	assert.ErrorIs(t, err, layout.ErrIllegalPath)

	_, err = c.Classify("views/")
	assert.ErrorIs(t, err, layout.ErrIllegalPath)

	_, err = c.Classify("missing.sql")
	assert.ErrorIs(t, err, layout.ErrFileNotFound)

	_, err = c.Classify(filepath.Join(filepath.Dir(root), "elsewhere", "views", "x.sql"))
	assert.ErrorIs(t, err, layout.ErrIllegalPath)
}

func TestClassify_SkipsGitDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/views/hidden.sql", "SELECT 1")
	c := layout.NewClassifier(root)

	_, err := c.Classify("hidden.sql")
	assert.ErrorIs(t, err, layout.ErrFileNotFound)
}

func TestClassify_BareNameInUnknownFolder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "scratch/notes.sql", "SELECT 1")
	c := layout.NewClassifier(root)

	_, err := c.Classify("notes.sql")
	assert.ErrorIs(t, err, layout.ErrUnknownKind)
}

func TestClassify_AbsolutePathInsideRoot(t *testing.T) {
	root := t.TempDir()
	p := writeFile(t, root, "functions/f.sql", "CREATE FUNCTION f")
	c := layout.NewClassifier(root)

	res, err := c.Classify(p)
	require.NoError(t, err)
	assert.Equal(t, schema.KindFunction, res.Kind)
	assert.Equal(t, "functions/f.sql", res.Rel)
}

func TestAccepts(t *testing.T) {
	assert.True(t, layout.Accepts(schema.KindView, "a.sql"))
	assert.True(t, layout.Accepts(schema.KindView, "A.SQL"))
	assert.False(t, layout.Accepts(schema.KindView, "a.yml"))
	assert.False(t, layout.Accepts(schema.KindView, ".a.sql"))
	assert.True(t, layout.Accepts(schema.KindJob, "nightly.yml"))
	assert.True(t, layout.Accepts(schema.KindJob, "nightly.yaml"))
	assert.False(t, layout.Accepts(schema.KindJob, "nightly.sql"))
}
