package layout

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Folders are created by Setup in the working tree.
var Folders = []string{"views", "tables", "functions", "stored_procedures", "permissions", "jobs"}

// GrantsFile is written by Setup, relative to the working tree.
var GrantsFile = filepath.Join("permissions", "grant_deployable.sql")

// jobProcedures are the msdb procedures the deploy user executes for jobs.
var jobProcedures = []string{
	"sp_add_job",
	"sp_add_jobstep",
	"sp_add_jobschedule",
	"sp_add_jobserver",
	"sp_add_alert",
	"sp_delete_job",
}

// Grants renders the script granting user everything a deployment into db needs.
func Grants(user, db, schemaName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "USE %s;\n\n", db)
	fmt.Fprintf(&b, "GRANT SELECT ON SCHEMA :: dbo TO %s;\n", user)
	fmt.Fprintf(&b, "GRANT CONTROL ON SCHEMA :: %s TO %s;\n\n", schemaName, user)
	for _, obj := range []string{"VIEW", "FUNCTION", "PROCEDURE", "TABLE"} {
		fmt.Fprintf(&b, "GRANT CREATE %s TO %s;\n", obj, user)
	}
	b.WriteString("\nUSE msdb;\n\n")
	for _, sp := range jobProcedures {
		fmt.Fprintf(&b, "GRANT EXECUTE ON dbo.%s TO %s;\n", sp, user)
	}
	fmt.Fprintf(&b, "GRANT SELECT ON dbo.sysjobs TO %s;\n", user)
	return b.String()
}

// SetupOptions control Setup.
type SetupOptions struct {
	Root    string
	User    string
	DB      string
	Schema  string
	GitInit bool
}

// Setup creates the object folders and the grants script, and optionally
// initializes a git repository in the working tree.
func Setup(opts SetupOptions) error {
	root := opts.Root
	if root == "" {
		root = "."
	}
	for _, f := range Folders {
		if err := os.MkdirAll(filepath.Join(root, f), 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", f, err)
		}
	}

	grants := Grants(opts.User, opts.DB, opts.Schema)
	if err := os.WriteFile(filepath.Join(root, GrantsFile), []byte(grants), 0o644); err != nil {
		return fmt.Errorf("failed to write grants: %w", err)
	}

	if opts.GitInit {
		cmd := exec.Command("git", "init")
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("git init failed: %w: %s", err, strings.TrimSpace(string(out)))
		}
	}
	return nil
}
