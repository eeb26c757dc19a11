package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"deployable-sql/internal/dialect"
	"deployable-sql/internal/job"
	"deployable-sql/internal/layout"
	"deployable-sql/internal/schema"
)

// SyncOrder is the folder order used when everything is synced at once.
var SyncOrder = []schema.ObjectKind{
	schema.KindView,
	schema.KindJob,
	schema.KindFunction,
	schema.KindStoredProcedure,
}

// Options configure a Deployer.
type Options struct {
	// Database is re-selected with USE before every object.
	Database string
	// Schema qualifies every object name; "cu" when empty.
	Schema string
	// Root is the working tree holding the object folders.
	Root string
	// Permissive logs classification failures and skips the file instead of failing.
	Permissive bool
	// KeepGoing continues a multi-file sync past failures and reports them together.
	KeepGoing bool
	// Compiler builds job scripts; a zero Compiler when nil.
	Compiler *job.Compiler
	// OnProgress is called once per processed file.
	OnProgress func(schema.SyncResult)
}

// Deployer syncs object files from the working tree to the database.
type Deployer struct {
	exec       Executor
	dialect    dialect.Dialect
	classifier *layout.Classifier
	compiler   *job.Compiler
	opts       Options
	logger     *slog.Logger
}

func New(exec Executor, d dialect.Dialect, opts Options, logger *slog.Logger) *Deployer {
	if opts.Schema == "" {
		opts.Schema = "cu"
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Compiler == nil {
		opts.Compiler = &job.Compiler{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{
		exec:       exec,
		dialect:    d,
		classifier: layout.NewClassifier(opts.Root),
		compiler:   opts.Compiler,
		opts:       opts,
		logger:     logger,
	}
}

// Root returns the working tree the deployer reads from.
func (d *Deployer) Root() string {
	return d.opts.Root
}

// Test runs a read-only catalog query to validate the connection and credentials.
func (d *Deployer) Test(ctx context.Context) error {
	rows, err := d.exec.Execute(ctx, d.dialect.TestQuery())
	if err != nil {
		return err
	}
	d.logger.Info("connection ok", "tables", len(rows))
	return nil
}

// SyncFile deploys one file given by bare filename or folder/filename.
func (d *Deployer) SyncFile(ctx context.Context, nameOrPath string) (schema.SyncResult, error) {
	res := schema.SyncResult{Path: nameOrPath}

	loc, err := d.classifier.Classify(nameOrPath)
	if err != nil {
		if d.opts.Permissive {
			d.logger.Warn("could not classify file, skipping", "path", nameOrPath, "error", err)
			res.Status = schema.StatusSkipped
			res.ErrorMsg = err.Error()
			return d.done(res), nil
		}
		return d.fail(res, err)
	}
	res.Path = loc.Path
	res.Kind = loc.Kind

	// Dispatch by kind; adding a kind means adding a case here.
	switch loc.Kind {
	case schema.KindView, schema.KindFunction, schema.KindStoredProcedure:
		err = d.syncRoutine(ctx, loc, &res)
	case schema.KindTable:
		err = d.syncTable(ctx, loc, &res)
	case schema.KindJob:
		err = d.syncJob(ctx, loc, &res)
	case schema.KindPermission:
		d.logger.Warn("permissions are not synced automatically, apply them by hand", "path", loc.Path)
		res.Object = loc.Rel
		res.Status = schema.StatusSkipped
	default:
		err = fmt.Errorf("%w: %s", layout.ErrUnknownKind, loc.Kind)
	}
	if err != nil {
		return d.fail(res, err)
	}
	return d.done(res), nil
}

// syncRoutine handles views, functions and stored procedures: drop if exists, then create.
func (d *Deployer) syncRoutine(ctx context.Context, loc layout.Resolved, res *schema.SyncResult) error {
	art, err := schema.ReadArtifact(loc.Kind, d.opts.Schema, loc.Path)
	if err != nil {
		return err
	}
	name := art.Name.String()
	res.Object = name
	d.logger.Debug("syncing", "kind", loc.Kind.String(), "object", name)

	var stmts []string
	switch loc.Kind {
	case schema.KindView:
		stmts = dialect.View(d.dialect, name, art.Body)
	case schema.KindFunction:
		stmts = dialect.Function(d.dialect, name, art.Body)
	default:
		stmts = dialect.StoredProcedure(d.dialect, name, art.Body)
	}

	if err := d.run(ctx, stmts...); err != nil {
		return err
	}
	res.Status = schema.StatusDeployed
	d.logger.Info("deployed "+loc.Kind.String(), "object", name)
	return nil
}

// syncTable never drops: the file runs only when the table is missing.
func (d *Deployer) syncTable(ctx context.Context, loc layout.Resolved, res *schema.SyncResult) error {
	art, err := schema.ReadArtifact(loc.Kind, d.opts.Schema, loc.Path)
	if err != nil {
		return err
	}
	res.Object = art.Name.String()

	if err := d.run(ctx); err != nil {
		return err
	}
	exists, err := schema.ObjectExists(ctx, d.exec, d.dialect, schema.KindTable, art.Name)
	if err != nil {
		return err
	}
	if exists {
		d.logger.Info("table exists, not recreated", "object", res.Object)
		res.Status = schema.StatusSkipped
		return nil
	}
	if _, err := d.exec.Execute(ctx, art.Body); err != nil {
		return err
	}
	res.Status = schema.StatusDeployed
	d.logger.Info("deployed table", "object", res.Object)
	return nil
}

func (d *Deployer) syncJob(ctx context.Context, loc layout.Resolved, res *schema.SyncResult) error {
	if !d.dialect.SupportsJobs() {
		return fmt.Errorf("%w: %s", dialect.ErrJobsUnsupported, d.dialect.DriverName())
	}
	def, err := job.LoadFile(loc.Path)
	if err != nil {
		return err
	}
	name, script, err := d.compiler.Compile(def)
	if err != nil {
		return err
	}
	res.Object = name

	if err := d.run(ctx, job.DropScript(name), script); err != nil {
		return err
	}
	res.Status = schema.StatusDeployed
	d.logger.Info("deployed job", "job", name)
	return nil
}

// run resets the current database, then executes stmts in order. There is
// no transaction: a failure after a drop leaves the object absent.
func (d *Deployer) run(ctx context.Context, stmts ...string) error {
	if use := d.dialect.UseDatabase(d.opts.Database); use != "" {
		if _, err := d.exec.Execute(ctx, use); err != nil {
			return err
		}
	}
	for _, s := range stmts {
		if _, err := d.exec.Execute(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (d *Deployer) done(res schema.SyncResult) schema.SyncResult {
	if d.opts.OnProgress != nil {
		d.opts.OnProgress(res)
	}
	return res
}

func (d *Deployer) fail(res schema.SyncResult, err error) (schema.SyncResult, error) {
	res.Status = schema.StatusFailed
	res.ErrorMsg = err.Error()
	d.logger.Error("sync failed", "path", res.Path, "error", err)
	return d.done(res), fmt.Errorf("%s: %w", res.Path, err)
}

// PlanFolder lists the files SyncFolder would process, in sorted order.
// Files with the wrong extension, hidden files and subdirectories are left out.
func (d *Deployer) PlanFolder(folder string) ([]string, error) {
	kind, ok := schema.KindForFolder(filepath.Base(filepath.Clean(folder)))
	if !ok {
		return nil, fmt.Errorf("%w: folder %q", layout.ErrUnknownKind, folder)
	}
	dir := folder
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(d.opts.Root, folder)
	}

	d.logger.Debug("looking for files", "folder", dir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !layout.Accepts(kind, e.Name()) {
			continue
		}
		files = append(files, filepath.Join(folder, e.Name()))
	}
	return files, nil
}

// Plan lists the files of every existing folder of the given kinds, in kind order.
func (d *Deployer) Plan(kinds ...schema.ObjectKind) ([]string, error) {
	var files []string
	for _, k := range kinds {
		for _, folder := range k.Folders() {
			info, err := os.Stat(filepath.Join(d.opts.Root, folder))
			if err != nil || !info.IsDir() {
				continue
			}
			found, err := d.PlanFolder(folder)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		}
	}
	return files, nil
}

// SyncFolder syncs every object file in folder.
func (d *Deployer) SyncFolder(ctx context.Context, folder string) ([]schema.SyncResult, error) {
	files, err := d.PlanFolder(folder)
	if err != nil {
		return nil, err
	}
	return d.SyncFiles(ctx, files)
}

// SyncAll syncs the folders of the given kinds, SyncOrder when none are given.
func (d *Deployer) SyncAll(ctx context.Context, kinds ...schema.ObjectKind) ([]schema.SyncResult, error) {
	if len(kinds) == 0 {
		kinds = SyncOrder
	}
	files, err := d.Plan(kinds...)
	if err != nil {
		return nil, err
	}
	return d.SyncFiles(ctx, files)
}

// SyncFiles syncs files one at a time. It stops at the first failure
// unless KeepGoing is set, in which case all failures are joined.
func (d *Deployer) SyncFiles(ctx context.Context, files []string) ([]schema.SyncResult, error) {
	results := make([]schema.SyncResult, 0, len(files))
	var errs []error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := d.SyncFile(ctx, f)
		results = append(results, res)
		if err != nil {
			if !d.opts.KeepGoing {
				return results, err
			}
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

// Status reports which objects of the given kinds exist on the server.
func (d *Deployer) Status(ctx context.Context, kinds ...schema.ObjectKind) ([]schema.ObjectState, error) {
	files, err := d.Plan(kinds...)
	if err != nil {
		return nil, err
	}

	artifacts := make([]*schema.Artifact, 0, len(files))
	for _, f := range files {
		loc, err := d.classifier.Classify(f)
		if err != nil {
			return nil, err
		}
		art, err := schema.ReadArtifact(loc.Kind, d.opts.Schema, loc.Path)
		if err != nil {
			return nil, err
		}
		if loc.Kind == schema.KindJob {
			if !d.dialect.SupportsJobs() {
				continue
			}
			def, err := job.Parse([]byte(art.Body))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", loc.Path, err)
			}
			art.Name = schema.QualifiedName{Name: def.Name}
		}
		artifacts = append(artifacts, art)
	}

	if err := d.run(ctx); err != nil {
		return nil, err
	}
	return schema.Inventory(ctx, d.exec, d.dialect, artifacts), nil
}
