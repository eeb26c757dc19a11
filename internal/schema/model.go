package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// QualifiedName is an object name prefixed by its owning schema, e.g. cu.my_view.
type QualifiedName struct {
	Schema string
	Name   string
}

func (q QualifiedName) String() string {
	if q.Schema == "" {
		return q.Name
	}
	return q.Schema + "." + q.Name
}

// NameFromPath derives the object name from a file path: the base name without its extension.
func NameFromPath(schemaName, path string) QualifiedName {
	base := filepath.Base(path)
	return QualifiedName{
		Schema: schemaName,
		Name:   strings.TrimSuffix(base, filepath.Ext(base)),
	}
}

// Artifact is one object file read from the working tree.
type Artifact struct {
	Kind ObjectKind
	Name QualifiedName
	Path string
	Body string
}

// ReadArtifact loads the file at path as an artifact of kind k.
func ReadArtifact(k ObjectKind, schemaName, path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &Artifact{
		Kind: k,
		Name: NameFromPath(schemaName, path),
		Path: path,
		Body: string(data),
	}, nil
}

// SyncStatus is the outcome reported for one file.
type SyncStatus string

const (
	StatusDeployed SyncStatus = "DEPLOYED"
	StatusSkipped  SyncStatus = "SKIPPED"
	StatusFailed   SyncStatus = "FAILED"
)

// SyncResult records what happened to a single file, for the summary report.
type SyncResult struct {
	Path     string
	Kind     ObjectKind
	Object   string
	Status   SyncStatus
	ErrorMsg string
}
