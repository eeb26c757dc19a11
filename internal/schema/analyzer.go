package schema

import (
	"context"
	"fmt"
	"strconv"

	"deployable-sql/internal/dialect"
)

// Querier runs a statement and returns every row it produced.
type Querier interface {
	Execute(ctx context.Context, query string, args ...any) ([][]any, error)
}

// ObjectExists reports whether the object named q of kind k is present on the server.
func ObjectExists(ctx context.Context, db Querier, d dialect.Dialect, k ObjectKind, q QualifiedName) (bool, error) {
	objectType := k.ObjectType()
	if objectType == "" {
		return false, fmt.Errorf("%s objects cannot be introspected", k)
	}

	// [Interface-First]: Delegate the catalog lookup to the dialect
	query, args := d.ExistsQuery(objectType, q.Schema, q.Name)
	rows, err := db.Execute(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to look up %s %s: %w", k, q, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return false, nil
	}

	n, err := countValue(rows[0][0])
	if err != nil {
		return false, fmt.Errorf("failed to read count for %s: %w", q, err)
	}
	return n > 0, nil
}

// ObjectState is one row of an inventory report.
type ObjectState struct {
	Artifact *Artifact
	Exists   bool
	Err      error
}

// Inventory checks every artifact against the server catalog. Permission
// files carry no object and are reported as absent without a lookup.
func Inventory(ctx context.Context, db Querier, d dialect.Dialect, artifacts []*Artifact) []ObjectState {
	states := make([]ObjectState, 0, len(artifacts))
	for _, a := range artifacts {
		st := ObjectState{Artifact: a}
		if a.Kind != KindPermission {
			name := a.Name
			if a.Kind == KindJob {
				// jobs live in the agent catalog without a schema
				name = QualifiedName{Name: a.Name.Name}
			}
			st.Exists, st.Err = ObjectExists(ctx, db, d, a.Kind, name)
		}
		states = append(states, st)
	}
	return states
}

// countValue normalizes the driver-specific type of a COUNT(*) column.
func countValue(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected count type %T", v)
	}
}
