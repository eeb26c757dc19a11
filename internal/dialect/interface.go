package dialect

import "errors"

// ErrJobsUnsupported is returned when a job definition targets a database without a job agent.
var ErrJobsUnsupported = errors.New("jobs are not supported by this dialect")

// Credentials identify the target server for DSN construction.
type Credentials struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
}

// Dialect abstracts database-specific DDL generation.
type Dialect interface {
	// DriverName is the database/sql driver the dialect talks through.
	DriverName() string

	// DDL Generation
	DropIfExists(objectType, name string) string
	CreateView(name, body string) string
	UseDatabase(db string) string // "" when the dialect cannot switch databases

	// Metadata Queries
	TestQuery() string
	ExistsQuery(objectType, schema, name string) (string, []any)

	// Capabilities
	SupportsJobs() bool

	// Connection
	DSN(c Credentials) string
}
