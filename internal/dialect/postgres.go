package dialect

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	_ "github.com/lib/pq"
)

type PostgresDialect struct{}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DropIfExists(objectType, name string) string {
	return fmt.Sprintf("DROP %s IF EXISTS %s;", objectType, name)
}

func (d *PostgresDialect) CreateView(name, body string) string {
	return fmt.Sprintf("CREATE VIEW %s AS\n%s;", name, body)
}

// Postgres connections are bound to one database; the DSN selects it.
func (d *PostgresDialect) UseDatabase(db string) string {
	return ""
}

func (d *PostgresDialect) TestQuery() string {
	return "SELECT * FROM information_schema.tables"
}

func (d *PostgresDialect) ExistsQuery(objectType, schema, name string) (string, []any) {
	switch objectType {
	case "VIEW":
		return `SELECT COUNT(*) FROM information_schema.views WHERE table_schema = $1 AND table_name = $2`, []any{schema, name}
	case "FUNCTION", "PROCEDURE":
		return `SELECT COUNT(*) FROM information_schema.routines WHERE routine_schema = $1 AND routine_name = $2 AND routine_type = $3`, []any{schema, name, objectType}
	default:
		return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2`, []any{schema, name}
	}
}

func (d *PostgresDialect) SupportsJobs() bool {
	return false
}

func (d *PostgresDialect) DSN(c Credentials) string {
	host, port := hostPort(c.Host, c.Port, 5432)
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
