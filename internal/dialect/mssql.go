package dialect

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	_ "github.com/microsoft/go-mssqldb" // SQL Server Driver
)

type MSSQLDialect struct{}

func (d *MSSQLDialect) DriverName() string {
	return "sqlserver"
}

func (d *MSSQLDialect) DropIfExists(objectType, name string) string {
	return fmt.Sprintf("IF OBJECT_ID(%s) IS NOT NULL DROP %s %s;", QuoteString(name), objectType, name)
}

func (d *MSSQLDialect) CreateView(name, body string) string {
	return fmt.Sprintf("CREATE VIEW %s AS\n%s;", name, body)
}

func (d *MSSQLDialect) UseDatabase(db string) string {
	if db == "" {
		return ""
	}
	return fmt.Sprintf("USE %s;", db)
}

func (d *MSSQLDialect) TestQuery() string {
	return "SELECT * FROM INFORMATION_SCHEMA.TABLES"
}

func (d *MSSQLDialect) ExistsQuery(objectType, schema, name string) (string, []any) {
	if objectType == "JOB" {
		return `SELECT COUNT(*) FROM msdb.dbo.sysjobs WHERE name = @p1`, []any{name}
	}
	// OBJECT_ID resolves views, tables, functions and procedures alike
	return `SELECT COUNT(*) FROM sys.objects WHERE object_id = OBJECT_ID(@p1)`, []any{schema + "." + name}
}

func (d *MSSQLDialect) SupportsJobs() bool {
	return true
}

func (d *MSSQLDialect) DSN(c Credentials) string {
	host, port := hostPort(c.Host, c.Port, 1433)
	query := url.Values{}
	if c.Database != "" {
		query.Set("database", c.Database)
	}
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		RawQuery: query.Encode(),
	}
	return u.String()
}
