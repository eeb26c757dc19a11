package dialect

import (
	"fmt"
	"strings"

	go_ora "github.com/sijms/go-ora/v2"
)

type OracleDialect struct{}

func (d *OracleDialect) DriverName() string {
	return "oracle"
}

// DropIfExists wraps the drop in a PL/SQL block that swallows "does not exist"
// (ORA-00942 for tables and views, ORA-04043 for functions and procedures).
func (d *OracleDialect) DropIfExists(objectType, name string) string {
	code := "-942"
	if objectType == "FUNCTION" || objectType == "PROCEDURE" {
		code = "-4043"
	}
	return fmt.Sprintf(`BEGIN
    EXECUTE IMMEDIATE 'DROP %s %s';
EXCEPTION
    WHEN OTHERS THEN
        IF SQLCODE != %s THEN
            RAISE;
        END IF;
END;`, objectType, name, code)
}

// go-ora rejects a trailing semicolon on plain SQL statements.
func (d *OracleDialect) CreateView(name, body string) string {
	return fmt.Sprintf("CREATE VIEW %s AS\n%s", name, strings.TrimRight(body, "; \t\r\n"))
}

func (d *OracleDialect) UseDatabase(db string) string {
	return ""
}

func (d *OracleDialect) TestQuery() string {
	return "SELECT * FROM USER_TABLES"
}

func (d *OracleDialect) ExistsQuery(objectType, schema, name string) (string, []any) {
	return `SELECT COUNT(*) FROM ALL_OBJECTS WHERE OWNER = UPPER(:1) AND OBJECT_NAME = UPPER(:2) AND OBJECT_TYPE = :3`, []any{schema, name, objectType}
}

func (d *OracleDialect) SupportsJobs() bool {
	return false
}

// DSN treats the database name as the Oracle service name.
func (d *OracleDialect) DSN(c Credentials) string {
	host, port := hostPort(c.Host, c.Port, 1521)
	return go_ora.BuildUrl(host, port, c.Database, c.User, c.Password, nil)
}
