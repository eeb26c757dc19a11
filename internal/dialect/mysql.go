package dialect

import (
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

type MysqlDialect struct{}

func (d *MysqlDialect) DriverName() string {
	return "mysql"
}

func (d *MysqlDialect) DropIfExists(objectType, name string) string {
	return fmt.Sprintf("DROP %s IF EXISTS %s;", objectType, name)
}

func (d *MysqlDialect) CreateView(name, body string) string {
	return fmt.Sprintf("CREATE VIEW %s AS\n%s;", name, body)
}

func (d *MysqlDialect) UseDatabase(db string) string {
	if db == "" {
		return ""
	}
	return fmt.Sprintf("USE %s;", db)
}

func (d *MysqlDialect) TestQuery() string {
	return "SELECT * FROM information_schema.TABLES"
}

func (d *MysqlDialect) ExistsQuery(objectType, schema, name string) (string, []any) {
	switch objectType {
	case "FUNCTION", "PROCEDURE":
		return `SELECT COUNT(*) FROM information_schema.ROUTINES WHERE ROUTINE_SCHEMA = ? AND ROUTINE_NAME = ? AND ROUTINE_TYPE = ?`, []any{schema, name, objectType}
	default:
		// views are listed in TABLES with TABLE_TYPE = 'VIEW'
		return `SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?`, []any{schema, name}
	}
}

func (d *MysqlDialect) SupportsJobs() bool {
	return false
}

func (d *MysqlDialect) DSN(c Credentials) string {
	host, port := hostPort(c.Host, c.Port, 3306)
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = c.Database
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}
