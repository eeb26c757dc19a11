package dialect

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDriver = errors.New("unknown database driver")

// GetDialect picks the dialect for a configured driver name. An empty name
// means SQL Server, the only target with job support.
func GetDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlserver", "mssql":
		return &MSSQLDialect{}, nil
	case "postgres", "postgresql":
		return &PostgresDialect{}, nil
	case "mysql", "mariadb":
		return &MysqlDialect{}, nil
	case "oracle":
		return &OracleDialect{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}

var (
	_ Dialect = (*MSSQLDialect)(nil)
	_ Dialect = (*PostgresDialect)(nil)
	_ Dialect = (*MysqlDialect)(nil)
	_ Dialect = (*OracleDialect)(nil)
)
