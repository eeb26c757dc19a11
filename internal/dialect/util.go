package dialect

import (
	"net"
	"strconv"
	"strings"
)

// StripOrderBy removes every line containing the substring "ORDER BY".
// The match is case-sensitive and ignores context, so a line that mentions
// ORDER BY inside a string literal or a subquery is removed as well.
func StripOrderBy(body string) string {
	lines := strings.Split(body, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, "ORDER BY") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// QuoteString renders s as a single-quoted SQL literal.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// hostPort splits "host:port" and falls back to the given port when none is present.
func hostPort(host string, port, defaultPort int) (string, int) {
	if h, p, err := net.SplitHostPort(host); err == nil {
		if n, err := strconv.Atoi(p); err == nil {
			return h, n
		}
		return h, defaultPort
	}
	if port == 0 {
		port = defaultPort
	}
	return host, port
}
