package dialect

import "strings"

// View returns the drop-if-exists and create statements for a view.
// Lines containing ORDER BY are removed from the body first.
func View(d Dialect, name, body string) []string {
	filtered := strings.TrimRight(StripOrderBy(body), "\r\n")
	return []string{
		d.DropIfExists("VIEW", name),
		d.CreateView(name, filtered),
	}
}

// Function returns the drop-if-exists statement followed by the body, which
// is executed verbatim as the create statement.
func Function(d Dialect, name, body string) []string {
	return []string{d.DropIfExists("FUNCTION", name), body}
}

// StoredProcedure behaves like Function for procedures.
func StoredProcedure(d Dialect, name, body string) []string {
	return []string{d.DropIfExists("PROCEDURE", name), body}
}
