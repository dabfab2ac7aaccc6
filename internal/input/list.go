package input

import (
	"bufio"
	"io"
	"strings"
)

// ReadQueries parses a query list out of plain text: one entry per line,
// '#' starts a comment, blank lines are skipped, and only the first
// whitespace-separated field of a line counts. A :port suffix on IPv4 or
// hostname entries is dropped, as is the [addr]:port bracket form.
func ReadQueries(r io.Reader) ([]string, error) {
	var queries []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		queries = append(queries, stripPort(fields[0]))
	}
	return queries, scanner.Err()
}

// stripPort removes a port suffix without mangling IPv6 literals: a bare
// colon-separated port is only assumed when the entry holds exactly one
// colon, which an IPv6 address never does.
func stripPort(s string) string {
	if strings.HasPrefix(s, "[") {
		if i := strings.IndexByte(s, ']'); i > 0 {
			return s[1:i]
		}
	}
	if strings.Count(s, ":") == 1 {
		return s[:strings.IndexByte(s, ':')]
	}
	return s
}
