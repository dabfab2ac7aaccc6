package input

import (
	"strings"
	"testing"
)

func TestReadQueries(t *testing.T) {
	text := `# proxy dump 2024-01-03
10.0.0.1
10.0.0.2:8080 some trailing note
  192.168.1.1   # inline comment

[2001:db8::1]:443
2001:db8::2
example.com:3128
`

	queries, err := ReadQueries(strings.NewReader(text))
	if err != nil {
		t.Fatalf("ReadQueries returned error: %v", err)
	}

	want := []string{
		"10.0.0.1",
		"10.0.0.2",
		"192.168.1.1",
		"2001:db8::1",
		"2001:db8::2",
		"example.com",
	}
	if len(queries) != len(want) {
		t.Fatalf("got %d queries %v, want %d", len(queries), queries, len(want))
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Fatalf("query %d is %q, want %q", i, queries[i], want[i])
		}
	}
}

func TestStripPort(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"10.0.0.1", "10.0.0.1"},
		{"10.0.0.1:8080", "10.0.0.1"},
		{"example.com:3128", "example.com"},
		{"2001:db8::1", "2001:db8::1"}, // multiple colons, never a port
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"[2001:db8::1]", "2001:db8::1"},
		{"::1", "::1"},
	}

	for _, tc := range cases {
		if got := stripPort(tc.in); got != tc.want {
			t.Fatalf("stripPort(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
