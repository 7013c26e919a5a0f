package ids

import (
	"strings"
	"testing"
)

func TestNewWithPrefix(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewWithPrefix(PrefixUser)
		if !strings.HasPrefix(id, "usr_") {
			t.Fatalf("unexpected id: %s", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestKind(t *testing.T) {
	cases := map[string]string{
		NewWithPrefix(PrefixUser):    PrefixUser,
		NewWithPrefix(PrefixProgram): PrefixProgram,
		NewWithPrefix(PrefixReport):  PrefixReport,
		"no-prefix":                  "",
	}
	for id, want := range cases {
		if got := Kind(id); got != want {
			t.Fatalf("Kind(%s) = %q, want %q", id, got, want)
		}
	}
}
