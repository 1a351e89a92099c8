package strutil

import "testing"

func TestShellEscape(t *testing.T) {
	tests := map[string]string{
		"":         "''",
		"alice":    "'alice'",
		"it's":     `'it'"'"'s'`,
		"a b; rm":  "'a b; rm'",
		"$(id -u)": "'$(id -u)'",
	}
	for in, want := range tests {
		if got := ShellEscape(in); got != want {
			t.Errorf("ShellEscape(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"alice", "bob_01", "web-admin", "a.b"}
	for _, v := range valid {
		if err := ValidateIdentifier("account", v); err != nil {
			t.Errorf("expected %q to be valid, got %v", v, err)
		}
	}

	invalid := []string{"", " ", " alice", "alice ", "al ice", "al;ice", "ünï"}
	for _, v := range invalid {
		if err := ValidateIdentifier("account", v); err == nil {
			t.Errorf("expected %q to be invalid", v)
		}
	}
}
