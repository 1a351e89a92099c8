package vesta

import "strings"

// Account is a hosting account as the billing side knows it.
// The adapter only reads it to build remote commands.
type Account struct {
	Username string
	Password string
	Domain   string
	Client   Client
	Package  Package
}

// Package is the hosting plan assigned to an account.
type Package struct {
	Name string
}

// Client is the owner of an account.
type Client struct {
	FullName string
	Email    string
}

// SplitName splits the full name into first and last name. The last
// space-separated token is the last name, everything before it is the
// first name. Both parts are trimmed.
func (c Client) SplitName() (first, last string) {
	parts := strings.Split(c.FullName, " ")
	last = parts[len(parts)-1]
	first = strings.Join(parts[:len(parts)-1], " ")
	return strings.TrimSpace(first), strings.TrimSpace(last)
}

func packageName(p Package) string {
	return p.Name
}
