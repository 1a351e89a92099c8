package server

// Login is the account an SSHServer authenticates as.
type Login struct {
	User string
	// KeyFile is a private key path; "~/" expands to the home directory.
	KeyFile string
	// SudoPassword is fed to sudo on stdin when set.
	SudoPassword string
}

func (l Login) isRoot() bool {
	return l.User == "root"
}
