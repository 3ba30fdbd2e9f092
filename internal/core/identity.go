package core

// Identity is a resolved user identity handed to the core at connection
// time. The core never resolves credentials itself.
type Identity struct {
	UserID string
	Name   string
}

// AnonymousIdentity builds a placeholder identity for connections that
// arrive without a resolved user.
func AnonymousIdentity(suffix string) Identity {
	return Identity{
		UserID: "anon-" + suffix,
		Name:   "Anonymous-" + suffix,
	}
}
