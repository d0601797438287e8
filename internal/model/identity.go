package model

// Identity is the caller of a request.  The session middleware builds it
// once from the verified session cookie; handlers receive it from the echo
// context and never look at cookies themselves.  The zero value is an
// anonymous visitor.
type Identity struct {
	UserID   uint64
	Role     Role
	Status   Status
	Email    string
	FullName string
}

// Authenticated reports whether the request carries a logged-in user.
func (i Identity) Authenticated() bool { return i.UserID != 0 }

// IdentityOf derives the session identity from a user row.
func IdentityOf(u User) Identity {
	return Identity{UserID: u.ID, Role: u.Role, Status: u.Status, Email: u.Email, FullName: u.FullName}
}

// Actor identifies who performed a privileged mutation, for the audit log.
type Actor struct {
	UserID uint64
	IP     string
}
