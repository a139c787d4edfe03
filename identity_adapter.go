package auth

// UserIdentity adapts a User into the Identity interface.
type UserIdentity struct {
	user *User
}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return UserIdentity{user: user}
}

// ID returns the user's ID as a string.
func (u UserIdentity) ID() string {
	if u.user == nil {
		return ""
	}
	return u.user.ID.String()
}

// Username returns the user's username.
func (u UserIdentity) Username() string {
	if u.user == nil {
		return ""
	}
	return u.user.Username
}

// Email returns the user's email address.
func (u UserIdentity) Email() string {
	if u.user == nil {
		return ""
	}
	return u.user.Email
}

// IsAdmin returns the materialized admin flag.
func (u UserIdentity) IsAdmin() bool {
	if u.user == nil {
		return false
	}
	return u.user.IsAdmin
}

// Status returns the user's lifecycle status.
func (u UserIdentity) Status() UserStatus {
	return u.user.Status()
}

// RootIdentity is the virtual principal behind a bootstrap admin session:
// there is no persisted row and no id, so the delegation graph cannot match
// it against edges and treats it as unmanageable.
type RootIdentity struct {
	name string
}

// NewRootIdentity returns the virtual root principal.
func NewRootIdentity(name string) Identity {
	return RootIdentity{name: name}
}

func (r RootIdentity) ID() string       { return "" }
func (r RootIdentity) Username() string { return r.name }
func (r RootIdentity) Email() string    { return "" }
func (r RootIdentity) IsAdmin() bool    { return true }
