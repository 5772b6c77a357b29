package domain

// Profile holds the identity service's view of the current user.
type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// Session is the authenticated-identity state of the client: an opaque
// bearer credential plus the matching profile, or neither.
type Session struct {
	Credential string   `json:"credential,omitempty"`
	Profile    *Profile `json:"profile,omitempty"`
}

// Authenticated reports whether the session holds a credential and a
// profile. The two are only ever stored together.
func (s Session) Authenticated() bool {
	return s.Credential != "" && s.Profile != nil
}
