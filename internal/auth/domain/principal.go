package domain

const AuthorityPrefix = "ROLE_"

// Principal is the authenticated identity attached to one request. It is
// rebuilt from a verified token on every request and never stored.
type Principal struct {
	AccountID   string
	Username    string
	Role        Role
	Authorities []string
}

func NewPrincipal(accountID, username string, role Role) Principal {
	return Principal{
		AccountID:   accountID,
		Username:    username,
		Role:        role,
		Authorities: []string{AuthorityPrefix + string(role)},
	}
}

// HasAnyRole reports whether the principal holds one of roles.
func (p Principal) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
