package auth

import "fmt"

// Role is the coarse access-control tag carried by every user and token.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin:
		return true
	}
	return false
}

// ParseRole maps an external value onto a Role. An empty value yields RoleCustomer.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleCustomer, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
