package auth

import "strings"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	default:
		return RoleCustomer
	}
}

func IsAdmin(role string) bool {
	return NormalizeRole(role) == RoleAdmin
}
