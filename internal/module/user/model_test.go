package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAdministrator(t *testing.T) {
	tests := []struct {
		name       string
		user       *User
		adminEmail string
		want       bool
	}{
		{"nil user", nil, "admin@example.com", false},
		{"flag set", &User{IsAdmin: true}, "", true},
		{"email match", &User{Email: "admin@example.com"}, "admin@example.com", true},
		{"email match is case-insensitive", &User{Email: "Admin@Example.COM"}, "admin@example.com", true},
		{"no match", &User{Email: "user@example.com"}, "admin@example.com", false},
		{"empty admin email never matches", &User{Email: ""}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAdministrator(tt.user, tt.adminEmail))
		})
	}
}
