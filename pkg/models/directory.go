package models

import "time"

// User is a platform principal. PasswordHash is a bcrypt hash consumed
// by the internal authenticator; external authenticators (LDAP) ignore it.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username" validate:"required,min=2"`
	Email        string    `json:"email,omitempty" validate:"omitempty,email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Group is a named set of users and nested groups. Group hierarchies are
// a DAG in principle but membership resolution treats them as a general
// graph and guards against cycles.
type Group struct {
	ID             string    `json:"id"`
	Name           string    `json:"name" validate:"required,min=1"`
	MemberUserIDs  []string  `json:"member_user_ids,omitempty"`
	MemberGroupIDs []string  `json:"member_group_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasUser reports whether the user is a direct member of the group.
func (g *Group) HasUser(userID string) bool {
	for _, id := range g.MemberUserIDs {
		if id == userID {
			return true
		}
	}

	return false
}
