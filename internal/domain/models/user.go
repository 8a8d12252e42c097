package models

import "strings"

// UserStorageKey is the persisted key holding the signed-up user.
const UserStorageKey = "trackbets_user"

// User is the single locally stored account. The password is kept in
// plain text, matching the browser client it replaces.
type User struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// DisplayName returns the first name, or the e-mail local part.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

// SignUpForm is the signup screen's input.
type SignUpForm struct {
	FirstName string `json:"firstName" validate:"required,max=64"`
	LastName  string `json:"lastName" validate:"max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// LoginForm is the login screen's input.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
