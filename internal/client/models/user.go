package models

import (
	"encoding/json"
	"time"
)

// User is the session snapshot stored under KeyUserData and the user
// document returned by the server.
type User struct {
	ID             string     `json:"id,omitempty"`
	Email          string     `json:"email"`
	Username       string     `json:"username,omitempty"`
	Name           string     `json:"name,omitempty"`
	Bio            string     `json:"bio,omitempty"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	FontSize       string     `json:"fontSize,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

func (u *User) UnmarshalJSON(b []byte) error {
	type alias User
	aux := struct {
		*alias
		DocID string `json:"_id"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = aux.DocID
	}
	return nil
}

// LocalUser is a cached account owned by the local vault.
type LocalUser struct {
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"passwordHash"`
	CreatedAt      time.Time `json:"createdAt"`
	Name           string    `json:"name,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
}

// Public drops the password hash.
func (l LocalUser) Public() User {
	createdAt := l.CreatedAt
	return User{
		ID:             l.Email,
		Email:          l.Email,
		Username:       l.Username,
		Name:           l.Name,
		Bio:            l.Bio,
		ProfilePicture: l.ProfilePicture,
		CreatedAt:      &createdAt,
	}
}

// AuthResponse is returned by signup and login, remote or local.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Session is what the orchestrator persists on a successful auth.
type Session struct {
	Token string
	User  User
}

// Offline reports whether the session runs on an offline token.
func (s Session) Offline() bool { return IsOfflineToken(s.Token) }

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	Name           *string `json:"name,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	FontSize       *string `json:"fontSize,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
	Username       *string `json:"username,omitempty"`
	Email          *string `json:"email,omitempty"`
}

// Remote returns the subset accepted by PUT /users/profile.
func (p ProfileUpdate) Remote() ProfileUpdate {
	return ProfileUpdate{
		Name:           p.Name,
		Bio:            p.Bio,
		FontSize:       p.FontSize,
		ProfilePicture: p.ProfilePicture,
	}
}

// Apply merges non-nil fields into u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.FontSize != nil {
		u.FontSize = *p.FontSize
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
}
