// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registry account backed by exactly one GitHub identity.
//
// ID is our own stable primary key. GitHubID is the provider's numeric id and
// is UNIQUE in the store: it is the reconciliation key on every sign-in.
// Login, Email, AvatarURL, Name and GitHubAccessToken are refreshed from the
// provider on each sign-in; ID, GitHubID, APIToken and CreatedAt are not.
//
// Optional profile fields use the empty string as "absent", the same way the
// provider omits a hidden email.
//
// The two secrets are tagged json:"-" so a User can never leak them through a
// response body by accident. /me returns the API token explicitly.
type User struct {
	ID                int64     `json:"id"`
	GitHubID          int64     `json:"-"`
	Login             string    `json:"login"`
	Email             string    `json:"email,omitempty"`
	AvatarURL         string    `json:"avatar,omitempty"`
	Name              string    `json:"name,omitempty"`
	GitHubAccessToken string    `json:"-"`
	APIToken          string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Identity is what the OAuth provider tells us about the person signing in.
type Identity struct {
	GitHubID    int64
	Login       string
	Email       string
	AvatarURL   string
	Name        string
	AccessToken string
}

// PublicUser is the view of a user served to anyone, signed in or not.
type PublicUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
	URL       string `json:"url"`
}

// Public builds the public view, pointing url at the GitHub profile.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Login:     u.Login,
		Email:     u.Email,
		Name:      u.Name,
		AvatarURL: u.AvatarURL,
		URL:       "https://github.com/" + u.Login,
	}
}
