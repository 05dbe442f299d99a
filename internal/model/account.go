// Package model defines the data structures used throughout the application.
package model

import "time"

// Account represents one logged-in session's user record.
//
// UserID is a random 32-hex-character string that doubles as the session
// identifier handed to the client (inside the signed session cookie). It is
// the primary key of the account store.
//
// WHY NOT KEYED BY GitHubID?
// Every successful OAuth login creates a fresh Account, even for a GitHub
// account we've already seen. GitHubID is kept (indexed, NOT unique) so the
// duplication is observable, but it is never used to look an account up.
//
// EncryptedAccessToken is the GitHub bearer token sealed with the process key
// (see auth.Vault). The plaintext token never lives on this struct.
type Account struct {
	UserID               string    `json:"userId"      db:"user_id"`
	GitHubID             int64     `json:"githubId"    db:"github_id"`    // GitHub's numeric user ID
	Login                string    `json:"login"       db:"login"`        // GitHub username, e.g. "octocat"
	DisplayName          string    `json:"displayName" db:"display_name"` // Profile "name" (may be empty)
	Email                string    `json:"email"       db:"email"`        // Public email (may be empty)
	AvatarURL            string    `json:"avatarUrl"   db:"avatar_url"`
	EncryptedAccessToken []byte    `json:"-"           db:"encrypted_token"`
	CreatedAt            time.Time `json:"createdAt"   db:"created_at"`
}

// Profile is the public slice of an Account returned to the client.
type Profile struct {
	Login        string `json:"login"`
	ProfileImage string `json:"profile_image"`
}

// GitHubProfile is what GitHub's /user endpoint tells us about the
// authenticated user.
type GitHubProfile struct {
	ID        int64
	Login     string
	Name      string
	Email     string
	AvatarURL string
}
