package domain

import "time"

// User represents an account on the platform. PasswordHash and RefreshToken
// never leave the repository/service layer; Public() strips them.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatar"`
	CoverURL     string    `json:"cover_image,omitempty"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PublicUser is the sanitized view of a user returned by the API.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar"`
	CoverURL  string    `json:"cover_image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public returns the user without credential fields.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CoverURL:  u.CoverURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserSummary is the owner projection joined onto videos and subscription
// listings (username + avatar only).
type UserSummary struct {
	ID        string `json:"id,omitempty"`
	Username  string `json:"username"`
	FullName  string `json:"full_name,omitempty"`
	AvatarURL string `json:"avatar"`
}

// ChannelEntry is a subscribed channel as returned by the channel listing.
type ChannelEntry struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	FullName     string `json:"full_name"`
	AvatarURL    string `json:"avatar"`
	IsSubscribed bool   `json:"isSubscribed"`
}
