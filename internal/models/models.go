package models

import "time"

// User represents an account within the VidTube platform.
//
// PasswordHash and RefreshToken are internal credentials and must never reach
// a response body; PublicUser is the sanitized projection handed to clients.
type User struct {
	ID            string
	Username      string // stored lowercase, unique
	Email         string // unique
	FullName      string
	AvatarURL     string
	CoverImageURL string
	PasswordHash  string
	RefreshToken  string // current valid refresh token, empty when logged out
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Public strips credential fields from the user record.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// PublicUser is the externally visible shape of a user account.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Subscription is a directed edge: subscriber follows channel. Edges are not
// deduplicated; counting treats each row independently.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Video is an owned media record. The identity core only reads these; upload
// and mutation belong to the video service.
type Video struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	ThumbnailURL string
	VideoURL     string
	Duration     float64
	Views        int64
	CreatedAt    time.Time
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// ChannelProfile is the derived channel view returned by the aggregation
// layer. Only these fields are exposed; everything else is withheld.
type ChannelProfile struct {
	FullName                  string `json:"fullName"`
	Username                  string `json:"username"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
	AvatarURL                 string `json:"avatar"`
	CoverImageURL             string `json:"coverImage,omitempty"`
	Email                     string `json:"email"`
}

// VideoOwner is the minimal owner projection embedded in watch history rows.
type VideoOwner struct {
	FullName  string `json:"fullName"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar"`
}

// WatchEntry is one resolved watch-history row: the video plus its owner.
type WatchEntry struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ThumbnailURL string     `json:"thumbnail"`
	VideoURL     string     `json:"videoUrl"`
	Duration     float64    `json:"duration"`
	Views        int64      `json:"views"`
	Owner        VideoOwner `json:"owner"`
}
