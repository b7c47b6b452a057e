package models

import (
	"time"

	"github.com/google/uuid"
)

// KeyStatus is the lifecycle state of a YouTube Data API key.
type KeyStatus string

const (
	KeyStatusValid         KeyStatus = "valid"
	KeyStatusInvalid       KeyStatus = "invalid"
	KeyStatusChecking      KeyStatus = "checking"
	KeyStatusQuotaExceeded KeyStatus = "quota_exceeded"
	KeyStatusUnknown       KeyStatus = "unknown"
)

// APIKey is one credential in the rotating pool. Identity is the key value
// itself; the pool never holds two entries with the same value.
type APIKey struct {
	Value        string    `json:"value" db:"key_value"`
	Status       KeyStatus `json:"status" db:"status"`
	DailyUsage   int       `json:"daily_usage" db:"daily_usage"`
	LastUsedDate string    `json:"last_used_date" db:"last_used_date"`
	Error        string    `json:"error,omitempty" db:"error_message"`
}

// QuotaUsage is the ledger snapshot pushed to quota observers.
type QuotaUsage struct {
	Session int `json:"session"`
	Daily   int `json:"daily"`
}

// ChannelStatus tags the outcome of a channel metadata fetch.
type ChannelStatus string

const (
	ChannelStatusActive     ChannelStatus = "active"
	ChannelStatusTerminated ChannelStatus = "terminated"
	ChannelStatusError      ChannelStatus = "error"
)

// VideoStat is a read-model snapshot of a single video. Counters stay as the
// decimal strings the Data API returns them in.
type VideoStat struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	PublishedAt  string `json:"published_at"`
	ViewCount    string `json:"view_count"`
	LikeCount    string `json:"like_count"`
	CommentCount string `json:"comment_count"`
}

// ChannelStats is the aggregate read model for one channel. A fresh value is
// produced by every fetch; it is never mutated in place.
type ChannelStats struct {
	ChannelID         string        `json:"channel_id"`
	Title             string        `json:"title"`
	ThumbnailURL      string        `json:"thumbnail_url"`
	SubscriberCount   string        `json:"subscriber_count"`
	ViewCount         string        `json:"view_count"`
	VideoCount        string        `json:"video_count"`
	PublishedAt       string        `json:"published_at"`
	UploadsPlaylistID string        `json:"uploads_playlist_id"`
	Status            ChannelStatus `json:"status"`
	Monetizable       bool          `json:"monetizable"`
	EngagementRatio   float64       `json:"engagement_ratio"`
	NewestVideo       *VideoStat    `json:"newest_video,omitempty"`
	OldestVideo       *VideoStat    `json:"oldest_video,omitempty"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// VideoPage is one page of a channel's uploads playlist.
type VideoPage struct {
	Videos        []VideoStat `json:"videos"`
	NextPageToken string      `json:"next_page_token,omitempty"`
}

// MovieStatus tracks a production task through its pipeline.
type MovieStatus string

const (
	MovieStatusPlanned   MovieStatus = "planned"
	MovieStatusFilming   MovieStatus = "filming"
	MovieStatusEditing   MovieStatus = "editing"
	MovieStatusPublished MovieStatus = "published"
)

// Movie is a production task, optionally linked to a tracked channel.
type Movie struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	Title     string      `json:"title" db:"title"`
	Status    MovieStatus `json:"status" db:"status"`
	ChannelID string      `json:"channel_id,omitempty" db:"channel_id"`
	Notes     string      `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// Request/response shapes for the REST surface.

type SetKeysRequest struct {
	Keys []string `json:"keys" binding:"required"`
}

type KeyListItem struct {
	MaskedValue  string    `json:"masked_value"`
	Status       KeyStatus `json:"status"`
	DailyUsage   int       `json:"daily_usage"`
	LastUsedDate string    `json:"last_used_date,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type KeyListResponse struct {
	Keys         []KeyListItem `json:"keys"`
	CurrentIndex int           `json:"current_index"`
}

type QuotaResponse struct {
	Session      int `json:"session"`
	Daily        int `json:"daily"`
	CurrentIndex int `json:"current_index"`
}

type AddChannelRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

type ChannelListResponse struct {
	Total    int            `json:"total"`
	Channels []ChannelStats `json:"channels"`
}

type CreateMovieRequest struct {
	Title     string      `json:"title" binding:"required"`
	Status    MovieStatus `json:"status,omitempty"`
	ChannelID string      `json:"channel_id,omitempty"`
	Notes     string      `json:"notes,omitempty"`
}

type UpdateMovieRequest struct {
	Title  string      `json:"title,omitempty"`
	Status MovieStatus `json:"status,omitempty"`
	Notes  *string     `json:"notes,omitempty"`
}

type MovieListResponse struct {
	Total  int     `json:"total"`
	Movies []Movie `json:"movies"`
}
