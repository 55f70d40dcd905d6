// Package handlers provides HTTP API handlers for ottarr.
package handlers

import (
	"time"

	"github.com/jwhitfield/ottarr/internal/models"
)

// SourceResponse is the API representation of a source. The password is
// never echoed back.
type SourceResponse struct {
	ID           string    `json:"id" doc:"Source ID (ULID)"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Username     string    `json:"username"`
	Enabled      bool      `json:"enabled"`
	Active       bool      `json:"active"`
	CronSchedule string    `json:"cron_schedule,omitempty"`
	LastError    string    `json:"last_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SourceFromModel converts a source model to its API representation.
func SourceFromModel(s *models.Source) SourceResponse {
	return SourceResponse{
		ID:           s.ID.String(),
		Name:         s.Name,
		URL:          s.URL,
		Username:     s.Username,
		Enabled:      s.IsEnabled(),
		Active:       s.Active,
		CronSchedule: s.CronSchedule,
		LastError:    s.LastError,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// CreateSourceRequest is the request body for creating a source.
type CreateSourceRequest struct {
	Name         string `json:"name" minLength:"1" maxLength:"255"`
	URL          string `json:"url" format:"uri"`
	Username     string `json:"username" minLength:"1"`
	Password     string `json:"password" minLength:"1"`
	Enabled      *bool  `json:"enabled,omitempty"`
	CronSchedule string `json:"cron_schedule,omitempty" doc:"Five-field cron expression for background refresh"`
}

// ToModel converts the request to a source model.
func (r CreateSourceRequest) ToModel() *models.Source {
	enabled := r.Enabled
	if enabled == nil {
		enabled = models.BoolPtr(true)
	}
	return &models.Source{
		Name:         r.Name,
		URL:          r.URL,
		Username:     r.Username,
		Password:     r.Password,
		Enabled:      enabled,
		CronSchedule: r.CronSchedule,
	}
}

// UpdateSourceRequest is the request body for updating a source. Zero
// fields keep their current value; an empty password keeps the stored one.
type UpdateSourceRequest struct {
	Name         *string `json:"name,omitempty"`
	URL          *string `json:"url,omitempty"`
	Username     *string `json:"username,omitempty"`
	Password     *string `json:"password,omitempty"`
	Enabled      *bool   `json:"enabled,omitempty"`
	CronSchedule *string `json:"cron_schedule,omitempty"`
}

// Apply copies the set fields onto the source model.
func (r UpdateSourceRequest) Apply(s *models.Source) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.URL != nil {
		s.URL = *r.URL
	}
	if r.Username != nil {
		s.Username = *r.Username
	}
	if r.Password != nil && *r.Password != "" {
		s.Password = *r.Password
	}
	if r.Enabled != nil {
		s.Enabled = r.Enabled
	}
	if r.CronSchedule != nil {
		s.CronSchedule = *r.CronSchedule
	}
}

// ContentItemResponse is the API representation of a content item.
type ContentItemResponse struct {
	StreamID     int64   `json:"stream_id"`
	ContentType  string  `json:"content_type"`
	Name         string  `json:"name"`
	CategoryID   string  `json:"category_id,omitempty"`
	CategoryName string  `json:"category_name,omitempty"`
	Icon         string  `json:"icon,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	IsAdult      bool    `json:"is_adult,omitempty"`
}

// ContentItemFromModel converts a content item model.
func ContentItemFromModel(item *models.ContentItem) ContentItemResponse {
	return ContentItemResponse{
		StreamID:     item.StreamID,
		ContentType:  string(item.ContentType),
		Name:         item.Name,
		CategoryID:   item.CategoryID,
		CategoryName: item.CategoryName,
		Icon:         item.Icon,
		Rating:       item.Rating,
		ReleaseDate:  item.ReleaseDate,
		IsAdult:      item.IsAdult,
	}
}

// FavoriteResponse is the API representation of a favorite.
type FavoriteResponse struct {
	StreamID    int64     `json:"stream_id"`
	ContentType string    `json:"content_type"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

// FavoriteFromModel converts a favorite model.
func FavoriteFromModel(f *models.Favorite) FavoriteResponse {
	return FavoriteResponse{
		StreamID:    f.StreamID,
		ContentType: string(f.ContentType),
		Name:        f.Name,
		Icon:        f.Icon,
		AddedAt:     f.CreatedAt,
	}
}

// WatchHistoryResponse is the API representation of a history entry.
type WatchHistoryResponse struct {
	StreamID     int64     `json:"stream_id"`
	ContentType  string    `json:"content_type"`
	Name         string    `json:"name"`
	PositionSecs int64     `json:"position_secs"`
	DurationSecs int64     `json:"duration_secs"`
	WatchedAt    time.Time `json:"watched_at"`
}

// WatchHistoryFromModel converts a history entry model.
func WatchHistoryFromModel(w *models.WatchHistory) WatchHistoryResponse {
	return WatchHistoryResponse{
		StreamID:     w.StreamID,
		ContentType:  string(w.ContentType),
		Name:         w.Name,
		PositionSecs: w.PositionSecs,
		DurationSecs: w.DurationSecs,
		WatchedAt:    w.WatchedAt,
	}
}
