package models

import (
	"net/url"
	"strings"

	"gorm.io/gorm"
)

// Source represents a configured Xtream Codes provider account.
// Exactly one source is active at a time; all catalog queries and syncs
// operate against the active source.
type Source struct {
	BaseModel

	// Name is a user-friendly name for the source.
	// Must be unique across all sources.
	Name string `gorm:"uniqueIndex;not null;size:255" json:"name"`

	// URL is the Xtream server base URL (e.g. "http://example.com:8080").
	URL string `gorm:"not null;size:2048" json:"url"`

	// Username for Xtream authentication.
	Username string `gorm:"not null;size:255" json:"username"`

	// Password for Xtream authentication.
	Password string `gorm:"not null;size:255" json:"-"`

	// UserAgent to use when fetching from this source (optional).
	UserAgent string `gorm:"size:512" json:"user_agent,omitempty"`

	// Enabled indicates whether this source may be activated.
	// Pointer distinguishes "not set" (nil -> default true) from "explicitly false".
	Enabled *bool `gorm:"default:true" json:"enabled"`

	// Active marks the single source all syncs and queries run against.
	// Switching the active source invalidates cached API clients.
	Active bool `gorm:"default:false;index" json:"active"`

	// CronSchedule for automatic background refresh (optional).
	// Standard cron format: "0 */12 * * *" for every 12 hours.
	CronSchedule string `gorm:"size:100" json:"cron_schedule,omitempty"`

	// LastError contains the error message from the last failed sync.
	LastError string `gorm:"size:4096" json:"last_error,omitempty"`
}

// TableName returns the table name for Source.
func (Source) TableName() string {
	return "sources"
}

// Validate performs basic validation on the source.
func (s *Source) Validate() error {
	if s.Name == "" {
		return ErrNameRequired
	}
	if s.URL == "" {
		return ErrURLRequired
	}
	parsed, err := url.Parse(s.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ErrInvalidURL
	}
	if s.Username == "" || s.Password == "" {
		return ErrCredentialsRequired
	}
	return nil
}

// BeforeCreate is a GORM hook that validates the source and generates its ULID.
func (s *Source) BeforeCreate(tx *gorm.DB) error {
	if err := s.BaseModel.BeforeCreate(tx); err != nil {
		return err
	}
	s.URL = strings.TrimSuffix(s.URL, "/")
	return s.Validate()
}

// BeforeUpdate is a GORM hook that validates the source before update.
func (s *Source) BeforeUpdate(tx *gorm.DB) error {
	s.URL = strings.TrimSuffix(s.URL, "/")
	return s.Validate()
}

// IsEnabled returns whether the source may be activated.
func (s *Source) IsEnabled() bool {
	return BoolVal(s.Enabled)
}
