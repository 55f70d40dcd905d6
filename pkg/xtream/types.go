package xtream

import (
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// AuthInfo contains the combined server and user information returned by the API.
type AuthInfo struct {
	UserInfo   UserInfo   `json:"user_info"`
	ServerInfo ServerInfo `json:"server_info"`
}

// UserInfo contains user account information.
type UserInfo struct {
	Username             string   `json:"username"`
	Message              string   `json:"message"`
	Auth                 FlexInt  `json:"auth"`
	Status               string   `json:"status"`
	ExpDate              FlexInt  `json:"exp_date"`
	IsTrial              FlexInt  `json:"is_trial"`
	ActiveConnections    FlexInt  `json:"active_cons"`
	MaxConnections       FlexInt  `json:"max_connections"`
	AllowedOutputFormats []string `json:"allowed_output_formats"`
}

// IsAuthenticated returns true if the user is authenticated.
func (u *UserInfo) IsAuthenticated() bool {
	return u.Auth.Int() == 1 && u.Status == "Active"
}

// ExpirationTime returns the account expiration time.
func (u *UserInfo) ExpirationTime() time.Time {
	if u.ExpDate.Int() == 0 {
		return time.Time{}
	}
	return time.Unix(u.ExpDate.Int(), 0)
}

// IsExpired returns true if the account has expired.
func (u *UserInfo) IsExpired() bool {
	exp := u.ExpirationTime()
	if exp.IsZero() {
		return false
	}
	return time.Now().After(exp)
}

// ServerInfo contains server configuration information.
type ServerInfo struct {
	URL            string  `json:"url"`
	Port           FlexInt `json:"port"`
	HTTPSPort      FlexInt `json:"https_port"`
	ServerProtocol string  `json:"server_protocol"`
	Timezone       string  `json:"timezone"`
	TimestampNow   FlexInt `json:"timestamp_now"`
}

// Category represents a content category.
type Category struct {
	CategoryID   FlexString `json:"category_id"`
	CategoryName string     `json:"category_name"`
	ParentID     FlexInt    `json:"parent_id"`
}

// Stream represents one row of a catalog list response. The three list
// endpoints share most fields; SeriesID is populated instead of StreamID
// for series rows, and series rows carry Cover instead of StreamIcon.
type Stream struct {
	Num                FlexInt    `json:"num"`
	Name               string     `json:"name"`
	StreamType         string     `json:"stream_type"`
	StreamID           FlexInt    `json:"stream_id"`
	SeriesID           FlexInt    `json:"series_id"`
	StreamIcon         string     `json:"stream_icon"`
	Cover              string     `json:"cover"`
	EPGChannelID       string     `json:"epg_channel_id"`
	Added              FlexInt    `json:"added"`
	IsAdult            FlexInt    `json:"is_adult"`
	CategoryID         FlexString `json:"category_id"`
	Rating             FlexFloat  `json:"rating"`
	ReleaseDate        string     `json:"releaseDate"`
	ContainerExtension string     `json:"container_extension"`
	LastModified       FlexInt    `json:"last_modified"`
}

// ID returns the provider identity for the row: StreamID for live and VOD
// rows, SeriesID for series rows.
func (s *Stream) ID() int64 {
	if s.SeriesID.Int() != 0 {
		return s.SeriesID.Int()
	}
	return s.StreamID.Int()
}

// Icon returns the artwork URL for the row, whichever field carries it.
func (s *Stream) Icon() string {
	if s.StreamIcon != "" {
		return s.StreamIcon
	}
	return s.Cover
}

// AddedTime returns the time the item was added to the catalog.
func (s *Stream) AddedTime() time.Time {
	if s.Added.Int() == 0 {
		return time.Time{}
	}
	return time.Unix(s.Added.Int(), 0)
}

// SeriesInfo contains detailed information about a series including episodes.
type SeriesInfo struct {
	Seasons  []SeasonInfo         `json:"seasons"`
	Info     SeriesInfoDetails    `json:"info"`
	Episodes map[string][]Episode `json:"episodes"`
}

// SeasonInfo contains information about a season.
type SeasonInfo struct {
	AirDate      string `json:"air_date"`
	EpisodeCount int    `json:"episode_count"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	SeasonNumber int    `json:"season_number"`
	Cover        string `json:"cover"`
}

// SeriesInfoDetails contains the series metadata.
type SeriesInfoDetails struct {
	Name        string     `json:"name"`
	Cover       string     `json:"cover"`
	Plot        string     `json:"plot"`
	Cast        string     `json:"cast"`
	Director    string     `json:"director"`
	Genre       string     `json:"genre"`
	ReleaseDate string     `json:"releaseDate"`
	Rating      FlexFloat  `json:"rating"`
	CategoryID  FlexString `json:"category_id"`
}

// Episode represents a single episode in a series.
type Episode struct {
	ID                 FlexInt `json:"id"`
	EpisodeNum         FlexInt `json:"episode_num"`
	Title              string  `json:"title"`
	ContainerExtension string  `json:"container_extension"`
	Added              FlexInt `json:"added"`
	Season             FlexInt `json:"season"`
}

// VODInfo contains detailed information about a VOD item.
type VODInfo struct {
	Info      VODInfoDetails `json:"info"`
	MovieData Stream         `json:"movie_data"`
}

// VODInfoDetails contains the detailed metadata for a VOD item.
type VODInfoDetails struct {
	MovieImage   string    `json:"movie_image"`
	Genre        string    `json:"genre"`
	Plot         string    `json:"plot"`
	Cast         string    `json:"cast"`
	Rating       FlexFloat `json:"rating"`
	Director     string    `json:"director"`
	ReleaseDate  string    `json:"releasedate"`
	Duration     string    `json:"duration"`
	DurationSecs FlexInt   `json:"duration_secs"`
}

// FlexInt handles JSON numbers that may be strings or integers.
type FlexInt int64

// Int returns the integer value.
func (f FlexInt) Int() int64 {
	return int64(f)
}

// UnmarshalJSON handles both string and number JSON values.
// Malformed values decode as zero rather than failing the row.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			// Some panels send floats as strings for integer fields.
			if fl, ferr := strconv.ParseFloat(s, 64); ferr == nil {
				*f = FlexInt(int64(fl))
				return nil
			}
			*f = 0
			return nil
		}
		*f = FlexInt(n)
		return nil
	}

	*f = 0
	return nil
}

// FlexFloat handles JSON numbers that may be strings or floats.
type FlexFloat float64

// Float returns the float value.
func (f FlexFloat) Float() float64 {
	return float64(f)
}

// UnmarshalJSON handles both string and number JSON values.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexFloat(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(n)
		return nil
	}

	*f = 0
	return nil
}

// FlexString handles JSON values that may be strings or numbers.
type FlexString string

// String returns the string value.
func (f FlexString) String() string {
	return string(f)
}

// UnmarshalJSON handles both string and number JSON values.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	*f = ""
	return nil
}
