package settings

import (
	"net/url"
	"strings"
	"time"
)

// SingletonID is the primary key of the only site_settings row.
const SingletonID = 1

// SiteSettings represents the site_settings table
type SiteSettings struct {
	ID               int    `gorm:"primaryKey;autoIncrement:false"`
	LiveStreamURL    string `gorm:"size:500"`
	IsLiveNow        bool   `gorm:"not null;default:false"`
	GivingEnabled    bool   `gorm:"not null"`
	GatewayPublicKey string `gorm:"size:100"`
	UpdatedAt        time.Time
}

func (SiteSettings) TableName() string {
	return "site_settings"
}

func Defaults() SiteSettings {
	return SiteSettings{
		ID:            SingletonID,
		GivingEnabled: true,
	}
}

// EmbedURL turns YouTube watch and short links into embeddable URLs.
// Anything else is returned unchanged.
func (s SiteSettings) EmbedURL() string {
	raw := s.LiveStreamURL
	if raw == "" {
		return ""
	}

	if strings.Contains(raw, "youtube.com/watch") {
		if parsed, err := url.Parse(raw); err == nil {
			if id := parsed.Query().Get("v"); id != "" {
				return "https://www.youtube.com/embed/" + id
			}
		}
	}

	if idx := strings.Index(raw, "youtu.be/"); idx >= 0 {
		id := raw[idx+len("youtu.be/"):]
		if q := strings.IndexByte(id, '?'); q >= 0 {
			id = id[:q]
		}
		return "https://www.youtube.com/embed/" + id
	}

	return raw
}
