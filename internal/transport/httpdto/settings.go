package httpdto

import "truthgate-api/internal/domain/settings"

// SiteSettingsDTO is the public view served at GET /v1/site-settings.
type SiteSettingsDTO struct {
	LiveStreamURL    string `json:"live_stream_url"`
	EmbedURL         string `json:"embed_url"`
	IsLiveNow        bool   `json:"is_live_now"`
	GivingEnabled    bool   `json:"giving_enabled"`
	GatewayPublicKey string `json:"gateway_public_key,omitempty"`
}

// UpdateSiteSettingsRequest is used for PUT /v1/staff/site-settings.
// Omitted fields keep their current value.
type UpdateSiteSettingsRequest struct {
	LiveStreamURL    *string `json:"live_stream_url"`
	IsLiveNow        *bool   `json:"is_live_now"`
	GivingEnabled    *bool   `json:"giving_enabled"`
	GatewayPublicKey *string `json:"gateway_public_key"`
}

func FromSiteSettings(s settings.SiteSettings) SiteSettingsDTO {
	return SiteSettingsDTO{
		LiveStreamURL:    s.LiveStreamURL,
		EmbedURL:         s.EmbedURL(),
		IsLiveNow:        s.IsLiveNow,
		GivingEnabled:    s.GivingEnabled,
		GatewayPublicKey: s.GatewayPublicKey,
	}
}
