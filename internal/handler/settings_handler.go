package handler

import (
	"context"
	"net/http"

	"truthgate-api/internal/domain/settings"
	"truthgate-api/internal/services"
	"truthgate-api/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type SettingsService interface {
	Current() settings.SiteSettings
	Update(ctx context.Context, patch services.SettingsPatch) (settings.SiteSettings, error)
}

type SettingsHandler struct {
	service SettingsService
}

func NewSettingsHandler(service SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromSiteSettings(h.service.Current())))
}

func (h *SettingsHandler) Update(c *gin.Context) {
	var req httpdto.UpdateSiteSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	updated, err := h.service.Update(c.Request.Context(), services.SettingsPatch{
		LiveStreamURL:    req.LiveStreamURL,
		IsLiveNow:        req.IsLiveNow,
		GivingEnabled:    req.GivingEnabled,
		GatewayPublicKey: req.GatewayPublicKey,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.FromSiteSettings(updated)))
}
