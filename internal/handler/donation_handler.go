package handler

import (
	"context"
	"net/http"

	"truthgate-api/internal/domain/donation"
	"truthgate-api/internal/services"
	"truthgate-api/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type DonationService interface {
	InitiateDonation(ctx context.Context, in services.InitiateInput) (services.InitiateResult, error)
	DonationStatus(ctx context.Context, reference string) (services.DonationView, error)
	ListDonations(ctx context.Context, page, limit int) ([]donation.Donation, int64, error)
}

type DonationHandler struct {
	service DonationService
}

func NewDonationHandler(service DonationService) *DonationHandler {
	return &DonationHandler{service: service}
}

func (h *DonationHandler) Initiate(c *gin.Context) {
	var req httpdto.InitiateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	res, err := h.service.InitiateDonation(c.Request.Context(), services.InitiateInput{
		Email:  req.Email,
		Amount: req.Amount,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(res))
}

func (h *DonationHandler) Status(c *gin.Context) {
	view, err := h.service.DonationStatus(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(view))
}

// List is the staff ledger view.
func (h *DonationHandler) List(c *gin.Context) {
	page, limit, ok := pagination(c)
	if !ok {
		return
	}
	items, total, err := h.service.ListDonations(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]httpdto.DonationDTO, 0, len(items))
	for _, d := range items {
		out = append(out, httpdto.FromDonation(d))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.Page[httpdto.DonationDTO]{
		Items: out,
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}
