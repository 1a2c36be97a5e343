package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/dto"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/service"
	appErrors "github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/errors"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/response"
)

// VerificationHandler is the transport-facing adapter for the verification
// dialogue. A messaging gateway posts discrete requester events here and
// relays the returned prompt back to the requester.
type VerificationHandler struct {
	verification *service.VerificationService
}

// NewVerificationHandler constructs a VerificationHandler.
func NewVerificationHandler(verification *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// HandleEvent godoc
// @Summary Process a requester event
// @Description Feeds one transport event into the verification dialogue and returns the reply prompt
// @Tags Verification
// @Accept json
// @Produce json
// @Param payload body dto.EventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /events [post]
func (h *VerificationHandler) HandleEvent(c *gin.Context) {
	var req dto.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	prompt, err := h.verification.HandleEvent(c.Request.Context(), req.ToModel())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, prompt, nil)
}
