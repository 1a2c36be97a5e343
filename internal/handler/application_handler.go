package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/dto"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/service"
	appErrors "github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/errors"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/response"
)

// ApplicationHandler exposes the administrator console endpoints.
type ApplicationHandler struct {
	applications *service.ApplicationService
	certificates *service.CertificateService
}

// NewApplicationHandler constructs an ApplicationHandler.
func NewApplicationHandler(applications *service.ApplicationService, certificates *service.CertificateService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, certificates: certificates}
}

// List godoc
// @Summary List applications
// @Tags Applications
// @Produce json
// @Param status query string false "Filter by status"
// @Param search query string false "Search by PRN or name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	filter := applicationFilterFromQuery(c)

	apps, pagination, err := h.applications.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, apps, pagination)
}

// Get godoc
// @Summary View a single application
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	app, err := h.applications.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// UpdateStatus godoc
// @Summary Set application status
// @Tags Applications
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body dto.UpdateStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id}/status [patch]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	app, err := h.applications.SetStatus(c.Request.Context(), c.Param("id"), models.ApplicationStatus(req.Status), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, app, nil)
}

// Certificate godoc
// @Summary Assemble certificate data
// @Tags Applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id}/certificate [get]
func (h *ApplicationHandler) Certificate(c *gin.Context) {
	data, err := h.certificates.AssembleData(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, data, nil)
}

// CertificatePDF godoc
// @Summary Download the rendered certificate
// @Tags Applications
// @Produce application/pdf
// @Param id path string true "Application ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /applications/{id}/certificate/pdf [get]
func (h *ApplicationHandler) CertificatePDF(c *gin.Context) {
	pdf, filename, err := h.certificates.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ExportCSV godoc
// @Summary Export applications as CSV
// @Tags Applications
// @Produce text/csv
// @Param status query string false "Filter by status"
// @Success 200 {file} binary
// @Router /applications/export.csv [get]
func (h *ApplicationHandler) ExportCSV(c *gin.Context) {
	payload, err := h.applications.ExportCSV(c.Request.Context(), applicationFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="applications.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

func applicationFilterFromQuery(c *gin.Context) models.ApplicationFilter {
	var filter models.ApplicationFilter
	filter.Status = models.ApplicationStatus(c.Query("status"))
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}
