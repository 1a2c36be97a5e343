package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/internal/models"
	"github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/config"
	appErrors "github.com/Priyesh-Ghadge/PCCOER-HELP-DESK/pkg/errors"
)

type applicationReader interface {
	FindByID(ctx context.Context, id string) (*models.Application, error)
}

type certificateRenderer interface {
	Render(data models.CertificateData, place string) ([]byte, error)
}

type certificateMetrics interface {
	CertificateRendered()
}

// CertificateService projects an approved application into the fixed field
// set the certificate renderer needs. Issuance is gated on approval: any
// other status is rejected, never partially served.
type CertificateService struct {
	applications applicationReader
	renderer     certificateRenderer
	cfg          config.CertificateConfig
	metrics      certificateMetrics
	logger       *zap.Logger
}

// NewCertificateService constructs a CertificateService.
func NewCertificateService(applications applicationReader, renderer certificateRenderer, cfg config.CertificateConfig, metrics certificateMetrics, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{applications: applications, renderer: renderer, cfg: cfg, metrics: metrics, logger: logger}
}

// AssembleData gathers the certificate fields for an approved application.
// Year, branch and purpose are optional on the record and fall back to the
// configured defaults; most submissions never populate them.
func (s *CertificateService) AssembleData(ctx context.Context, id string) (*models.CertificateData, error) {
	app, err := s.applications.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	if !app.Printable() {
		return nil, appErrors.ErrNotApproved
	}

	return &models.CertificateData{
		Name:      app.Name,
		PRN:       app.PRN,
		Batch:     app.Batch,
		Year:      valueOr(app.Year, s.cfg.DefaultYear),
		Branch:    valueOr(app.Branch, s.cfg.DefaultBranch),
		Purpose:   valueOr(app.Purpose, s.cfg.DefaultPurpose),
		IssueDate: time.Now().UTC(),
	}, nil
}

// RenderPDF assembles the certificate data and renders the document.
// Returns the PDF bytes and the suggested download filename.
func (s *CertificateService) RenderPDF(ctx context.Context, id string) ([]byte, string, error) {
	data, err := s.AssembleData(ctx, id)
	if err != nil {
		return nil, "", err
	}

	pdf, err := s.renderer.Render(*data, s.cfg.Place)
	if err != nil {
		s.logger.Error("certificate render failed", zap.String("application_id", id), zap.Error(err))
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	if s.metrics != nil {
		s.metrics.CertificateRendered()
	}
	s.logger.Info("certificate rendered", zap.String("application_id", id), zap.String("prn", data.PRN))
	return pdf, data.PRN + "_bonafide.pdf", nil
}

func valueOr(v *string, fallback string) string {
	if v != nil && *v != "" {
		return *v
	}
	return fallback
}
