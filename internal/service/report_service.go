package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"amanai-be/internal/dto"
	"amanai-be/internal/entity"
	"amanai-be/internal/pkg/logger"
	"amanai-be/internal/pkg/mailer"
	"amanai-be/internal/repository/specification"
	"amanai-be/internal/repository/unitofwork"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/events"
	"amanai-be/pkg/report"

	"github.com/google/uuid"
)

// ReportRenderer is satisfied by *report.Renderer.
type ReportRenderer interface {
	RenderBytes(rep report.Report) ([]byte, error)
	VerifyURL(id string) string
}

type IReportService interface {
	Create(ctx context.Context, userId string, req *dto.CreateReportRequest) (*dto.CreateReportResponse, error)
	Verify(ctx context.Context, id uuid.UUID) (*dto.VerifyReportResponse, error)
	PDF(ctx context.Context, userId string, id uuid.UUID) ([]byte, error)
	Share(ctx context.Context, userId string, id uuid.UUID, req *dto.ShareReportRequest) error
	// RenderAndStore renders the PDF to the output directory and records its path.
	RenderAndStore(ctx context.Context, id uuid.UUID) (string, error)
}

type reportService struct {
	uowFactory       unitofwork.RepositoryFactory
	renderer         ReportRenderer
	publisherService IPublisherService
	emailService     mailer.IEmailService
	events           events.Publisher
	outputDir        string
	logger           logger.ILogger
}

func NewReportService(
	uowFactory unitofwork.RepositoryFactory,
	renderer ReportRenderer,
	publisherService IPublisherService,
	emailService mailer.IEmailService,
	eventPublisher events.Publisher,
	outputDir string,
	log logger.ILogger,
) IReportService {
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	return &reportService{
		uowFactory:       uowFactory,
		renderer:         renderer,
		publisherService: publisherService,
		emailService:     emailService,
		events:           eventPublisher,
		outputDir:        outputDir,
		logger:           log,
	}
}

func (s *reportService) Create(ctx context.Context, userId string, req *dto.CreateReportRequest) (*dto.CreateReportResponse, error) {
	if req.Fields.IsEmpty() {
		return nil, apperror.Validation("Report has no content")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	if req.EncounterId != nil {
		enc, err := uow.EncounterRepository().FindOne(ctx, specification.ByID{ID: *req.EncounterId})
		if err != nil {
			return nil, err
		}
		if enc == nil {
			return nil, apperror.NotFound("Encounter not found")
		}
		if enc.UserId != userId {
			return nil, apperror.Forbidden("Encounter does not belong to this user")
		}
	}

	now := time.Now().UTC()
	rep := &entity.Report{
		Id:          uuid.New(),
		UserId:      userId,
		EncounterId: req.EncounterId,
		Fields:      req.Fields,
		Patient:     req.Patient,
		ContentHash: report.ContentHash(req.Fields),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rep.Kind = rep.Document().Kind()

	if err := uow.ReportRepository().Create(ctx, rep); err != nil {
		return nil, err
	}

	if s.publisherService != nil {
		if err := s.publisherService.SendRenderReportMessage(ctx, rep.Id); err != nil {
			s.logger.Warn("ReportService", "Failed to queue report rendering", map[string]interface{}{
				"report_id": rep.Id.String(),
				"error":     err.Error(),
			})
		}
	}
	s.publish(ctx, events.ReportCreated, rep)

	return &dto.CreateReportResponse{
		Id:          rep.Id,
		Kind:        string(rep.Kind),
		ContentHash: rep.ContentHash,
		VerifyURL:   s.renderer.VerifyURL(rep.Id.String()),
	}, nil
}

func (s *reportService) Verify(ctx context.Context, id uuid.UUID) (*dto.VerifyReportResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rep, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, apperror.NotFound("Report not found")
	}

	return &dto.VerifyReportResponse{
		Id:              rep.Id,
		Exists:          true,
		Kind:            string(rep.Kind),
		CreatedAt:       rep.CreatedAt,
		ContentHash:     rep.ContentHash,
		PatientInitials: rep.Patient.Initials(),
		Doctor:          rep.Patient.Doctor,
	}, nil
}

func (s *reportService) PDF(ctx context.Context, userId string, id uuid.UUID) ([]byte, error) {
	rep, err := s.findOwned(ctx, userId, id)
	if err != nil {
		return nil, err
	}
	return s.pdfFor(ctx, rep)
}

// pdfFor serves the stored file, rendering again when it is missing.
func (s *reportService) pdfFor(ctx context.Context, rep *entity.Report) ([]byte, error) {
	if rep.PdfPath != nil {
		data, err := os.ReadFile(*rep.PdfPath)
		if err == nil {
			return data, nil
		}
		s.logger.Warn("ReportService", "Stored pdf unreadable, rendering again", map[string]interface{}{
			"report_id": rep.Id.String(),
			"error":     err.Error(),
		})
	}

	data, _, err := s.renderToDisk(ctx, rep)
	return data, err
}

func (s *reportService) Share(ctx context.Context, userId string, id uuid.UUID, req *dto.ShareReportRequest) error {
	if s.emailService == nil || !s.emailService.Configured() {
		return apperror.NotConfigured("Email delivery is not configured")
	}

	rep, err := s.findOwned(ctx, userId, id)
	if err != nil {
		return err
	}
	data, err := s.pdfFor(ctx, rep)
	if err != nil {
		return err
	}

	attachment := mailer.Attachment{Filename: pdfFilename(rep.Id), Data: data}
	if err := s.emailService.SendReport(req.Email, rep.Patient.Initials(), s.renderer.VerifyURL(rep.Id.String()), attachment); err != nil {
		return apperror.ServiceUnavailable("Failed to send email", err)
	}

	s.logger.Info("ReportService", "Report shared", map[string]interface{}{
		"report_id": rep.Id.String(),
	})
	return nil
}

func (s *reportService) RenderAndStore(ctx context.Context, id uuid.UUID) (string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rep, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return "", err
	}
	if rep == nil {
		return "", apperror.NotFound("Report not found")
	}

	_, path, err := s.renderToDisk(ctx, rep)
	return path, err
}

func (s *reportService) renderToDisk(ctx context.Context, rep *entity.Report) ([]byte, string, error) {
	data, err := s.renderer.RenderBytes(rep.Document())
	if err != nil {
		if errors.Is(err, report.ErrFontUnavailable) {
			return nil, "", apperror.Wrap(apperror.KindNotConfigured, "Report font is not available", err)
		}
		return nil, "", err
	}

	if s.outputDir == "" {
		return data, "", nil
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(s.outputDir, pdfFilename(rep.Id))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, "", fmt.Errorf("failed to write report pdf: %w", err)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ReportRepository().UpdatePdfPath(ctx, rep.Id, path); err != nil {
		return nil, "", err
	}
	rep.PdfPath = &path

	s.publish(ctx, events.ReportRendered, rep)
	return data, path, nil
}

func (s *reportService) findOwned(ctx context.Context, userId string, id uuid.UUID) (*entity.Report, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rep, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, apperror.NotFound("Report not found")
	}
	if rep.UserId != userId {
		return nil, apperror.Forbidden("Report does not belong to this user")
	}
	return rep, nil
}

func (s *reportService) publish(ctx context.Context, eventType string, rep *entity.Report) {
	event := events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"type":         eventType,
			"user_id":      rep.UserId,
			"report_id":    rep.Id.String(),
			"kind":         string(rep.Kind),
			"content_hash": rep.ContentHash,
		},
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("ReportService", "Failed to publish report event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

func pdfFilename(id uuid.UUID) string {
	return fmt.Sprintf("report-%s.pdf", id)
}
