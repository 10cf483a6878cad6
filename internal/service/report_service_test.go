package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"amanai-be/internal/dto"
	"amanai-be/internal/pkg/logger"
	"amanai-be/internal/pkg/mailer"
	"amanai-be/pkg/analysis"
	"amanai-be/pkg/apperror"
	"amanai-be/pkg/events"
	"amanai-be/pkg/report"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	renders int
	err     error
	last    report.Report
}

func (f *fakeRenderer) RenderBytes(rep report.Report) ([]byte, error) {
	f.renders++
	f.last = rep
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.3 " + rep.Metadata().ID), nil
}

func (f *fakeRenderer) VerifyURL(id string) string {
	return "https://amanai.kz/verify/" + id
}

type queuedRenders struct {
	ids []uuid.UUID
}

func (q *queuedRenders) SendRenderReportMessage(ctx context.Context, reportId uuid.UUID) error {
	q.ids = append(q.ids, reportId)
	return nil
}

type fakeMailer struct {
	configured bool
	to         string
	attachment mailer.Attachment
	err        error
}

func (f *fakeMailer) Configured() bool { return f.configured }

func (f *fakeMailer) SendReport(toEmail, patientInitials, verifyURL string, pdf mailer.Attachment) error {
	f.to = toEmail
	f.attachment = pdf
	return f.err
}

type reportFixture struct {
	svc      IReportService
	renderer *fakeRenderer
	queue    *queuedRenders
	mail     *fakeMailer
	events   *events.RecordingPublisher
	dir      string
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	f := &reportFixture{
		renderer: &fakeRenderer{},
		queue:    &queuedRenders{},
		mail:     &fakeMailer{configured: true},
		events:   &events.RecordingPublisher{},
		dir:      filepath.Join(t.TempDir(), "reports"),
	}
	f.svc = NewReportService(newTestFactory(t), f.renderer, f.queue, f.mail, f.events, f.dir, logger.NewNopLogger())
	return f
}

func soapRequest() *dto.CreateReportRequest {
	return &dto.CreateReportRequest{
		Patient: report.Patient{Name: "Айгуль Серикова", Doctor: "Dr. Ahmetov"},
		Fields: analysis.ReportFields{
			Subjective: "Головная боль",
			Plan:       "Покой",
		},
	}
}

func TestCreateReportQueuesRendering(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)

	res, err := f.svc.Create(ctx, "doc-1", soapRequest())
	require.NoError(t, err)
	assert.Equal(t, "soap", res.Kind)
	assert.Equal(t, report.ContentHash(soapRequest().Fields), res.ContentHash)
	assert.Equal(t, "https://amanai.kz/verify/"+res.Id.String(), res.VerifyURL)
	assert.Equal(t, []uuid.UUID{res.Id}, f.queue.ids)
	assert.Equal(t, []string{events.ReportCreated}, f.events.Types())

	legacy, err := f.svc.Create(ctx, "doc-1", &dto.CreateReportRequest{
		Fields: analysis.ReportFields{Conclusion: "Здоров"},
	})
	require.NoError(t, err)
	assert.Equal(t, "legacy", legacy.Kind)
}

func TestCreateReportValidation(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)

	_, err := f.svc.Create(ctx, "doc-1", &dto.CreateReportRequest{})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	missing := uuid.New()
	req := soapRequest()
	req.EncounterId = &missing
	_, err = f.svc.Create(ctx, "doc-1", req)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestVerifyShowsInitialsOnly(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)

	res, err := f.svc.Create(ctx, "doc-1", soapRequest())
	require.NoError(t, err)

	v, err := f.svc.Verify(ctx, res.Id)
	require.NoError(t, err)
	assert.True(t, v.Exists)
	assert.Equal(t, "А.С.", v.PatientInitials)
	assert.Equal(t, res.ContentHash, v.ContentHash)
	assert.Equal(t, "Dr. Ahmetov", v.Doctor)

	_, err = f.svc.Verify(ctx, uuid.New())
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
}

func TestRenderAndStoreThenServeFromDisk(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)

	res, err := f.svc.Create(ctx, "doc-1", soapRequest())
	require.NoError(t, err)

	path, err := f.svc.RenderAndStore(ctx, res.Id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.dir, "report-"+res.Id.String()+".pdf"), path)
	assert.FileExists(t, path)
	assert.Equal(t, 1, f.renderer.renders)

	pdf, err := f.svc.PDF(ctx, "doc-1", res.Id)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 "+res.Id.String(), string(pdf))
	assert.Equal(t, 1, f.renderer.renders, "stored file is reused")

	// a deleted file is rendered again
	require.NoError(t, os.Remove(path))
	_, err = f.svc.PDF(ctx, "doc-1", res.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, f.renderer.renders)

	_, err = f.svc.PDF(ctx, "doc-2", res.Id)
	assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
}

func TestRenderWithoutFontIsNotConfigured(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)
	f.renderer.err = report.ErrFontUnavailable

	res, err := f.svc.Create(ctx, "doc-1", soapRequest())
	require.NoError(t, err)

	_, err = f.svc.RenderAndStore(ctx, res.Id)
	assert.Equal(t, apperror.KindNotConfigured, apperror.KindOf(err))
	assert.True(t, errors.Is(err, report.ErrFontUnavailable))
}

func TestShareReport(t *testing.T) {
	ctx := context.Background()
	f := newReportFixture(t)

	res, err := f.svc.Create(ctx, "doc-1", soapRequest())
	require.NoError(t, err)

	require.NoError(t, f.svc.Share(ctx, "doc-1", res.Id, &dto.ShareReportRequest{Email: "patient@example.com"}))
	assert.Equal(t, "patient@example.com", f.mail.to)
	assert.Equal(t, "report-"+res.Id.String()+".pdf", f.mail.attachment.Filename)
	assert.NotEmpty(t, f.mail.attachment.Data)

	f.mail.err = errors.New("smtp down")
	err = f.svc.Share(ctx, "doc-1", res.Id, &dto.ShareReportRequest{Email: "patient@example.com"})
	assert.Equal(t, apperror.KindServiceUnavailable, apperror.KindOf(err))

	f.mail.configured = false
	err = f.svc.Share(ctx, "doc-1", res.Id, &dto.ShareReportRequest{Email: "patient@example.com"})
	assert.Equal(t, apperror.KindNotConfigured, apperror.KindOf(err))
}
