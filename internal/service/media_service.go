package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/events"
	"github.com/aryan0dhankhar/tenantcms/internal/observability/metrics"
	"github.com/aryan0dhankhar/tenantcms/internal/security"
	"github.com/aryan0dhankhar/tenantcms/internal/upload"
)

// MediaService validates uploads, stores their bytes and keeps their metadata.
type MediaService struct {
	media     domain.MediaRepository
	files     domain.FileStore
	validator *upload.Validator
	authz     *security.AuthorizationService
	changes   changes
	logger    *slog.Logger
	now       func() time.Time
}

func NewMediaService(
	media domain.MediaRepository,
	files domain.FileStore,
	validator *upload.Validator,
	authz *security.AuthorizationService,
	publisher Publisher,
	logger *slog.Logger,
) *MediaService {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = upload.NewValidator()
	}
	return &MediaService{
		media:     media,
		files:     files,
		validator: validator,
		authz:     authz,
		changes:   newChanges(nil, publisher, logger),
		logger:    logger,
		now:       now,
	}
}

// UploadInput is a fully buffered upload.
type UploadInput struct {
	OriginalName   string
	Data           []byte
	MimeType       string
	Alt            string
	Caption        string
	OrganizationID string
}

type UpdateMediaInput struct {
	Alt     *string `json:"alt"`
	Caption *string `json:"caption"`
}

// MediaQuery narrows a media listing. Kind is one of image, document, video, audio.
type MediaQuery struct {
	OrganizationID string
	Kind           upload.Kind
	Search         string
	Page           domain.Page
}

// MaxBytes is the largest upload the validator could ever accept.
func (s *MediaService) MaxBytes() int64 {
	return s.validator.MaxBytes()
}

// Upload runs the validation pipeline and stores an accepted file under
// <organizationId>/<generated name>. A rejection carries every reason.
func (s *MediaService) Upload(ctx context.Context, p domain.Principal, in UploadInput) (*domain.Media, error) {
	target := security.TargetOrganization(p, in.OrganizationID)
	if err := s.authz.Authorize(ctx, p, target, security.OpCreate); err != nil {
		return nil, err
	}
	var pr problems
	pr.optionalText("alt", in.Alt, 500)
	pr.optionalText("caption", in.Caption, 2000)
	if err := pr.err(); err != nil {
		return nil, err
	}

	res := s.validate(ctx, in)
	if !res.Accepted {
		return nil, domain.Invalid("File validation failed", res.Errors...)
	}

	at := s.now()
	suffix, err := randomHex(4)
	if err != nil {
		return nil, err
	}
	filename := fmt.Sprintf("%d-%s%s", at.UnixMilli(), suffix, res.FileInfo.Extension)
	storagePath := path.Join(target, filename)

	if err := s.files.WriteFile(ctx, storagePath, in.Data, res.FileInfo.MimeType); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	m := &domain.Media{
		Filename:       filename,
		OriginalName:   in.OriginalName,
		MimeType:       res.FileInfo.MimeType,
		Size:           res.FileInfo.Size,
		Path:           storagePath,
		URL:            s.files.URL(storagePath),
		Width:          res.FileInfo.Width,
		Height:         res.FileInfo.Height,
		Alt:            in.Alt,
		Caption:        in.Caption,
		Hash:           res.FileInfo.Hash,
		OrganizationID: target,
	}
	m.Stamp(p.UserID, at)
	if err := s.media.Create(ctx, m); err != nil {
		if delErr := s.files.DeleteFile(ctx, storagePath); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to remove orphaned upload",
				slog.String("path", storagePath),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "media uploaded",
		slog.String("media_id", m.ID),
		slog.String("organization_id", target),
		slog.String("mime_type", m.MimeType),
		slog.Int64("size", m.Size),
		slog.Int("warnings", len(res.Warnings)),
	)
	s.changes.record(ctx, p, target, events.Created, "media", m.ID, m)
	return m, nil
}

// Scan runs the validation pipeline without storing anything.
func (s *MediaService) Scan(ctx context.Context, p domain.Principal, in UploadInput) (upload.Result, error) {
	if err := s.authz.Authorize(ctx, p, p.OrganizationID, security.OpRead); err != nil {
		return upload.Result{}, err
	}
	return s.validate(ctx, in), nil
}

func (s *MediaService) validate(ctx context.Context, in UploadInput) upload.Result {
	res := s.validator.Validate(upload.Candidate{
		OriginalName: in.OriginalName,
		Data:         in.Data,
		MimeType:     in.MimeType,
		Size:         int64(len(in.Data)),
	})
	metrics.ObserveUpload(res.Accepted, res.FileInfo.Size)
	for _, f := range res.Findings {
		metrics.ObserveUploadFinding(f.Check, string(f.Severity))
	}
	if !res.Accepted {
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("original_name", in.OriginalName),
			slog.String("mime_type", in.MimeType),
			slog.String("severity", string(res.Highest())),
			slog.String("reasons", strings.Join(res.Errors, "; ")),
		)
	}
	return res
}

func (s *MediaService) List(ctx context.Context, p domain.Principal, q MediaQuery) (Listing[*domain.Media], error) {
	target := security.TargetOrganization(p, q.OrganizationID)
	if err := s.authz.Authorize(ctx, p, target, security.OpRead); err != nil {
		return Listing[*domain.Media]{}, err
	}
	filter := domain.MediaFilter{OrganizationID: target, Search: q.Search, Page: q.Page}
	if q.Kind != "" {
		filter.MimeTypes = upload.MimeTypes(q.Kind)
		if len(filter.MimeTypes) == 0 {
			return Listing[*domain.Media]{}, domain.Invalid("Validation failed", "type must be one of image, document, video, audio")
		}
	}
	items, total, err := s.media.List(ctx, filter)
	if err != nil {
		return Listing[*domain.Media]{}, err
	}
	return newListing(items, total, q.Page), nil
}

func (s *MediaService) Get(ctx context.Context, p domain.Principal, id string) (*domain.Media, error) {
	return s.load(ctx, p, id, security.OpRead)
}

func (s *MediaService) Update(ctx context.Context, p domain.Principal, id string, in UpdateMediaInput) (*domain.Media, error) {
	m, err := s.load(ctx, p, id, security.OpUpdate)
	if err != nil {
		return nil, err
	}
	if in.Alt != nil {
		m.Alt = *in.Alt
	}
	if in.Caption != nil {
		m.Caption = *in.Caption
	}
	var pr problems
	pr.optionalText("alt", m.Alt, 500)
	pr.optionalText("caption", m.Caption, 2000)
	if err := pr.err(); err != nil {
		return nil, err
	}
	m.Stamp(p.UserID, s.now())
	if err := s.media.Update(ctx, m); err != nil {
		return nil, err
	}
	s.changes.record(ctx, p, m.OrganizationID, events.Updated, "media", m.ID, m)
	return m, nil
}

// Delete removes the record, then the file. A file that cannot be removed is
// logged and left behind.
func (s *MediaService) Delete(ctx context.Context, p domain.Principal, id string) error {
	m, err := s.load(ctx, p, id, security.OpDelete)
	if err != nil {
		return err
	}
	if err := s.media.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.files.DeleteFile(ctx, m.Path); err != nil {
		s.logger.WarnContext(ctx, "failed to delete media file",
			slog.String("media_id", id),
			slog.String("path", m.Path),
			slog.String("error", err.Error()),
		)
	}
	s.changes.record(ctx, p, m.OrganizationID, events.Deleted, "media", id, nil)
	return nil
}

func (s *MediaService) load(ctx context.Context, p domain.Principal, id string, op security.Operation) (*domain.Media, error) {
	m, err := s.media.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, p, m.OrganizationID, op); err != nil {
		return nil, err
	}
	return m, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate file name: %w", err)
	}
	return hex.EncodeToString(b), nil
}
