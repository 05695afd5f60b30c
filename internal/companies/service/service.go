// Package service holds tree service company administration.
package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"treeleads/internal/adapters/storage"
	"treeleads/internal/companies/repository"
	"treeleads/internal/companies/transport"
	"treeleads/platform/apperr"
	"treeleads/platform/logger"
	"treeleads/platform/phone"
	"treeleads/platform/sanitize"
)

// Service provides business logic for companies.
type Service struct {
	repo        repository.Repository
	storage     storage.StorageService
	logoBucket  string
	phoneRegion string
	log         *logger.Logger
}

// New creates a companies service.
func New(repo repository.Repository, storageSvc storage.StorageService, logoBucket, phoneRegion string, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		storage:     storageSvc,
		logoBucket:  logoBucket,
		phoneRegion: phoneRegion,
		log:         log,
	}
}

// Get returns one company with a presigned logo URL.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.CompanyResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	return s.toResponse(ctx, c), nil
}

// GetRecord returns the raw company for other modules.
func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (repository.Company, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of companies.
func (s *Service) List(ctx context.Context, req transport.ListCompaniesRequest) (transport.CompanyListResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	items, total, err := s.repo.List(ctx, repository.ListParams{
		Search:   strings.TrimSpace(req.Search),
		City:     strings.TrimSpace(req.City),
		State:    strings.TrimSpace(req.State),
		IsActive: req.IsActive,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	})
	if err != nil {
		return transport.CompanyListResponse{}, err
	}

	out := make([]transport.CompanyResponse, 0, len(items))
	for _, c := range items {
		out = append(out, s.toResponse(ctx, c))
	}
	return transport.CompanyListResponse{Items: out, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListActiveByArea returns companies that should hear about leads in city/state.
func (s *Service) ListActiveByArea(ctx context.Context, city, state string) ([]repository.Company, error) {
	return s.repo.ListActiveByArea(ctx, strings.TrimSpace(city), strings.TrimSpace(state))
}

// Create adds a company.
func (s *Service) Create(ctx context.Context, req transport.CreateCompanyRequest) (transport.CompanyResponse, error) {
	c, err := s.repo.Create(ctx, repository.CreateParams{
		Name:    sanitize.Line(req.Name),
		Email:   normalizeEmail(req.Email),
		Phone:   s.normalizePhone(req.Phone),
		Website: sanitize.LinePtr(req.Website),
		City:    sanitize.Line(req.City),
		State:   strings.ToUpper(sanitize.Line(req.State)),
	})
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	s.log.Info("company created", "companyId", c.ID, "city", c.City, "state", c.State)
	return s.toResponse(ctx, c), nil
}

// Update changes company details.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateCompanyRequest) (transport.CompanyResponse, error) {
	params := repository.UpdateParams{
		ID:       id,
		Name:     sanitize.LinePtr(req.Name),
		Email:    normalizeEmail(req.Email),
		Phone:    s.normalizePhone(req.Phone),
		Website:  sanitize.LinePtr(req.Website),
		City:     sanitize.LinePtr(req.City),
		IsActive: req.IsActive,
	}
	if state := sanitize.LinePtr(req.State); state != nil {
		upper := strings.ToUpper(*state)
		params.State = &upper
	}

	c, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	return s.toResponse(ctx, c), nil
}

// Delete removes a company and its logo.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if c.LogoKey != nil {
		if err := s.storage.DeleteObject(ctx, s.logoBucket, *c.LogoKey); err != nil {
			s.log.ExternalCallFailed("storage", "delete company logo", err)
		}
	}
	s.log.Info("company deleted", "companyId", id)
	return nil
}

// PresignLogoUpload returns an upload URL under the company's folder.
func (s *Service) PresignLogoUpload(ctx context.Context, id uuid.UUID, req transport.PresignLogoRequest) (transport.PresignedUploadResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return transport.PresignedUploadResponse{}, err
	}
	presigned, err := s.storage.GenerateUploadURL(ctx, s.logoBucket, logoFolder(id), req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return transport.PresignedUploadResponse{}, err
	}
	return transport.PresignedUploadResponse{
		UploadURL: presigned.URL,
		FileKey:   presigned.FileKey,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// SetLogo records an uploaded logo. The key must live in the company's folder.
func (s *Service) SetLogo(ctx context.Context, id uuid.UUID, req transport.SetLogoRequest) (transport.CompanyResponse, error) {
	key := strings.TrimSpace(req.FileKey)
	if !strings.HasPrefix(key, logoFolder(id)+"/") {
		return transport.CompanyResponse{}, apperr.Validation("file key does not belong to this company")
	}
	c, err := s.repo.Update(ctx, repository.UpdateParams{ID: id, LogoKey: &key})
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	return s.toResponse(ctx, c), nil
}

func (s *Service) toResponse(ctx context.Context, c repository.Company) transport.CompanyResponse {
	resp := transport.CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Website:   c.Website,
		City:      c.City,
		State:     c.State,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.LogoKey != nil && *c.LogoKey != "" {
		if presigned, err := s.storage.GenerateDownloadURL(ctx, s.logoBucket, *c.LogoKey); err == nil {
			resp.LogoURL = &presigned.URL
		}
	}
	return resp
}

func (s *Service) normalizePhone(value *string) *string {
	if value == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*value, s.phoneRegion)
	if normalized == "" {
		return nil
	}
	return &normalized
}

func normalizeEmail(value *string) *string {
	if value == nil {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(*value))
	if email == "" {
		return nil
	}
	return &email
}

func logoFolder(id uuid.UUID) string {
	return "companies/" + id.String()
}
