// Package service implements the lead lifecycle: intake, sale listing,
// credit assignment and purchases.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"treeleads/internal/adapters/storage"
	"treeleads/internal/events"
	"treeleads/internal/leads/domain"
	"treeleads/internal/leads/ports"
	"treeleads/internal/leads/repository"
	"treeleads/internal/leads/transport"
	"treeleads/platform/apperr"
	"treeleads/platform/db"
	"treeleads/platform/logger"
	"treeleads/platform/phone"
	"treeleads/platform/sanitize"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100

	submissionFolder = "submissions"
	maxImagesPerLead = 10
)

// Service provides lead operations.
type Service struct {
	repo        repository.Repository
	eventBus    events.Bus
	storage     storage.StorageService
	imageBucket string
	phoneRegion string
	log         *logger.Logger

	prices   ports.PriceResolver
	credits  ports.CreditConsumer
	payments ports.PaymentGateway

	now func() time.Time
}

// New creates a leads service. Pricing, credits and payments are attached with setters
// by the composition root.
func New(repo repository.Repository, eventBus events.Bus, storageSvc storage.StorageService, imageBucket, phoneRegion string, log *logger.Logger) *Service {
	if phoneRegion == "" {
		phoneRegion = phone.DefaultRegion
	}
	return &Service{
		repo:        repo,
		eventBus:    eventBus,
		storage:     storageSvc,
		imageBucket: imageBucket,
		phoneRegion: phoneRegion,
		log:         log,
		now:         time.Now,
	}
}

// SetPriceResolver attaches the pricing resolver.
func (s *Service) SetPriceResolver(r ports.PriceResolver) { s.prices = r }

// SetCreditConsumer attaches the credit ledger.
func (s *Service) SetCreditConsumer(c ports.CreditConsumer) { s.credits = c }

// SetPaymentGateway attaches the payment provider.
func (s *Service) SetPaymentGateway(g ports.PaymentGateway) { s.payments = g }

// Submit stores a public quote request.
func (s *Service) Submit(ctx context.Context, req transport.SubmitLeadRequest) (transport.SubmitLeadResponse, error) {
	phoneNumber := phone.NormalizeE164(req.CustomerPhone, s.phoneRegion)
	if phoneNumber == "" || !phone.IsValid(phoneNumber, s.phoneRegion) {
		return transport.SubmitLeadResponse{}, apperr.Validation("invalid phone number").
			WithDetails(map[string]string{"customerPhone": "invalid phone number"})
	}

	imageKeys, err := validateImageKeys(req.ImageKeys)
	if err != nil {
		return transport.SubmitLeadResponse{}, err
	}

	params := repository.CreateParams{
		CustomerName:     sanitize.Line(req.CustomerName),
		CustomerEmail:    strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerPhone:    phoneNumber,
		Address:          sanitize.LinePtr(req.Address),
		City:             sanitize.Line(req.City),
		State:            strings.ToUpper(sanitize.Line(req.State)),
		ZipCode:          sanitize.LinePtr(req.ZipCode),
		ServiceType:      sanitize.Line(req.ServiceType),
		Description:      sanitize.TextPtr(req.Description),
		Urgency:          lowerPtr(sanitize.LinePtr(req.Urgency)),
		PropertyType:     lowerPtr(sanitize.LinePtr(req.PropertyType)),
		PreferredContact: req.PreferredContact,
		ImageKeys:        imageKeys,
	}
	if params.CustomerName == "" || params.City == "" || params.State == "" || params.ServiceType == "" {
		return transport.SubmitLeadResponse{}, apperr.Validation("name, city, state and service type are required")
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.SubmitLeadResponse{}, err
	}

	s.log.Info("lead submitted", "leadId", lead.ID, "city", lead.City, "state", lead.State, "images", len(imageKeys))
	e := events.LeadSubmitted{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		CustomerName:  lead.CustomerName,
		CustomerEmail: lead.CustomerEmail,
		CustomerPhone: lead.CustomerPhone,
		City:          lead.City,
		State:         lead.State,
		ServiceType:   lead.ServiceType,
	}
	if lead.Urgency != nil {
		e.Urgency = *lead.Urgency
	}
	s.eventBus.Publish(ctx, e)

	return transport.SubmitLeadResponse{ID: lead.ID, CreatedAt: lead.CreatedAt}, nil
}

// PresignImageUpload returns an upload URL for a photo attached to a future submission.
func (s *Service) PresignImageUpload(ctx context.Context, req transport.PresignImageRequest) (transport.PresignedUploadResponse, error) {
	folder := fmt.Sprintf("%s/%s", submissionFolder, s.now().UTC().Format("2006/01/02"))
	presigned, err := s.storage.GenerateUploadURL(ctx, s.imageBucket, folder, req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return transport.PresignedUploadResponse{}, err
	}
	return transport.PresignedUploadResponse{
		UploadURL: presigned.URL,
		FileKey:   presigned.FileKey,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// Get returns a lead with presigned photo URLs.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return s.toResponse(ctx, lead), nil
}

// GetRecord returns the stored lead.
func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// GetForCompany returns a lead the company received or bought.
func (s *Service) GetForCompany(ctx context.Context, id, companyID uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	if lead.BusinessID == nil || *lead.BusinessID != companyID {
		bought, err := s.repo.HasCompletedPurchase(ctx, nil, id, companyID)
		if err != nil {
			return transport.LeadResponse{}, err
		}
		if !bought {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
	}
	return s.toResponse(ctx, lead), nil
}

// List returns leads for the admin dashboard.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page, pageSize := clampPage(req.Page, req.PageSize)
	params := repository.ListParams{
		LeadType: strings.TrimSpace(req.LeadType),
		City:     strings.TrimSpace(req.City),
		State:    strings.TrimSpace(req.State),
		Archived: req.Archived,
		Search:   strings.TrimSpace(req.Search),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	if req.Status != "" {
		status, ok := domain.ParseStatus(req.Status)
		if !ok {
			return transport.LeadListResponse{}, apperr.Validation("unknown status")
		}
		params.Status = &status
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	out := make([]transport.LeadResponse, 0, len(items))
	for _, lead := range items {
		out = append(out, s.toListResponse(lead))
	}
	return transport.LeadListResponse{Items: out, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListForCompany returns leads a company received or bought.
func (s *Service) ListForCompany(ctx context.Context, companyID uuid.UUID, req transport.PageRequest) (transport.LeadListResponse, error) {
	page, pageSize := clampPage(req.Page, req.PageSize)
	items, total, err := s.repo.ListForCompany(ctx, companyID, pageSize, (page-1)*pageSize)
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	out := make([]transport.LeadResponse, 0, len(items))
	for _, lead := range items {
		out = append(out, s.toListResponse(lead))
	}
	return transport.LeadListResponse{Items: out, Total: total, Page: page, PageSize: pageSize}, nil
}

// ListAvailable returns the marketplace. A nil companyID lists everything on sale.
func (s *Service) ListAvailable(ctx context.Context, companyID *uuid.UUID, req transport.ListAvailableRequest) (transport.MarketplaceListResponse, error) {
	page, pageSize := clampPage(req.Page, req.PageSize)
	items, total, err := s.repo.ListAvailable(ctx, repository.AvailableParams{
		CompanyID: companyID,
		City:      strings.TrimSpace(req.City),
		State:     strings.TrimSpace(req.State),
		LeadType:  strings.TrimSpace(req.LeadType),
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
	})
	if err != nil {
		return transport.MarketplaceListResponse{}, err
	}

	out := make([]transport.MarketplaceLeadResponse, 0, len(items))
	for _, lead := range items {
		if !lead.IsAvailable() {
			continue
		}
		out = append(out, s.toMarketplaceResponse(lead, companyID))
	}
	return transport.MarketplaceListResponse{Items: out, Total: total, Page: page, PageSize: pageSize}, nil
}

// UpdateStatus applies a manual status change.
func (s *Service) UpdateStatus(ctx context.Context, id, actorID uuid.UUID, req transport.UpdateStatusRequest) (transport.LeadResponse, error) {
	to, ok := domain.ParseStatus(req.Status)
	if !ok {
		return transport.LeadResponse{}, apperr.Validation("unknown status")
	}
	reason := sanitize.LinePtr(req.Reason)

	var from domain.Status
	lead, err := s.repo.Mutate(ctx, id, func(_ context.Context, _ db.DBTX, current domain.Lead) (domain.Lead, *domain.HistoryEntry, error) {
		if err := checkVersion(current, req.ExpectedVersion); err != nil {
			return current, nil, err
		}
		from = current.Status
		if !domain.ManualTransitionAllowed(from, to) {
			return current, nil, apperr.Conflict(fmt.Sprintf("cannot change status from %s to %s", from, to))
		}
		next := current
		next.Status = to
		if to == domain.StatusNew {
			next.BusinessID = nil
		}
		return next, &domain.HistoryEntry{
			FromStatus: &from,
			ToStatus:   to,
			Action:     domain.ActionStatusUpdate,
			ActorID:    &actorID,
			BusinessID: current.BusinessID,
			Reason:     reason,
		}, nil
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.log.Info("lead status updated", "leadId", id, "from", from, "to", to)
	s.eventBus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		OldStatus: string(from),
		NewStatus: string(to),
		ActorID:   actorID,
	})
	return s.toResponse(ctx, lead), nil
}

// UpdateDetails edits contact and service fields.
func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, req transport.UpdateDetailsRequest) (transport.LeadResponse, error) {
	params := repository.UpdateDetailsParams{
		ID:               id,
		ExpectedVersion:  req.ExpectedVersion,
		CustomerName:     sanitize.LinePtr(req.CustomerName),
		Address:          sanitize.LinePtr(req.Address),
		City:             sanitize.LinePtr(req.City),
		State:            upperPtr(sanitize.LinePtr(req.State)),
		ZipCode:          sanitize.LinePtr(req.ZipCode),
		ServiceType:      sanitize.LinePtr(req.ServiceType),
		Description:      sanitize.TextPtr(req.Description),
		Urgency:          lowerPtr(sanitize.LinePtr(req.Urgency)),
		PropertyType:     lowerPtr(sanitize.LinePtr(req.PropertyType)),
		PreferredContact: req.PreferredContact,
	}
	if req.CustomerEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*req.CustomerEmail))
		params.CustomerEmail = &email
	}
	if req.CustomerPhone != nil {
		normalized := phone.NormalizeE164(*req.CustomerPhone, s.phoneRegion)
		if normalized == "" || !phone.IsValid(normalized, s.phoneRegion) {
			return transport.LeadResponse{}, apperr.Validation("invalid phone number")
		}
		params.CustomerPhone = &normalized
	}

	lead, err := s.repo.UpdateDetails(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return s.toResponse(ctx, lead), nil
}

// Archive hides a lead. A pending sale loses its payment link.
func (s *Service) Archive(ctx context.Context, id, actorID uuid.UUID, req transport.VersionRequest) (transport.LeadResponse, error) {
	var linkID string
	lead, err := s.repo.Mutate(ctx, id, func(_ context.Context, _ db.DBTX, current domain.Lead) (domain.Lead, *domain.HistoryEntry, error) {
		if err := checkVersion(current, req.ExpectedVersion); err != nil {
			return current, nil, err
		}
		if current.IsArchived {
			return current, nil, apperr.Conflict("lead is already archived")
		}
		next := current
		next.Archive(s.now())
		if current.Status == domain.StatusPendingSale && current.PaymentLinkID != nil {
			linkID = *current.PaymentLinkID
			next.PaymentLink = nil
			next.PaymentLinkID = nil
		}
		return next, &domain.HistoryEntry{
			FromStatus: &current.Status,
			ToStatus:   current.Status,
			Action:     domain.ActionArchived,
			ActorID:    &actorID,
		}, nil
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if linkID != "" {
		s.deactivateLink(ctx, id, linkID)
	}
	s.log.Info("lead archived", "leadId", id)
	return s.toResponse(ctx, lead), nil
}

// Unarchive brings a lead back. An unsold pending sale returns to new because its link was disabled.
func (s *Service) Unarchive(ctx context.Context, id, actorID uuid.UUID, req transport.VersionRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.Mutate(ctx, id, func(_ context.Context, _ db.DBTX, current domain.Lead) (domain.Lead, *domain.HistoryEntry, error) {
		if err := checkVersion(current, req.ExpectedVersion); err != nil {
			return current, nil, err
		}
		if !current.IsArchived {
			return current, nil, apperr.Conflict("lead is not archived")
		}
		next := current
		next.IsArchived = false
		next.ArchivedAt = nil
		if current.Status == domain.StatusPendingSale {
			if current.CurrentShares > 0 {
				return current, nil, apperr.Conflict("a sold lead cannot be unarchived")
			}
			next.Status = domain.StatusNew
			next.ClearSale()
		}
		return next, &domain.HistoryEntry{
			FromStatus: &current.Status,
			ToStatus:   next.Status,
			Action:     domain.ActionUnarchived,
			ActorID:    &actorID,
		}, nil
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}
	s.log.Info("lead unarchived", "leadId", id, "status", lead.Status)
	return s.toResponse(ctx, lead), nil
}

// Delete removes a lead permanently and disables its payment link. Sold leads
// are kept so their purchases stay exportable and refundable.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	purchases, err := s.repo.Purchases(ctx, id)
	if err != nil {
		return err
	}
	if lead.CurrentShares > 0 || len(purchases) > 0 {
		return apperr.Conflict("lead has recorded purchases and cannot be deleted; archive it instead")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if lead.PaymentLinkID != nil {
		s.deactivateLink(ctx, id, *lead.PaymentLinkID)
	}
	for _, key := range lead.ImageKeys {
		if err := s.storage.DeleteObject(ctx, s.imageBucket, key); err != nil {
			s.log.ExternalCallFailed("storage", "delete lead image", err)
		}
	}
	s.log.Info("lead deleted", "leadId", id)
	return nil
}

// History returns a lead's status history.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]transport.HistoryResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]transport.HistoryResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, toHistoryResponse(h))
	}
	return out, nil
}

// Purchases returns a lead's purchases.
func (s *Service) Purchases(ctx context.Context, id uuid.UUID) ([]transport.PurchaseResponse, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	items, err := s.repo.Purchases(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]transport.PurchaseResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPurchaseResponse(p))
	}
	return out, nil
}

// SendEmailBlast asks the notification module to mail every active company in the lead's area.
func (s *Service) SendEmailBlast(ctx context.Context, id uuid.UUID) error {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !lead.IsAvailable() {
		return apperr.Conflict("only leads on sale can be sent to companies")
	}
	s.eventBus.Publish(ctx, events.LeadEmailBlastRequested{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		City:      lead.City,
		State:     lead.State,
	})
	s.log.Info("lead email blast requested", "leadId", id, "city", lead.City, "state", lead.State)
	return nil
}

func validateImageKeys(keys []string) ([]string, error) {
	if len(keys) > maxImagesPerLead {
		return nil, apperr.Validation(fmt.Sprintf("at most %d images are allowed", maxImagesPerLead))
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if !strings.HasPrefix(key, submissionFolder+"/") || strings.Contains(key, "..") {
			return nil, apperr.Validation("invalid image key")
		}
		out = append(out, key)
	}
	return out, nil
}

func checkVersion(current domain.Lead, expected *int) error {
	if expected != nil && *expected != current.Version {
		return apperr.Conflict("lead was modified by someone else").
			WithDetails(map[string]int{"currentVersion": current.Version})
	}
	return nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func lowerPtr(v *string) *string {
	if v == nil {
		return nil
	}
	lowered := strings.ToLower(*v)
	return &lowered
}

func upperPtr(v *string) *string {
	if v == nil {
		return nil
	}
	upper := strings.ToUpper(*v)
	return &upper
}
