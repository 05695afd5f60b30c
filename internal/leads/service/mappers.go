package service

import (
	"context"

	"github.com/google/uuid"

	"treeleads/internal/leads/domain"
	"treeleads/internal/leads/transport"
)

func (s *Service) toResponse(ctx context.Context, lead domain.Lead) transport.LeadResponse {
	resp := s.toListResponse(lead)
	for i, key := range lead.ImageKeys {
		if presigned, err := s.storage.GenerateDownloadURL(ctx, s.imageBucket, key); err == nil {
			resp.Images[i].URL = presigned.URL
		}
	}
	return resp
}

// toListResponse maps without presigning photos, which lists do not show.
func (s *Service) toListResponse(lead domain.Lead) transport.LeadResponse {
	images := make([]transport.ImageURL, 0, len(lead.ImageKeys))
	for _, key := range lead.ImageKeys {
		images = append(images, transport.ImageURL{Key: key})
	}
	return transport.LeadResponse{
		ID:               lead.ID,
		CustomerName:     lead.CustomerName,
		CustomerEmail:    lead.CustomerEmail,
		CustomerPhone:    lead.CustomerPhone,
		Address:          lead.Address,
		City:             lead.City,
		State:            lead.State,
		ZipCode:          lead.ZipCode,
		ServiceType:      lead.ServiceType,
		Description:      lead.Description,
		Urgency:          lead.Urgency,
		PropertyType:     lead.PropertyType,
		PreferredContact: lead.PreferredContact,
		Images:           images,
		Status:           string(lead.Status),
		IsArchived:       lead.IsArchived,
		LeadType:         lead.LeadType,
		PriceCents:       lead.PriceCents,
		PaymentLink:      lead.PaymentLink,
		MaxShares:        lead.MaxShares,
		CurrentShares:    lead.CurrentShares,
		BusinessID:       lead.BusinessID,
		IsAvailable:      lead.IsAvailable(),
		ListedAt:         lead.ListedAt,
		ArchivedAt:       lead.ArchivedAt,
		Version:          lead.Version,
		CreatedAt:        lead.CreatedAt,
		UpdatedAt:        lead.UpdatedAt,
	}
}

func (s *Service) toMarketplaceResponse(lead domain.Lead, companyID *uuid.UUID) transport.MarketplaceLeadResponse {
	resp := transport.MarketplaceLeadResponse{
		ID:           lead.ID,
		City:         lead.City,
		State:        lead.State,
		ZipCode:      lead.ZipCode,
		ServiceType:  lead.ServiceType,
		Description:  lead.Description,
		Urgency:      lead.Urgency,
		PropertyType: lead.PropertyType,
		LeadType:     lead.TypeName(),
		SharesLeft:   lead.SharesLeft(),
		ImageCount:   len(lead.ImageKeys),
		ListedAt:     lead.ListedAt,
	}
	if lead.PriceCents != nil {
		resp.PriceCents = *lead.PriceCents
	}
	if lead.PaymentLink != nil {
		resp.PurchaseURL = *lead.PaymentLink
		if companyID != nil && s.payments != nil {
			resp.PurchaseURL = s.payments.PurchaseURL(*lead.PaymentLink, *companyID)
		}
	}
	return resp
}

func toHistoryResponse(h domain.HistoryEntry) transport.HistoryResponse {
	resp := transport.HistoryResponse{
		ID:         h.ID,
		ToStatus:   string(h.ToStatus),
		Action:     h.Action,
		ActorID:    h.ActorID,
		BusinessID: h.BusinessID,
		Reason:     h.Reason,
		CreatedAt:  h.CreatedAt,
	}
	if h.FromStatus != nil {
		from := string(*h.FromStatus)
		resp.FromStatus = &from
	}
	return resp
}

func toPurchaseResponse(p domain.Purchase) transport.PurchaseResponse {
	return transport.PurchaseResponse{
		ID:              p.ID,
		LeadID:          p.LeadID,
		BusinessID:      p.BusinessID,
		AmountCents:     p.AmountCents,
		Status:          p.Status,
		StripeSessionID: p.StripeSessionID,
		Notes:           p.Notes,
		CreatedAt:       p.CreatedAt,
	}
}
