// Package service implements lead payments through Stripe: payment links for
// listed leads, company-specific checkouts and the checkout webhook.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"treeleads/platform/apperr"
	"treeleads/platform/config"
	"treeleads/platform/logger"
)

const (
	metadataLeadID    = "lead_id"
	metadataCompanyID = "company_id"

	checkoutSessionTTL = 30 * time.Minute
	defaultCurrency    = "usd"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("invalid stripe signature")

// LinkRequest describes the payment link for a listed lead.
type LinkRequest struct {
	LeadID      uuid.UUID
	LeadType    string
	AmountCents int64
	MaxShares   int
	City        string
	State       string
	ServiceType string
}

// Link is a created payment link.
type Link struct {
	ID  string
	URL string
}

// CheckoutRequest describes a checkout for one company and lead.
type CheckoutRequest struct {
	LeadID      uuid.UUID
	CompanyID   uuid.UUID
	LeadType    string
	AmountCents int64
	ServiceType string
	City        string
	State       string
}

// Checkout is a created checkout session.
type Checkout struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// CompletedPurchase is a paid checkout as reported by Stripe.
type CompletedPurchase struct {
	LeadID        uuid.UUID
	PaymentLinkID string
	CompanyID     uuid.UUID
	AmountCents   int64
	SessionID     string
}

// PurchaseRecorder stores completed purchases. Implemented by an adapter over the leads service.
type PurchaseRecorder interface {
	RecordPurchase(ctx context.Context, purchase CompletedPurchase) error
}

// Service talks to Stripe.
type Service struct {
	api      StripeAPI
	cfg      config.StripeConfig
	recorder PurchaseRecorder
	log      *logger.Logger
	now      func() time.Time
}

// New creates a payments service. api may be nil when Stripe is not configured.
func New(api StripeAPI, cfg config.StripeConfig, log *logger.Logger) *Service {
	return &Service{api: api, cfg: cfg, log: log, now: time.Now}
}

// SetPurchaseRecorder attaches the component that stores webhook purchases.
func (s *Service) SetPurchaseRecorder(r PurchaseRecorder) { s.recorder = r }

// Enabled reports whether Stripe calls can be made.
func (s *Service) Enabled() bool {
	return s.api != nil && s.cfg.IsStripeEnabled()
}

// CreatePaymentLink creates a one-off price and a payment link limited to maxShares completed sessions.
func (s *Service) CreatePaymentLink(ctx context.Context, req LinkRequest) (Link, error) {
	if !s.Enabled() {
		return Link{}, apperr.Validation("payment links are not available: stripe is not configured")
	}
	if req.AmountCents <= 0 {
		return Link{}, apperr.Validation("price must be positive")
	}
	maxShares := req.MaxShares
	if maxShares < 1 {
		maxShares = 1
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(s.currency()),
		UnitAmount: stripe.Int64(req.AmountCents),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(productName(req.LeadType, req.ServiceType, req.City, req.State)),
		},
	}
	priceParams.Context = ctx
	priceParams.AddMetadata(metadataLeadID, req.LeadID.String())
	p, err := s.api.NewPrice(priceParams)
	if err != nil {
		return Link{}, fmt.Errorf("create stripe price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{Price: stripe.String(p.ID), Quantity: stripe.Int64(1)},
		},
		Restrictions: &stripe.PaymentLinkRestrictionsParams{
			CompletedSessions: &stripe.PaymentLinkRestrictionsCompletedSessionsParams{
				Limit: stripe.Int64(int64(maxShares)),
			},
		},
	}
	if success := s.cfg.GetCheckoutSuccessURL(); success != "" {
		linkParams.AfterCompletion = &stripe.PaymentLinkAfterCompletionParams{
			Type: stripe.String(string(stripe.PaymentLinkAfterCompletionTypeRedirect)),
			Redirect: &stripe.PaymentLinkAfterCompletionRedirectParams{
				URL: stripe.String(withLeadParam(success, req.LeadID)),
			},
		}
	}
	linkParams.Context = ctx
	linkParams.AddMetadata(metadataLeadID, req.LeadID.String())

	link, err := s.api.NewPaymentLink(linkParams)
	if err != nil {
		return Link{}, fmt.Errorf("create stripe payment link: %w", err)
	}

	s.log.Info("payment link created", "leadId", req.LeadID, "paymentLinkId", link.ID, "amountCents", req.AmountCents, "maxShares", maxShares)
	return Link{ID: link.ID, URL: link.URL}, nil
}

// DeactivatePaymentLink stops a payment link from accepting new payments.
func (s *Service) DeactivatePaymentLink(ctx context.Context, linkID string) error {
	if !s.Enabled() || linkID == "" {
		return nil
	}
	params := &stripe.PaymentLinkParams{Active: stripe.Bool(false)}
	params.Context = ctx
	if _, err := s.api.UpdatePaymentLink(linkID, params); err != nil {
		return fmt.Errorf("deactivate stripe payment link: %w", err)
	}
	s.log.Info("payment link deactivated", "paymentLinkId", linkID)
	return nil
}

// CreateCheckout creates a hosted checkout bound to one company.
func (s *Service) CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error) {
	if !s.Enabled() {
		return Checkout{}, apperr.Unavailable("payments are not configured")
	}
	if req.AmountCents <= 0 {
		return Checkout{}, apperr.Validation("lead has no price")
	}

	expiresAt := s.now().Add(checkoutSessionTTL)
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(s.currency()),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName(req.LeadType, req.ServiceType, req.City, req.State)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(req.CompanyID.String()),
		SuccessURL:        stripe.String(withLeadParam(s.cfg.GetCheckoutSuccessURL(), req.LeadID)),
		CancelURL:         stripe.String(withLeadParam(s.cfg.GetCheckoutCancelURL(), req.LeadID)),
		ExpiresAt:         stripe.Int64(expiresAt.Unix()),
	}
	params.Context = ctx
	params.AddMetadata(metadataLeadID, req.LeadID.String())
	params.AddMetadata(metadataCompanyID, req.CompanyID.String())

	sess, err := s.api.NewCheckoutSession(params)
	if err != nil {
		return Checkout{}, fmt.Errorf("create stripe checkout session: %w", err)
	}
	if sess.ExpiresAt > 0 {
		expiresAt = time.Unix(sess.ExpiresAt, 0)
	}
	s.log.Info("checkout session created", "leadId", req.LeadID, "companyId", req.CompanyID, "sessionId", sess.ID)
	return Checkout{ID: sess.ID, URL: sess.URL, ExpiresAt: expiresAt}, nil
}

// PurchaseURL tags a payment link with the buying company so the webhook can attribute the payment.
func (s *Service) PurchaseURL(linkURL string, companyID uuid.UUID) string {
	u, err := url.Parse(linkURL)
	if err != nil {
		return linkURL
	}
	q := u.Query()
	q.Set("client_reference_id", companyID.String())
	u.RawQuery = q.Encode()
	return u.String()
}

// HandleWebhook verifies and processes a Stripe event. Unhandled event types are ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	secret := s.cfg.GetStripeWebhookSecret()
	if secret == "" {
		return apperr.Unavailable("stripe webhooks are not configured")
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted, stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return apperr.BadRequest("malformed checkout session payload")
		}
		return s.handleCheckoutCompleted(ctx, &sess)
	default:
		s.log.Debug("stripe event ignored", "eventId", event.ID, "type", event.Type)
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid &&
		sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
		s.log.Info("checkout completed without payment yet", "sessionId", sess.ID, "paymentStatus", sess.PaymentStatus)
		return nil
	}

	purchase, err := purchaseFromSession(sess)
	if err != nil {
		// Nothing to retry: the session cannot be attributed.
		s.log.Error("unattributable checkout session", "sessionId", sess.ID, "error", err)
		return nil
	}
	if s.recorder == nil {
		return apperr.Unavailable("purchase recording is not configured")
	}
	if err := s.recorder.RecordPurchase(ctx, purchase); err != nil {
		return fmt.Errorf("record purchase for session %s: %w", sess.ID, err)
	}
	return nil
}

func purchaseFromSession(sess *stripe.CheckoutSession) (CompletedPurchase, error) {
	p := CompletedPurchase{SessionID: sess.ID, AmountCents: sess.AmountTotal}

	if raw := sess.Metadata[metadataLeadID]; raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return p, fmt.Errorf("invalid lead_id metadata %q", raw)
		}
		p.LeadID = id
	}
	if sess.PaymentLink != nil {
		p.PaymentLinkID = sess.PaymentLink.ID
	}
	if p.LeadID == uuid.Nil && p.PaymentLinkID == "" {
		return p, errors.New("session has neither lead metadata nor payment link")
	}

	ref := sess.ClientReferenceID
	if ref == "" {
		ref = sess.Metadata[metadataCompanyID]
	}
	companyID, err := uuid.Parse(strings.TrimSpace(ref))
	if err != nil {
		return p, fmt.Errorf("invalid client reference %q", ref)
	}
	p.CompanyID = companyID
	return p, nil
}

func (s *Service) currency() string {
	if c := strings.ToLower(strings.TrimSpace(s.cfg.GetStripeCurrency())); c != "" {
		return c
	}
	return defaultCurrency
}

func productName(leadType, serviceType, city, state string) string {
	name := fmt.Sprintf("%s lead: %s in %s, %s", titleCase(leadType), serviceType, city, state)
	if len(name) > 250 {
		name = name[:250]
	}
	return name
}

func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Tree service"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func withLeadParam(raw string, leadID uuid.UUID) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("lead_id", leadID.String())
	u.RawQuery = q.Encode()
	return u.String()
}
