package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"treeleads/platform/apperr"
	"treeleads/platform/logger"
)

const testWebhookSecret = "whsec_test_secret"

type testConfig struct {
	key string
}

func (c testConfig) GetStripeSecretKey() string     { return c.key }
func (c testConfig) GetStripeWebhookSecret() string { return testWebhookSecret }
func (c testConfig) GetStripeCurrency() string      { return "USD" }
func (c testConfig) GetCheckoutSuccessURL() string  { return "https://leads.example.com/checkout/success" }
func (c testConfig) GetCheckoutCancelURL() string   { return "https://leads.example.com/checkout/cancel" }
func (c testConfig) IsStripeEnabled() bool          { return c.key != "" }

type fakeStripe struct {
	prices   []*stripe.PriceParams
	links    []*stripe.PaymentLinkParams
	updates  map[string]*stripe.PaymentLinkParams
	sessions []*stripe.CheckoutSessionParams
	err      error
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{updates: map[string]*stripe.PaymentLinkParams{}}
}

func (f *fakeStripe) NewPrice(params *stripe.PriceParams) (*stripe.Price, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.prices = append(f.prices, params)
	return &stripe.Price{ID: fmt.Sprintf("price_%d", len(f.prices))}, nil
}

func (f *fakeStripe) NewPaymentLink(params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error) {
	f.links = append(f.links, params)
	id := fmt.Sprintf("plink_%d", len(f.links))
	return &stripe.PaymentLink{ID: id, URL: "https://buy.stripe.com/test_" + id}, nil
}

func (f *fakeStripe) UpdatePaymentLink(id string, params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error) {
	f.updates[id] = params
	return &stripe.PaymentLink{ID: id}, nil
}

func (f *fakeStripe) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.sessions = append(f.sessions, params)
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1", ExpiresAt: *params.ExpiresAt}, nil
}

type recorder struct {
	got []CompletedPurchase
	err error
}

func (r *recorder) RecordPurchase(_ context.Context, p CompletedPurchase) error {
	r.got = append(r.got, p)
	return r.err
}

func newTestService(api StripeAPI, key string) (*Service, *recorder) {
	svc := New(api, testConfig{key: key}, logger.Discard())
	rec := &recorder{}
	svc.SetPurchaseRecorder(rec)
	return svc, rec
}

func signedEvent(t *testing.T, eventType string, object string) ([]byte, string) {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{"id":"evt_test","object":"event","api_version":"2020-08-27","type":%q,"data":{"object":%s}}`, eventType, object))
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestCreatePaymentLinkLimitsSessionsToShares(t *testing.T) {
	api := newFakeStripe()
	svc, _ := newTestService(api, "sk_test")
	leadID := uuid.New()

	link, err := svc.CreatePaymentLink(context.Background(), LinkRequest{
		LeadID: leadID, LeadType: "shared", AmountCents: 4400, MaxShares: 3, City: "Austin", State: "TX", ServiceType: "tree removal",
	})
	require.NoError(t, err)
	require.Equal(t, "plink_1", link.ID)
	require.Len(t, api.prices, 1)
	require.Equal(t, int64(4400), *api.prices[0].UnitAmount)
	require.Equal(t, "usd", *api.prices[0].Currency)
	require.Contains(t, *api.prices[0].ProductData.Name, "Shared lead")

	params := api.links[0]
	require.Equal(t, int64(3), *params.Restrictions.CompletedSessions.Limit)
	require.Equal(t, leadID.String(), params.Metadata[metadataLeadID])
	require.Contains(t, *params.AfterCompletion.Redirect.URL, "lead_id="+leadID.String())
}

func TestCreatePaymentLinkDisabledWithoutKey(t *testing.T) {
	svc, _ := newTestService(newFakeStripe(), "")
	_, err := svc.CreatePaymentLink(context.Background(), LinkRequest{LeadID: uuid.New(), AmountCents: 4400})
	require.True(t, apperr.Is(err, apperr.KindValidation))
	require.NoError(t, svc.DeactivatePaymentLink(context.Background(), "plink_1"))
}

func TestCreatePaymentLinkWrapsStripeErrors(t *testing.T) {
	api := newFakeStripe()
	api.err = errors.New("card_error")
	svc, _ := newTestService(api, "sk_test")
	_, err := svc.CreatePaymentLink(context.Background(), LinkRequest{LeadID: uuid.New(), AmountCents: 4400})
	require.ErrorContains(t, err, "create stripe price")
}

func TestDeactivatePaymentLink(t *testing.T) {
	api := newFakeStripe()
	svc, _ := newTestService(api, "sk_test")
	require.NoError(t, svc.DeactivatePaymentLink(context.Background(), "plink_9"))
	require.False(t, *api.updates["plink_9"].Active)
}

func TestCreateCheckoutBindsCompany(t *testing.T) {
	api := newFakeStripe()
	svc, _ := newTestService(api, "sk_test")
	leadID, companyID := uuid.New(), uuid.New()

	checkout, err := svc.CreateCheckout(context.Background(), CheckoutRequest{
		LeadID: leadID, CompanyID: companyID, LeadType: "exclusive", AmountCents: 8900, ServiceType: "pruning", City: "Austin", State: "TX",
	})
	require.NoError(t, err)
	require.Equal(t, "cs_test_1", checkout.ID)

	params := api.sessions[0]
	require.Equal(t, companyID.String(), *params.ClientReferenceID)
	require.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
	require.Equal(t, int64(8900), *params.LineItems[0].PriceData.UnitAmount)
	require.Equal(t, leadID.String(), params.Metadata[metadataLeadID])
	require.WithinDuration(t, time.Now().Add(checkoutSessionTTL), checkout.ExpiresAt, 5*time.Second)
}

func TestPurchaseURL(t *testing.T) {
	svc, _ := newTestService(newFakeStripe(), "sk_test")
	companyID := uuid.New()
	got := svc.PurchaseURL("https://buy.stripe.com/test_abc", companyID)
	require.Equal(t, "https://buy.stripe.com/test_abc?client_reference_id="+companyID.String(), got)
}

func TestWebhookRecordsPaymentLinkPurchase(t *testing.T) {
	svc, rec := newTestService(newFakeStripe(), "sk_test")
	companyID := uuid.New()
	object := fmt.Sprintf(`{"id":"cs_live_1","object":"checkout.session","client_reference_id":%q,"amount_total":4400,"payment_status":"paid","payment_link":"plink_1","metadata":{}}`, companyID)
	payload, header := signedEvent(t, "checkout.session.completed", object)

	require.NoError(t, svc.HandleWebhook(context.Background(), payload, header))
	require.Len(t, rec.got, 1)
	got := rec.got[0]
	require.Equal(t, "plink_1", got.PaymentLinkID)
	require.Equal(t, companyID, got.CompanyID)
	require.Equal(t, int64(4400), got.AmountCents)
	require.Equal(t, "cs_live_1", got.SessionID)
	require.Equal(t, uuid.Nil, got.LeadID)
}

func TestWebhookUsesCheckoutMetadata(t *testing.T) {
	svc, rec := newTestService(newFakeStripe(), "sk_test")
	leadID, companyID := uuid.New(), uuid.New()
	object := fmt.Sprintf(`{"id":"cs_2","object":"checkout.session","amount_total":8900,"payment_status":"paid","metadata":{"lead_id":%q,"company_id":%q}}`, leadID, companyID)
	payload, header := signedEvent(t, "checkout.session.completed", object)

	require.NoError(t, svc.HandleWebhook(context.Background(), payload, header))
	require.Len(t, rec.got, 1)
	require.Equal(t, leadID, rec.got[0].LeadID)
	require.Equal(t, companyID, rec.got[0].CompanyID)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, rec := newTestService(newFakeStripe(), "sk_test")
	payload, header := signedEvent(t, "checkout.session.completed", `{"id":"cs_3","object":"checkout.session"}`)
	tampered := []byte(strings.Replace(string(payload), "cs_3", "cs_4", 1))

	err := svc.HandleWebhook(context.Background(), tampered, header)
	require.ErrorIs(t, err, ErrInvalidSignature)
	require.Empty(t, rec.got)
}

func TestWebhookIgnoresUnpaidAndOtherEvents(t *testing.T) {
	svc, rec := newTestService(newFakeStripe(), "sk_test")

	payload, header := signedEvent(t, "checkout.session.completed",
		fmt.Sprintf(`{"id":"cs_5","object":"checkout.session","client_reference_id":%q,"payment_status":"unpaid","payment_link":"plink_1"}`, uuid.New()))
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, header))

	payload, header = signedEvent(t, "customer.created", `{"id":"cus_1","object":"customer"}`)
	require.NoError(t, svc.HandleWebhook(context.Background(), payload, header))
	require.Empty(t, rec.got)
}

func TestWebhookPropagatesRecorderFailure(t *testing.T) {
	svc, rec := newTestService(newFakeStripe(), "sk_test")
	rec.err = errors.New("database unavailable")
	object := fmt.Sprintf(`{"id":"cs_6","object":"checkout.session","client_reference_id":%q,"amount_total":4400,"payment_status":"paid","payment_link":"plink_1"}`, uuid.New())
	payload, header := signedEvent(t, "checkout.session.completed", object)

	err := svc.HandleWebhook(context.Background(), payload, header)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidSignature)
}
