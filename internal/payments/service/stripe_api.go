package service

import (
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentlink"
	"github.com/stripe/stripe-go/v82/price"
)

// StripeAPI is the subset of the Stripe client the payments service calls.
type StripeAPI interface {
	NewPrice(params *stripe.PriceParams) (*stripe.Price, error)
	NewPaymentLink(params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error)
	UpdatePaymentLink(id string, params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error)
	NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// stripeClient calls the package-level Stripe API configured with the secret key.
type stripeClient struct{}

// NewStripeAPI sets the global Stripe key and returns the live client.
func NewStripeAPI(secretKey string) StripeAPI {
	stripe.Key = secretKey
	stripe.SetHTTPClient(&http.Client{Timeout: 10 * time.Second})
	return stripeClient{}
}

func (stripeClient) NewPrice(params *stripe.PriceParams) (*stripe.Price, error) {
	return price.New(params)
}

func (stripeClient) NewPaymentLink(params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error) {
	return paymentlink.New(params)
}

func (stripeClient) UpdatePaymentLink(id string, params *stripe.PaymentLinkParams) (*stripe.PaymentLink, error) {
	return paymentlink.Update(id, params)
}

func (stripeClient) NewCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}
