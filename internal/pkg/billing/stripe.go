package billing

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Receiver verifies inbound Stripe webhooks over the raw request body. It
// must see the bytes Stripe signed, so the webhook route has to be mounted
// ahead of any generic body-parsing middleware.
type Receiver struct {
	webhookSecret string
}

func NewReceiver(webhookSecret string) *Receiver {
	return &Receiver{webhookSecret: webhookSecret}
}

// VerifyAndParse checks the signature header against the raw payload and
// returns the typed event. It performs no reconciliation.
func (r *Receiver) VerifyAndParse(payload []byte, signatureHeader string) (*stripe.Event, error) {
	if len(payload) == 0 {
		return nil, ErrInvalidPayloadType
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, r.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureVerificationFailed, err)
	}
	return &event, nil
}

// Client wraps the Stripe API for the calls the platform makes. It is
// constructed explicitly and passed down; no package-level key mutation.
type Client struct {
	api *stripeclient.API
}

// NewClient builds a Stripe client for the given secret key.
func NewClient(apiKey string) *Client {
	api := &stripeclient.API{}
	api.Init(apiKey, nil)
	return &Client{api: api}
}

// CreateCustomer creates a Stripe customer tagged with the company id.
func (c *Client) CreateCustomer(ctx context.Context, companyID uint, name, email string) (string, error) {
	params := &stripe.CustomerParams{
		Name:  stripe.String(name),
		Email: stripe.String(email),
		Metadata: map[string]string{
			"company_id": fmt.Sprintf("%d", companyID),
		},
	}
	params.Context = ctx

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create stripe customer: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession starts a subscription checkout for a company.
func (c *Client) CreateCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer:   stripe.String(customerID),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreateBillingPortalSession returns a URL where the company can manage its
// subscription and payment methods.
func (c *Client) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("billing: create billing portal session: %w", err)
	}
	return sess.URL, nil
}
