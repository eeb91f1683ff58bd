package billing

import "time"

// Webhook event kinds the reconciler acts on. Everything else is recorded
// and acknowledged without side effects.
const (
	EventSubscriptionCreated      = "customer.subscription.created"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventCheckoutSessionCompleted = "checkout.session.completed"
)

// stripeSubscription carries just the fields the reconciler reads. Decoding
// into a local struct keeps us independent of SDK struct churn across Stripe
// API versions.
type stripeSubscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
	Metadata map[string]string `json:"metadata"`
}

type stripeCheckoutSession struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// SubscriptionUpdate is the normalized mutation derived from a verified
// event. Applied as a single overwrite of the company's subscription fields.
type SubscriptionUpdate struct {
	CustomerID        string
	SubscriptionID    string
	Status            string
	PlanRef           string
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}
