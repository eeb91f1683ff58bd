package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
)

// Service reconciles verified Stripe events into company subscription state.
type Service struct {
	repo Repository
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// RecordWebhookEvent persists webhook payloads idempotently. The second
// return reports whether this event id was seen for the first time.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// IsReconcilableEvent reports whether an event type mutates subscription state.
func IsReconcilableEvent(eventType string) bool {
	switch eventType {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted, EventCheckoutSessionCompleted:
		return true
	default:
		return false
	}
}

// ApplyEvent maps a verified event payload to a company subscription update.
// eventType is the event's nominal kind; rawData is event.Data.Raw.
func (s *Service) ApplyEvent(ctx context.Context, eventType string, rawData []byte) error {
	switch eventType {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripeSubscription
		if err := json.Unmarshal(rawData, &sub); err != nil {
			return fmt.Errorf("billing: decode subscription event: %w", err)
		}
		up := SubscriptionUpdate{
			CustomerID:        strings.TrimSpace(sub.Customer),
			SubscriptionID:    strings.TrimSpace(sub.ID),
			Status:            normalizeStatus(sub.Status),
			PlanRef:           firstPriceID(sub),
			CurrentPeriodEnd:  periodEnd(sub),
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		}
		if eventType == EventSubscriptionDeleted {
			up.Status = models.SubscriptionStatusCanceled
		}
		return s.applyUpdate(ctx, up)

	case EventCheckoutSessionCompleted:
		var sess stripeCheckoutSession
		if err := json.Unmarshal(rawData, &sess); err != nil {
			return fmt.Errorf("billing: decode checkout session event: %w", err)
		}
		// A completed checkout always activates and captures the new
		// subscription id; the follow-up subscription.updated fills in the
		// period bounds.
		return s.applyUpdate(ctx, SubscriptionUpdate{
			CustomerID:     strings.TrimSpace(sess.Customer),
			SubscriptionID: strings.TrimSpace(sess.Subscription),
			Status:         models.SubscriptionStatusActive,
			PlanRef:        planFromMetadata(sess.Metadata),
		})

	default:
		return nil
	}
}

// applyUpdate resolves the company, re-validates customer identity, and
// overwrites the subscription fields in a single update.
func (s *Service) applyUpdate(ctx context.Context, up SubscriptionUpdate) error {
	_ = ctx
	if up.CustomerID == "" {
		return fmt.Errorf("billing: event carries no customer id")
	}

	company, err := s.repo.GetCompanyByStripeCustomerID(up.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Infof("[Billing] no company for stripe customer %s, skipping", up.CustomerID)
			return ErrCompanyNotFound
		}
		return err
	}

	// The lookup already matched on customer id, but the comparison is kept
	// explicit so a forged or misrouted event can never mutate the wrong
	// tenant, whatever the lookup path.
	if company.StripeCustomerID == nil || *company.StripeCustomerID != up.CustomerID {
		stored := ""
		if company.StripeCustomerID != nil {
			stored = *company.StripeCustomerID
		}
		log.Errorf("[Billing] SECURITY: customer mismatch for company %d: stored=%q event=%q",
			company.ID, stored, up.CustomerID)
		return ErrCustomerIdentityMismatch
	}

	fields := map[string]interface{}{
		"subscription_status":  up.Status,
		"cancel_at_period_end": up.CancelAtPeriodEnd,
	}
	if up.SubscriptionID != "" {
		fields["stripe_subscription_id"] = up.SubscriptionID
	}
	if up.CurrentPeriodEnd != nil {
		fields["current_period_end"] = up.CurrentPeriodEnd
	}
	if plan := planForPriceRef(up.PlanRef); plan != "" {
		fields["plan"] = plan
	}

	if err := s.repo.UpdateCompanySubscription(company.ID, fields); err != nil {
		return err
	}

	log.Infof("[Billing] company %d subscription -> status=%s sub=%s cancel_at_period_end=%t",
		company.ID, up.Status, up.SubscriptionID, up.CancelAtPeriodEnd)
	return nil
}

func normalizeStatus(status string) string {
	st := strings.ToLower(strings.TrimSpace(status))
	switch st {
	case models.SubscriptionStatusActive, models.SubscriptionStatusTrialing,
		models.SubscriptionStatusPastDue, models.SubscriptionStatusCanceled,
		models.SubscriptionStatusUnpaid:
		return st
	case "":
		return models.SubscriptionStatusIncomplete
	default:
		return models.SubscriptionStatusIncomplete
	}
}

// periodEnd converts provider epoch seconds to a timestamp. Newer Stripe API
// versions move current_period_end under items, so both shapes are read.
func periodEnd(sub stripeSubscription) *time.Time {
	epoch := sub.CurrentPeriodEnd
	for _, item := range sub.Items.Data {
		if item.CurrentPeriodEnd > epoch {
			epoch = item.CurrentPeriodEnd
		}
	}
	if epoch <= 0 {
		return nil
	}
	t := time.Unix(epoch, 0).UTC()
	return &t
}

func firstPriceID(sub stripeSubscription) string {
	for _, item := range sub.Items.Data {
		if item.Price.ID != "" {
			return item.Price.ID
		}
	}
	return ""
}

func planFromMetadata(md map[string]string) string {
	if md == nil {
		return ""
	}
	return strings.TrimSpace(md["plan"])
}

// planForPriceRef maps a known plan name (carried in checkout metadata or a
// configured price lookup key) to the internal plan. Raw price ids that are
// not mapped leave the stored plan untouched.
func planForPriceRef(ref string) string {
	switch strings.ToLower(strings.TrimSpace(ref)) {
	case models.PlanEnterprise:
		return models.PlanEnterprise
	case models.PlanPro:
		return models.PlanPro
	case models.PlanStarter:
		return models.PlanStarter
	default:
		return ""
	}
}
