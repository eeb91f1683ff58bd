package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
)

type fakeRepo struct {
	companies map[string]*models.Company
	updates   map[uint]map[string]interface{}
	events    map[string]*models.BillingWebhookEvent
	nextEvent uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		companies: make(map[string]*models.Company),
		updates:   make(map[uint]map[string]interface{}),
		events:    make(map[string]*models.BillingWebhookEvent),
	}
}

func (r *fakeRepo) GetCompanyByID(id uint) (*models.Company, error) {
	for _, co := range r.companies {
		if co.ID == id {
			return co, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) GetCompanyByStripeCustomerID(customerID string) (*models.Company, error) {
	if co, ok := r.companies[customerID]; ok {
		return co, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRepo) UpdateCompanySubscription(companyID uint, fields map[string]interface{}) error {
	merged, ok := r.updates[companyID]
	if !ok {
		merged = make(map[string]interface{})
		r.updates[companyID] = merged
	}
	for k, v := range fields {
		merged[k] = v
	}
	return nil
}

func (r *fakeRepo) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	key := event.Provider + "/" + event.ProviderEventID
	if stored, ok := r.events[key]; ok {
		return false, stored, nil
	}
	r.nextEvent++
	event.ID = r.nextEvent
	r.events[key] = event
	return true, event, nil
}

func (r *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	for _, ev := range r.events {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
			return nil
		}
	}
	return fmt.Errorf("event %d not found", id)
}

func custID(s string) *string { return &s }

func subscriptionPayload(subID, customerID, status string, periodEnd int64, cancel bool) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"customer":%q,"status":%q,"current_period_end":%d,"cancel_at_period_end":%t}`,
		subID, customerID, status, periodEnd, cancel,
	))
}

func TestApplyEvent_SubscriptionUpdated(t *testing.T) {
	repo := newFakeRepo()
	repo.companies["cus_123"] = &models.Company{ID: 7, StripeCustomerID: custID("cus_123")}
	svc := NewService(repo)

	periodEnd := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	payload := subscriptionPayload("sub_9", "cus_123", "past_due", periodEnd.Unix(), true)

	if err := svc.ApplyEvent(context.Background(), EventSubscriptionUpdated, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := repo.updates[7]
	if got == nil {
		t.Fatalf("expected company 7 to be updated")
	}
	if got["subscription_status"] != "past_due" {
		t.Fatalf("status = %v, want past_due", got["subscription_status"])
	}
	if got["stripe_subscription_id"] != "sub_9" {
		t.Fatalf("subscription id = %v, want sub_9", got["stripe_subscription_id"])
	}
	if got["cancel_at_period_end"] != true {
		t.Fatalf("cancel_at_period_end = %v, want true", got["cancel_at_period_end"])
	}
	gotEnd, ok := got["current_period_end"].(*time.Time)
	if !ok || !gotEnd.Equal(periodEnd) {
		t.Fatalf("current_period_end = %v, want %v", got["current_period_end"], periodEnd)
	}
}

func TestApplyEvent_SubscriptionDeleted_ForcesCanceled(t *testing.T) {
	repo := newFakeRepo()
	repo.companies["cus_123"] = &models.Company{ID: 7, StripeCustomerID: custID("cus_123")}
	svc := NewService(repo)

	payload := subscriptionPayload("sub_9", "cus_123", "active", 0, false)
	if err := svc.ApplyEvent(context.Background(), EventSubscriptionDeleted, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.updates[7]["subscription_status"] != models.SubscriptionStatusCanceled {
		t.Fatalf("deleted event must force canceled, got %v", repo.updates[7]["subscription_status"])
	}
}

func TestApplyEvent_CheckoutCompleted_ActivatesAndCapturesSubscription(t *testing.T) {
	repo := newFakeRepo()
	repo.companies["cus_777"] = &models.Company{ID: 3, StripeCustomerID: custID("cus_777")}
	svc := NewService(repo)

	payload := []byte(`{"id":"cs_1","mode":"subscription","customer":"cus_777","subscription":"sub_new","metadata":{"plan":"pro"}}`)
	if err := svc.ApplyEvent(context.Background(), EventCheckoutSessionCompleted, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := repo.updates[3]
	if got["subscription_status"] != models.SubscriptionStatusActive {
		t.Fatalf("status = %v, want active", got["subscription_status"])
	}
	if got["stripe_subscription_id"] != "sub_new" {
		t.Fatalf("subscription id = %v, want sub_new", got["stripe_subscription_id"])
	}
	if got["plan"] != models.PlanPro {
		t.Fatalf("plan = %v, want pro", got["plan"])
	}
}

func TestApplyEvent_CompanyNotFound_IsBenign(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	payload := subscriptionPayload("sub_1", "cus_unknown", "active", 0, false)
	err := svc.ApplyEvent(context.Background(), EventSubscriptionUpdated, payload)
	if !errors.Is(err, ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
	if len(repo.updates) != 0 {
		t.Fatalf("no company row may be touched when the customer is unknown")
	}
}

func TestApplyEvent_CustomerIdentityMismatch_RejectsWithoutMutation(t *testing.T) {
	repo := newFakeRepo()
	// A poisoned index entry: lookup by cus_evil resolves a company whose
	// stored customer id differs. The stored id must win.
	repo.companies["cus_evil"] = &models.Company{ID: 9, StripeCustomerID: custID("cus_legit")}
	svc := NewService(repo)

	payload := subscriptionPayload("sub_x", "cus_evil", "active", 0, false)
	err := svc.ApplyEvent(context.Background(), EventSubscriptionUpdated, payload)
	if !errors.Is(err, ErrCustomerIdentityMismatch) {
		t.Fatalf("expected ErrCustomerIdentityMismatch, got %v", err)
	}
	if len(repo.updates) != 0 {
		t.Fatalf("identity mismatch must never mutate the company row")
	}
}

func TestApplyEvent_ReplayIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	repo.companies["cus_123"] = &models.Company{ID: 7, StripeCustomerID: custID("cus_123")}
	svc := NewService(repo)

	payload := subscriptionPayload("sub_9", "cus_123", "active", 1790000000, false)
	for i := 0; i < 2; i++ {
		if err := svc.ApplyEvent(context.Background(), EventSubscriptionUpdated, payload); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	got := repo.updates[7]
	if got["subscription_status"] != "active" || got["stripe_subscription_id"] != "sub_9" {
		t.Fatalf("replay changed final state: %v", got)
	}
}

func TestRecordWebhookEvent_Deduplicates(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	in := WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: "evt_1",
		EventType:       EventSubscriptionUpdated,
		PayloadJSON:     `{}`,
		SignatureValid:  true,
	}

	created, first, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil || !created {
		t.Fatalf("first delivery: created=%t err=%v", created, err)
	}
	created, second, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if created {
		t.Fatalf("duplicate delivery must not create a second event")
	}
	if first.ID != second.ID {
		t.Fatalf("duplicate delivery must resolve the stored event")
	}
}

func TestRecordWebhookEvent_HashFallbackForMissingEventID(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	in := WebhookEventInput{Provider: "stripe", PayloadJSON: `{"a":1}`}
	_, stored, err := svc.RecordWebhookEvent(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ProviderEventID == "" || stored.ProviderEventID[:5] != "hash:" {
		t.Fatalf("expected hash-derived event id, got %q", stored.ProviderEventID)
	}
}

func TestPeriodEnd_PrefersLatestItemEpoch(t *testing.T) {
	var sub stripeSubscription
	sub.CurrentPeriodEnd = 100
	sub.Items.Data = []struct {
		CurrentPeriodEnd int64 `json:"current_period_end"`
		Price            struct {
			ID string `json:"id"`
		} `json:"price"`
	}{
		{CurrentPeriodEnd: 300},
		{CurrentPeriodEnd: 200},
	}

	got := periodEnd(sub)
	if got == nil || got.Unix() != 300 {
		t.Fatalf("periodEnd = %v, want epoch 300", got)
	}

	if periodEnd(stripeSubscription{}) != nil {
		t.Fatalf("zero epoch must yield nil period end")
	}
}
