package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/app/repository"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/billing"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/entitlements"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/env"
)

var (
	billingService  *billing.Service
	billingReceiver *billing.Receiver
	billingClient   *billing.Client
)

// SetBillingComponents wires the billing stack at startup. A nil client
// disables checkout and portal; a nil receiver disables the webhook.
func SetBillingComponents(svc *billing.Service, receiver *billing.Receiver, client *billing.Client) {
	billingService = svc
	billingReceiver = receiver
	billingClient = client
}

// HandleStripeWebhook is mounted on the raw request body, ahead of any
// body-parsing middleware. Every verified event is persisted before it is
// interpreted: duplicates are acknowledged without reprocessing, and a
// processing failure returns 5xx so Stripe retries against the stored event.
func HandleStripeWebhook(c *fiber.Ctx) error {
	if billingReceiver == nil || billingService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "billing_disabled", "message": "billing is not configured"})
	}

	payload := c.Body()
	event, err := billingReceiver.VerifyAndParse(payload, c.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrInvalidPayloadType) {
			log.Errorf("stripe webhook received an empty body; check middleware order")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "webhook body unavailable"})
		}
		log.Warnf("stripe webhook signature rejected from %s: %v", GetClientIP(c), err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature", "message": "signature verification failed"})
	}

	created, stored, err := billingService.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		log.Errorf("stripe webhook persist %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not persist event"})
	}
	if !created {
		return c.JSON(fiber.Map{"status": "duplicate"})
	}

	if !billing.IsReconcilableEvent(string(event.Type)) {
		if err := billingService.MarkWebhookProcessed(c.Context(), stored.ID, nil); err != nil {
			log.Errorf("stripe webhook mark processed %s: %v", event.ID, err)
		}
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	applyErr := billingService.ApplyEvent(c.Context(), string(event.Type), event.Data.Raw)
	if err := billingService.MarkWebhookProcessed(c.Context(), stored.ID, applyErr); err != nil {
		log.Errorf("stripe webhook mark processed %s: %v", event.ID, err)
	}

	switch {
	case applyErr == nil:
		return c.JSON(fiber.Map{"status": "processed"})
	case errors.Is(applyErr, billing.ErrCompanyNotFound):
		// Acknowledged so Stripe does not retry for a deleted tenant.
		return c.JSON(fiber.Map{"status": "no_company"})
	case errors.Is(applyErr, billing.ErrCustomerIdentityMismatch):
		log.Errorf("stripe webhook %s: %v", event.ID, applyErr)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "customer_mismatch", "message": "event customer does not match company record"})
	default:
		log.Errorf("stripe webhook apply %s: %v", event.ID, applyErr)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "event processing failed"})
	}
}

func priceIDForPlan(plan string) string {
	switch entitlements.Normalize(plan) {
	case entitlements.PlanEnterprise:
		return env.GetEnv("STRIPE_PRICE_ENTERPRISE", "")
	case entitlements.PlanPro:
		return env.GetEnv("STRIPE_PRICE_PRO", "")
	default:
		return ""
	}
}

func billingBaseURL() string {
	domain := env.GetEnv("PUBLIC_DOMAIN", "localhost")
	if domain == "localhost" {
		return "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return "https://" + domain
}

// HandleBillingCheckout starts a Stripe Checkout session to move the
// company onto a paid plan. Creates the Stripe customer on first use.
func HandleBillingCheckout(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	if billingClient == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "billing_disabled", "message": "billing is not configured"})
	}

	var req struct {
		Plan string `json:"plan" form:"plan"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}
	priceID := priceIDForPlan(req.Plan)
	if priceID == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "plan must be pro or enterprise"})
	}

	repo := repository.GetGlobalFactory().GetCompanyRepository()
	co, err := repo.GetByID(uc.CompanyID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "company not found"})
	}

	if co.StripeCustomerID == nil {
		customerID, err := billingClient.CreateCustomer(c.Context(), co.ID, co.Name, co.Email)
		if err != nil {
			log.Errorf("create stripe customer for company %d: %v", co.ID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "provider_error", "message": "could not create billing account"})
		}
		co.StripeCustomerID = &customerID
		if err := repo.Update(co); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not save billing account"})
		}
	}

	base := billingBaseURL()
	url, err := billingClient.CreateCheckoutSession(c.Context(), *co.StripeCustomerID, priceID,
		base+"/billing?checkout=success", base+"/billing?checkout=canceled")
	if err != nil {
		log.Errorf("checkout session for company %d: %v", co.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "provider_error", "message": "could not start checkout"})
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleBillingPortal returns a Stripe customer portal URL.
func HandleBillingPortal(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	if billingClient == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "billing_disabled", "message": "billing is not configured"})
	}

	co, err := repository.GetGlobalFactory().GetCompanyRepository().GetByID(uc.CompanyID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "company not found"})
	}
	if co.StripeCustomerID == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "no_billing_account", "message": "company has no billing account yet"})
	}

	url, err := billingClient.CreateBillingPortalSession(c.Context(), *co.StripeCustomerID, billingBaseURL()+"/billing")
	if err != nil {
		log.Errorf("portal session for company %d: %v", co.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "provider_error", "message": "could not open billing portal"})
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleBillingStatus reports the company's plan, subscription standing and
// the limits currently in effect.
func HandleBillingStatus(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	co, err := repository.GetGlobalFactory().GetCompanyRepository().GetByID(uc.CompanyID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "company not found"})
	}

	limits := entitlements.EffectiveLimits(co)
	return c.JSON(fiber.Map{
		"plan":                 strings.ToLower(co.Plan),
		"subscription_status":  co.SubscriptionStatus,
		"current_period_end":   co.CurrentPeriodEnd,
		"cancel_at_period_end": co.CancelAtPeriodEnd,
		"active":               co.HasActiveSubscription(),
		"limits": fiber.Map{
			"max_technicians":     limits.MaxTechnicians,
			"max_clients":         limits.MaxClients,
			"attachments_enabled": limits.AttachmentsEnabled,
			"reminders_enabled":   limits.RemindersEnabled,
		},
	})
}
