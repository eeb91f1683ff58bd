package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, PlanPro, Normalize("pro"))
	assert.Equal(t, PlanPro, Normalize("  Pro "))
	assert.Equal(t, PlanEnterprise, Normalize("ENTERPRISE"))
	assert.Equal(t, PlanStarter, Normalize("starter"))
	assert.Equal(t, PlanStarter, Normalize(""))
	assert.Equal(t, PlanStarter, Normalize("gold"))
}

func TestForPlan(t *testing.T) {
	starter := ForPlan(PlanStarter)
	assert.Equal(t, 3, starter.MaxTechnicians)
	assert.Equal(t, 200, starter.MaxClients)
	assert.False(t, starter.AttachmentsEnabled)
	assert.False(t, starter.RemindersEnabled)

	pro := ForPlan(PlanPro)
	assert.Equal(t, 25, pro.MaxTechnicians)
	assert.Zero(t, pro.MaxClients)
	assert.True(t, pro.AttachmentsEnabled)
	assert.True(t, pro.RemindersEnabled)

	ent := ForPlan(PlanEnterprise)
	assert.Zero(t, ent.MaxTechnicians)
	assert.True(t, ent.AttachmentsEnabled)
}

func TestEffectiveLimitsClampsLapsedSubscriptions(t *testing.T) {
	co := &models.Company{
		Plan:               "pro",
		SubscriptionStatus: models.SubscriptionStatusActive,
	}
	assert.True(t, EffectiveLimits(co).AttachmentsEnabled)

	co.SubscriptionStatus = models.SubscriptionStatusCanceled
	limits := EffectiveLimits(co)
	assert.False(t, limits.AttachmentsEnabled)
	assert.Equal(t, 3, limits.MaxTechnicians)

	co.SubscriptionStatus = models.SubscriptionStatusUnpaid
	assert.False(t, EffectiveLimits(co).RemindersEnabled)

	// Past-due keeps access while dunning runs.
	co.SubscriptionStatus = models.SubscriptionStatusPastDue
	assert.True(t, EffectiveLimits(co).AttachmentsEnabled)
}

func TestEffectiveLimitsNilCompany(t *testing.T) {
	limits := EffectiveLimits(nil)
	assert.Equal(t, 3, limits.MaxTechnicians)
	assert.False(t, limits.RemindersEnabled)
}
