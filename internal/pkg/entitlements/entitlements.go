package entitlements

import (
	"strings"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
)

type Plan string

const (
	PlanStarter    Plan = "starter"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// Limits describes what a plan allows. Zero means unlimited.
type Limits struct {
	MaxTechnicians     int
	MaxClients         int
	AttachmentsEnabled bool
	RemindersEnabled   bool
}

// ForPlan returns the limits for a plan; unknown plans fall back to starter.
func ForPlan(plan Plan) Limits {
	switch plan {
	case PlanEnterprise:
		return Limits{MaxTechnicians: 0, MaxClients: 0, AttachmentsEnabled: true, RemindersEnabled: true}
	case PlanPro:
		return Limits{MaxTechnicians: 25, MaxClients: 0, AttachmentsEnabled: true, RemindersEnabled: true}
	default:
		return Limits{MaxTechnicians: 3, MaxClients: 200, AttachmentsEnabled: false, RemindersEnabled: false}
	}
}

// Normalize maps arbitrary plan strings to a known plan.
func Normalize(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanEnterprise):
		return PlanEnterprise
	case string(PlanPro):
		return PlanPro
	default:
		return PlanStarter
	}
}

// EffectiveLimits combines a company's plan and subscription standing. A
// company whose subscription has lapsed is clamped to starter limits.
func EffectiveLimits(co *models.Company) Limits {
	if co == nil || !co.HasActiveSubscription() {
		return ForPlan(PlanStarter)
	}
	return ForPlan(Normalize(co.Plan))
}
