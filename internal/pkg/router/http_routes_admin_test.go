package router

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freezeflowai/hvac-pm-platform/app/controllers"
	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/impersonation"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/usercontext"
)

func newAdminTestApp(t *testing.T, uc usercontext.UserContext) (*fiber.App, *impersonation.Guard) {
	t.Helper()

	guard := impersonation.NewGuard(impersonation.NewMemoryStore())
	controllers.SetImpersonationGuard(guard)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		usercontext.SetUserContext(c, uc)
		return c.Next()
	})
	NewHttpRouter().registerAdminRoutes(app)
	return app, guard
}

func impersonatingContext() usercontext.UserContext {
	return usercontext.UserContext{
		UserID:        42,
		CompanyID:     7,
		Username:      "Pat Technician",
		Role:          models.ROLE_TECHNICIAN,
		IsLoggedIn:    true,
		Impersonating: true,
		ActingAdminID: 1,
	}
}

func startTestGrant(t *testing.T, guard *impersonation.Guard) {
	t.Helper()
	_, err := guard.Start(context.Background(), impersonation.Grant{
		AdminID:         1,
		AdminName:       "ops",
		TargetUserID:    42,
		TargetCompanyID: 7,
		TargetName:      "Pat Technician",
		TargetRole:      models.ROLE_TECHNICIAN,
		Reason:          "debugging scheduling issue",
	})
	require.NoError(t, err)
}

func TestImpersonationStatus_ReachableMidImpersonation(t *testing.T) {
	app, guard := newAdminTestApp(t, impersonatingContext())
	startTestGrant(t, guard)

	req := httptest.NewRequest(fiber.MethodGet, "/admin/impersonation/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode,
		"the acting admin must be able to poll status while the grant rewrites their identity")

	var status impersonation.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Active)
	require.NotNil(t, status.Grant)
	assert.Equal(t, uint(1), status.Grant.AdminID)
}

func TestImpersonationStop_ReachableMidImpersonation(t *testing.T) {
	app, guard := newAdminTestApp(t, impersonatingContext())
	startTestGrant(t, guard)

	req := httptest.NewRequest(fiber.MethodDelete, "/admin/impersonation", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode,
		"stop must work mid-impersonation; timing out is not an acceptable exit")

	grant, state, err := guard.Current(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, grant)
	assert.Equal(t, impersonation.StateNone, state)
}

func TestAdminConsole_RejectedMidImpersonation(t *testing.T) {
	app, guard := newAdminTestApp(t, impersonatingContext())
	startTestGrant(t, guard)

	req := httptest.NewRequest(fiber.MethodGet, "/admin/companies", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode,
		"the console itself stays closed until the session is stopped")
}

func TestImpersonationStatus_ForbiddenForRegularUsers(t *testing.T) {
	app, _ := newAdminTestApp(t, usercontext.UserContext{
		UserID:     42,
		CompanyID:  7,
		Role:       models.ROLE_TECHNICIAN,
		IsLoggedIn: true,
	})

	req := httptest.NewRequest(fiber.MethodGet, "/admin/impersonation/status", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
