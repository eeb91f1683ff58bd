package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/constants"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/database"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/session"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/usercontext"
)

// HandleOAuthLogin starts the provider flow
func HandleOAuthLogin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the user in.
// OAuth only signs in existing members; company accounts are created through
// registration, never from a stray Google login.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	db := database.GetDB()

	var pa models.ProviderAccount
	res := db.Where("provider = ? AND provider_user_id = ?", u.Provider, u.UserID).First(&pa)

	var appUser models.User
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		if u.Email == "" {
			return c.Status(fiber.StatusForbidden).SendString("OAuth account has no email; ask your admin for an invite")
		}
		if err := db.Where("email = ?", u.Email).First(&appUser).Error; err != nil {
			return c.Status(fiber.StatusForbidden).SendString("no account for this email; ask your admin for an invite")
		}

		var exp *time.Time
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			exp = &t
		}
		pa = models.ProviderAccount{
			UserID:         appUser.ID,
			Provider:       u.Provider,
			ProviderUserID: u.UserID,
			Email:          u.Email,
			AvatarURL:      u.AvatarURL,
			TokenExpiresAt: exp,
		}
		if err := db.Create(&pa).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("link provider failed: %v", err))
		}
	} else if res.Error == nil {
		if !u.ExpiresAt.IsZero() {
			t := u.ExpiresAt
			pa.TokenExpiresAt = &t
		} else {
			pa.TokenExpiresAt = nil
		}
		if err := db.Save(&pa).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("update provider link failed: %v", err))
		}
		if err := db.First(&appUser, pa.UserID).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("linked user not found")
		}
	} else {
		return c.Status(fiber.StatusInternalServerError).SendString(fmt.Sprintf("db error: %v", res.Error))
	}

	if !appUser.IsActive() {
		return c.Status(fiber.StatusForbidden).SendString("account is not active")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}
	sess.Set(AUTH_KEY, true)
	sess.Set(usercontext.KeyUserID, appUser.ID)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}
	_ = session.SetSessionValue(c, usercontext.KeyUsername, appUser.Name)
	_ = session.SetSessionValue(c, usercontext.KeyRole, appUser.Role)
	if appUser.CompanyID != nil {
		_ = session.SetSessionValue(c, usercontext.KeyCompanyID, strconv.FormatUint(uint64(*appUser.CompanyID), 10))
	}

	_ = db.Model(&appUser).UpdateColumn("last_login_at", time.Now()).Error

	return c.Redirect(constants.DashboardRoute, fiber.StatusSeeOther)
}

// HandleOAuthLogout clears the provider session alongside the app session
func HandleOAuthLogout(c *fiber.Ctx) error {
	_ = gothfiber.Logout(c)
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.Redirect(constants.PublicRoute, fiber.StatusSeeOther)
}
