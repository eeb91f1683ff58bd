package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/app/repository"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/database"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/hcaptcha"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/mail"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/session"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/usercontext"
)

type registerRequest struct {
	CompanyName  string `json:"company_name" form:"company_name"`
	Email        string `json:"email" form:"email"`
	Name         string `json:"name" form:"name"`
	Password     string `json:"password" form:"password"`
	Phone        string `json:"phone" form:"phone"`
	CaptchaToken string `json:"h-captcha-response" form:"h-captcha-response"`
}

// HandleRegister signs up a new company with its first admin user.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "invalid request body"})
	}

	if hcaptcha.Enabled() {
		if ok, err := hcaptcha.Verify(req.CaptchaToken); !ok || err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "captcha_failed", "message": "captcha verification failed"})
		}
	}

	db := database.GetDB()
	company := &models.Company{
		Name:  req.CompanyName,
		Email: req.Email,
		Phone: req.Phone,
		Plan:  models.PlanStarter,
	}
	if err := company.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	user, err := models.CreateUser(nil, req.Name, req.Email, req.Password, models.ROLE_ADMIN)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return err
		}
		user.CompanyID = &company.ID
		if err := user.GenerateActivationToken(); err != nil {
			return err
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "registration_failed", "message": "email may already be in use"})
	}

	if err := mail.SendActivationMail(user); err != nil {
		// The account exists; activation can be re-sent later.
		log.Errorf("failed to send activation mail to %s: %v", user.Email, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"company_id": company.ID,
		"user_id":    user.ID,
		"message":    "account created, check your email to activate",
	})
}

// HandleActivate flips an account to active when the emailed token matches.
func HandleActivate(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "missing token"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByActivationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "invalid activation token"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "activation failed"})
	}

	user.Status = models.STATUS_ACTIVE
	user.ActivationToken = ""
	if err := repo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "activation failed"})
	}

	return c.JSON(fiber.Map{"message": "account activated"})
}

// HandleLogin authenticates with email and password and opens a web session.
func HandleLogin(c *fiber.Ctx) error {
	email := c.FormValue("email")
	password := c.FormValue("password")

	fm := fiber.Map{"type": "error"}

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	var user models.User
	result := database.GetDB().Where("email = ?", email).First(&user)
	if result.Error != nil || !models.CheckPasswordHash(password, user.Password) {
		fm["message"] = "There is a problem with the login process"
		return flash.WithError(c, fm).Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "invalid credentials"})
	}

	if !user.IsActive() {
		fm["message"] = "Account is not active"
		return flash.WithError(c, fm).Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "account not active"})
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "session error"})
	}

	sess.Set(AUTH_KEY, true)
	sess.Set(usercontext.KeyUserID, user.ID)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "session error"})
	}

	_ = session.SetSessionValue(c, usercontext.KeyUsername, user.Name)
	_ = session.SetSessionValue(c, usercontext.KeyRole, user.Role)
	if user.CompanyID != nil {
		_ = session.SetSessionValue(c, usercontext.KeyCompanyID, strconv.FormatUint(uint64(*user.CompanyID), 10))
	}

	database.GetDB().Model(&user).Update("last_login_at", time.Now())

	return c.JSON(fiber.Map{
		"user_id": user.ID,
		"name":    user.Name,
		"role":    user.Role,
	})
}

// HandleLogout destroys the web session.
func HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// HandleGenerateAPIKey mints a fresh API key for the field app. The plaintext
// is shown exactly once.
func HandleGenerateAPIKey(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByID(uc.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "failed to load user"})
	}

	key, err := user.GenerateAPIKey()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "failed to generate key"})
	}
	if err := repo.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "failed to store key"})
	}

	return c.JSON(fiber.Map{"api_key": key})
}

// HandleMe returns the effective identity, including impersonation state.
func HandleMe(c *fiber.Ctx) error {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "login required"})
	}
	return c.JSON(uc)
}
