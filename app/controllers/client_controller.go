package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/app/repository"
)

type clientRequest struct {
	FirstName    string `json:"first_name" form:"first_name"`
	LastName     string `json:"last_name" form:"last_name"`
	Email        string `json:"email" form:"email"`
	Phone        string `json:"phone" form:"phone"`
	AddressLine1 string `json:"address_line1" form:"address_line1"`
	AddressLine2 string `json:"address_line2" form:"address_line2"`
	City         string `json:"city" form:"city"`
	State        string `json:"state" form:"state"`
	PostalCode   string `json:"postal_code" form:"postal_code"`
	Notes        string `json:"notes" form:"notes"`
}

func (r *clientRequest) apply(cl *models.Client) {
	cl.FirstName = strings.TrimSpace(r.FirstName)
	cl.LastName = strings.TrimSpace(r.LastName)
	cl.Email = strings.TrimSpace(strings.ToLower(r.Email))
	cl.Phone = strings.TrimSpace(r.Phone)
	cl.AddressLine1 = strings.TrimSpace(r.AddressLine1)
	cl.AddressLine2 = strings.TrimSpace(r.AddressLine2)
	cl.City = strings.TrimSpace(r.City)
	cl.State = strings.TrimSpace(r.State)
	cl.PostalCode = strings.TrimSpace(r.PostalCode)
	cl.Notes = r.Notes
}

// HandleClientList returns the company's clients, paginated. A non-empty
// q parameter switches to name/email search.
func HandleClientList(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	repo := repository.GetGlobalFactory().GetClientRepository()

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		clients, err := repo.Search(uc.CompanyID, q)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "search failed"})
		}
		return c.JSON(fiber.Map{"clients": clients, "total": len(clients)})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "25"))
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	clients, err := repo.ListByCompany(uc.CompanyID, (page-1)*perPage, perPage)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "list failed"})
	}
	total, err := repo.CountByCompany(uc.CompanyID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "count failed"})
	}

	return c.JSON(fiber.Map{
		"clients":  clients,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func HandleClientGet(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid client id"})
	}

	client, err := repository.GetGlobalFactory().GetClientRepository().GetByID(uc.CompanyID, id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "client not found"})
	}
	return c.JSON(client)
}

func HandleClientCreate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	var req clientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}

	client := models.Client{CompanyID: uc.CompanyID}
	req.apply(&client)
	if err := client.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repository.GetGlobalFactory().GetClientRepository().Create(&client); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not create client"})
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

func HandleClientUpdate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid client id"})
	}

	repo := repository.GetGlobalFactory().GetClientRepository()
	client, err := repo.GetByID(uc.CompanyID, id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "client not found"})
	}

	var req clientRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}
	req.apply(client)
	if err := client.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repo.Update(client); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not update client"})
	}
	return c.JSON(client)
}

func HandleClientDelete(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid client id"})
	}

	if err := repository.GetGlobalFactory().GetClientRepository().Delete(uc.CompanyID, id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "client not found"})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
