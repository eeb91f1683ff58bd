package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/app/repository"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/statistics"
)

type partRequest struct {
	SKU              string `json:"sku" form:"sku"`
	Name             string `json:"name" form:"name"`
	Description      string `json:"description" form:"description"`
	QuantityOnHand   *int   `json:"quantity_on_hand" form:"quantity_on_hand"`
	ReorderThreshold *int   `json:"reorder_threshold" form:"reorder_threshold"`
	UnitCostCents    *int64 `json:"unit_cost_cents" form:"unit_cost_cents"`
	UnitPriceCents   *int64 `json:"unit_price_cents" form:"unit_price_cents"`
}

func HandlePartList(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	repo := repository.GetGlobalFactory().GetPartRepository()

	if c.Query("low_stock") == "true" {
		parts, err := repo.ListLowStock(uc.CompanyID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "list failed"})
		}
		return c.JSON(fiber.Map{"parts": parts, "total": len(parts)})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.Query("per_page", "50"))
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}

	parts, err := repo.ListByCompany(uc.CompanyID, (page-1)*perPage, perPage)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "list failed"})
	}
	return c.JSON(fiber.Map{"parts": parts, "page": page, "per_page": perPage})
}

func HandlePartGet(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	repo := repository.GetGlobalFactory().GetPartRepository()

	// Lookup by numeric id or by SKU.
	if id := paramID(c, "id"); id != 0 {
		part, err := repo.GetByID(uc.CompanyID, id)
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "part not found"})
		}
		return c.JSON(part)
	}
	part, err := repo.GetBySKU(uc.CompanyID, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "part not found"})
	}
	return c.JSON(part)
}

func HandlePartCreate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	var req partRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}

	repo := repository.GetGlobalFactory().GetPartRepository()
	sku := strings.TrimSpace(req.SKU)
	if _, err := repo.GetBySKU(uc.CompanyID, sku); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "duplicate_sku", "message": "a part with this SKU already exists"})
	}

	part := models.Part{
		CompanyID:   uc.CompanyID,
		SKU:         sku,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if req.QuantityOnHand != nil {
		part.QuantityOnHand = *req.QuantityOnHand
	}
	if req.ReorderThreshold != nil {
		part.ReorderThreshold = *req.ReorderThreshold
	}
	if req.UnitCostCents != nil {
		part.UnitCostCents = *req.UnitCostCents
	}
	if req.UnitPriceCents != nil {
		part.UnitPriceCents = *req.UnitPriceCents
	}
	if err := part.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repo.Create(&part); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not create part"})
	}
	return c.Status(fiber.StatusCreated).JSON(part)
}

func HandlePartUpdate(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid part id"})
	}

	repo := repository.GetGlobalFactory().GetPartRepository()
	part, err := repo.GetByID(uc.CompanyID, id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "part not found"})
	}

	var req partRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}

	if sku := strings.TrimSpace(req.SKU); sku != "" && sku != part.SKU {
		if _, err := repo.GetBySKU(uc.CompanyID, sku); err == nil {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "duplicate_sku", "message": "a part with this SKU already exists"})
		}
		part.SKU = sku
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		part.Name = name
	}
	if req.Description != "" {
		part.Description = req.Description
	}
	if req.ReorderThreshold != nil {
		part.ReorderThreshold = *req.ReorderThreshold
	}
	if req.UnitCostCents != nil {
		part.UnitCostCents = *req.UnitCostCents
	}
	if req.UnitPriceCents != nil {
		part.UnitPriceCents = *req.UnitPriceCents
	}
	// Quantity changes go through the stock endpoint so they stay atomic.
	if err := part.Validate(); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	if err := repo.Update(part); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not update part"})
	}
	return c.JSON(part)
}

type stockAdjustRequest struct {
	Delta int `json:"delta" form:"delta"`
}

// HandlePartAdjustStock applies a signed delta to the on-hand quantity,
// used for deliveries and manual corrections.
func HandlePartAdjustStock(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid part id"})
	}

	var req stockAdjustRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body", "message": "could not parse request body"})
	}
	if req.Delta == 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": "delta must be non-zero"})
	}

	part, err := repository.GetGlobalFactory().GetPartRepository().AdjustStock(uc.CompanyID, id, req.Delta)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "insufficient_stock", "message": "adjustment would drive stock below zero"})
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "part not found"})
	}

	statistics.InvalidateCompany(uc.CompanyID)
	return c.JSON(part)
}

func HandlePartDelete(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}
	id := paramID(c, "id")
	if id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_id", "message": "invalid part id"})
	}

	if err := repository.GetGlobalFactory().GetPartRepository().Delete(uc.CompanyID, id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "part not found"})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}
