package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/statistics"
)

// HandleDashboard returns the cached company overview: today's schedule
// size, open work, unpaid balance and low-stock count.
func HandleDashboard(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	data := statistics.GetDashboardData(uc.CompanyID)
	return c.JSON(data)
}

// HandleDashboardHistory returns per-day appointment and revenue figures
// for trend charts.
func HandleDashboardHistory(c *fiber.Ctx) error {
	uc, ok := requireCompanyContext(c)
	if !ok {
		return nil
	}

	days := c.QueryInt("days", 14)
	if days < 1 || days > 90 {
		days = 14
	}

	stats, err := statistics.RecentDailyStats(uc.CompanyID, days)
	if err != nil {
		log.Errorf("daily stats for company %d: %v", uc.CompanyID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error", "message": "could not load history"})
	}
	return c.JSON(fiber.Map{"days": stats})
}
