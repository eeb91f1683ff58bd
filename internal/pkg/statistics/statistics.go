package statistics

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/cache"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/database"
)

const (
	CacheKeyCompanyToday    = "statistics:company:%d:today:%s" // company id, date YYYY-MM-DD
	CacheKeyCompanyOpen     = "statistics:company:%d:open"     // unfinished appointments
	CacheKeyCompanyUnpaid   = "statistics:company:%d:unpaid"   // sent-but-unpaid invoice cents
	CacheKeyCompanyLowStock = "statistics:company:%d:lowstock" // parts at/below threshold
	CacheExpiration         = 5 * time.Minute
)

// DashboardData holds the numbers shown on a company dashboard.
type DashboardData struct {
	TodayAppointments int
	OpenAppointments  int
	UnpaidCents       int64
	LowStockParts     int
}

// GetDashboardData assembles the dashboard numbers for one company,
// cache-first with short expiry.
func GetDashboardData(companyID uint) DashboardData {
	return DashboardData{
		TodayAppointments: getTodayAppointments(companyID),
		OpenAppointments:  getOpenAppointments(companyID),
		UnpaidCents:       getUnpaidCents(companyID),
		LowStockParts:     getLowStockParts(companyID),
	}
}

func getTodayAppointments(companyID uint) int {
	today := time.Now().Format("2006-01-02")
	key := fmt.Sprintf(CacheKeyCompanyToday, companyID, today)

	if val, err := cache.Get(key); err == nil {
		if count, err := strconv.ParseInt(val, 10, 64); err == nil {
			return int(count)
		}
	}

	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	var count int64
	db := database.GetDB()
	if err := db.Model(&models.Appointment{}).
		Where("company_id = ? AND scheduled_start BETWEEN ? AND ?", companyID, todayStart, todayEnd).
		Count(&count).Error; err != nil {
		log.Printf("Error counting today's appointments for company %d: %v", companyID, err)
		return 0
	}

	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's appointments: %v", err)
	}
	return int(count)
}

func getOpenAppointments(companyID uint) int {
	key := fmt.Sprintf(CacheKeyCompanyOpen, companyID)

	if val, err := cache.Get(key); err == nil {
		if count, err := strconv.ParseInt(val, 10, 64); err == nil {
			return int(count)
		}
	}

	var count int64
	db := database.GetDB()
	if err := db.Model(&models.Appointment{}).
		Where("company_id = ? AND status IN ?", companyID, []string{
			models.AppointmentStatusScheduled,
			models.AppointmentStatusEnRoute,
			models.AppointmentStatusInProgress,
		}).
		Count(&count).Error; err != nil {
		log.Printf("Error counting open appointments for company %d: %v", companyID, err)
		return 0
	}

	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching open appointments: %v", err)
	}
	return int(count)
}

func getUnpaidCents(companyID uint) int64 {
	key := fmt.Sprintf(CacheKeyCompanyUnpaid, companyID)

	if val, err := cache.Get(key); err == nil {
		if cents, err := strconv.ParseInt(val, 10, 64); err == nil {
			return cents
		}
	}

	var cents int64
	db := database.GetDB()
	row := db.Model(&models.Invoice{}).
		Where("company_id = ? AND status = ?", companyID, models.InvoiceStatusSent).
		Select("COALESCE(SUM(total_cents), 0)").
		Row()
	if err := row.Scan(&cents); err != nil {
		log.Printf("Error summing unpaid invoices for company %d: %v", companyID, err)
		return 0
	}

	if err := cache.Set(key, strconv.FormatInt(cents, 10), CacheExpiration); err != nil {
		log.Printf("Error caching unpaid total: %v", err)
	}
	return cents
}

func getLowStockParts(companyID uint) int {
	key := fmt.Sprintf(CacheKeyCompanyLowStock, companyID)

	if val, err := cache.Get(key); err == nil {
		if count, err := strconv.ParseInt(val, 10, 64); err == nil {
			return int(count)
		}
	}

	var count int64
	db := database.GetDB()
	if err := db.Model(&models.Part{}).
		Where("company_id = ? AND quantity_on_hand <= reorder_threshold", companyID).
		Count(&count).Error; err != nil {
		log.Printf("Error counting low stock parts for company %d: %v", companyID, err)
		return 0
	}

	if err := cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Printf("Error caching low stock count: %v", err)
	}
	return int(count)
}

// InvalidateCompany drops a company's cached dashboard numbers after writes
// that change them (appointment or invoice mutations, stock adjustments).
func InvalidateCompany(companyID uint) {
	today := time.Now().Format("2006-01-02")
	keys := []string{
		fmt.Sprintf(CacheKeyCompanyToday, companyID, today),
		fmt.Sprintf(CacheKeyCompanyOpen, companyID),
		fmt.Sprintf(CacheKeyCompanyUnpaid, companyID),
		fmt.Sprintf(CacheKeyCompanyLowStock, companyID),
	}
	for _, key := range keys {
		if err := cache.Delete(key); err != nil {
			log.Printf("Error invalidating stats cache %s: %v", key, err)
		}
	}
}

// RecentDailyStats returns per-day appointment and invoicing rollups for the
// last n days, newest first.
func RecentDailyStats(companyID uint, days int) ([]models.DailyStats, error) {
	if days <= 0 {
		days = 7
	}
	db := database.GetDB()
	since := time.Now().AddDate(0, 0, -days)

	var stats []models.DailyStats
	err := db.Model(&models.Appointment{}).
		Select("DATE(scheduled_start) AS date, COUNT(*) AS appointments_total, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS appointments_done",
			models.AppointmentStatusCompleted).
		Where("company_id = ? AND scheduled_start >= ?", companyID, since).
		Group("DATE(scheduled_start)").
		Order("date DESC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	for i := range stats {
		var cents int64
		row := db.Model(&models.Invoice{}).
			Where("company_id = ? AND DATE(issued_at) = DATE(?)", companyID, stats[i].Date).
			Select("COALESCE(SUM(total_cents), 0)").
			Row()
		if err := row.Scan(&cents); err == nil {
			stats[i].InvoicedCents = cents
		}
	}
	return stats, nil
}

// RollupDailyStats refreshes cached dashboard numbers for companies with
// activity today. Called hourly from the background manager.
func RollupDailyStats(now time.Time) error {
	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database unavailable")
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var companyIDs []uint
	if err := db.Model(&models.Appointment{}).
		Where("scheduled_start >= ?", dayStart).
		Distinct("company_id").
		Pluck("company_id", &companyIDs).Error; err != nil {
		return err
	}

	for _, id := range companyIDs {
		InvalidateCompany(id)
		_ = GetDashboardData(id)
	}
	return nil
}
