package repository

import (
	"time"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByActivationToken(token string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	ListByCompany(companyID uint, offset, limit int) ([]models.User, error)
	CountByCompanyAndRole(companyID uint, role string) (int64, error)
	ListTechnicians(companyID uint) ([]models.User, error)
}

// CompanyRepository defines the interface for company-related database operations
type CompanyRepository interface {
	Create(company *models.Company) error
	GetByID(id uint) (*models.Company, error)
	GetByStripeCustomerID(customerID string) (*models.Company, error)
	Update(company *models.Company) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Company, error)
	Count() (int64, error)
	Search(query string) ([]models.Company, error)
}

// ClientRepository defines the interface for client-related database operations
type ClientRepository interface {
	Create(client *models.Client) error
	GetByID(companyID, id uint) (*models.Client, error)
	Update(client *models.Client) error
	Delete(companyID, id uint) error
	ListByCompany(companyID uint, offset, limit int) ([]models.Client, error)
	CountByCompany(companyID uint) (int64, error)
	Search(companyID uint, query string) ([]models.Client, error)
}

// AppointmentRepository defines the interface for appointment operations
type AppointmentRepository interface {
	Create(appt *models.Appointment) error
	GetByID(companyID, id uint) (*models.Appointment, error)
	GetByUUID(companyID uint, uuid string) (*models.Appointment, error)
	Update(appt *models.Appointment) error
	Delete(companyID, id uint) error
	ListByCompany(companyID uint, from, to time.Time) ([]models.Appointment, error)
	ListByTechnician(companyID, technicianID uint, from, to time.Time) ([]models.Appointment, error)
	FindConflicts(companyID, technicianID uint, start, end time.Time, excludeID uint) ([]models.Appointment, error)
	AddPart(apptPart *models.AppointmentPart) error
	RemovePart(appointmentID, partID uint) error
	GetParts(appointmentID uint) ([]models.AppointmentPart, error)
}

// PartRepository defines the interface for part inventory operations
type PartRepository interface {
	Create(part *models.Part) error
	GetByID(companyID, id uint) (*models.Part, error)
	GetBySKU(companyID uint, sku string) (*models.Part, error)
	Update(part *models.Part) error
	Delete(companyID, id uint) error
	ListByCompany(companyID uint, offset, limit int) ([]models.Part, error)
	ListLowStock(companyID uint) ([]models.Part, error)
	AdjustStock(companyID, id uint, delta int) (*models.Part, error)
}

// MaintenanceRepository defines the interface for maintenance record operations
type MaintenanceRepository interface {
	Create(record *models.MaintenanceRecord) error
	GetByID(companyID, id uint) (*models.MaintenanceRecord, error)
	Update(record *models.MaintenanceRecord) error
	Delete(companyID, id uint) error
	ListByClient(companyID, clientID uint) ([]models.MaintenanceRecord, error)
	ListDueSoon(companyID uint, within time.Duration) ([]models.MaintenanceRecord, error)
	AddAttachment(att *models.Attachment) error
	GetAttachment(companyID, attachmentID uint) (*models.Attachment, error)
	DeleteAttachment(companyID, attachmentID uint) error
}

// InvoiceRepository defines the interface for invoice operations
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	GetByID(companyID, id uint) (*models.Invoice, error)
	GetByUUID(companyID uint, uuid string) (*models.Invoice, error)
	Update(invoice *models.Invoice) error
	Delete(companyID, id uint) error
	ListByCompany(companyID uint, status string, offset, limit int) ([]models.Invoice, error)
	NextNumber(companyID uint) (string, error)
	ReplaceItems(invoiceID uint, items []models.InvoiceItem) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	User        UserRepository
	Company     CompanyRepository
	Client      ClientRepository
	Appointment AppointmentRepository
	Part        PartRepository
	Maintenance MaintenanceRepository
	Invoice     InvoiceRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:        NewUserRepository(db),
		Company:     NewCompanyRepository(db),
		Client:      NewClientRepository(db),
		Appointment: NewAppointmentRepository(db),
		Part:        NewPartRepository(db),
		Maintenance: NewMaintenanceRepository(db),
		Invoice:     NewInvoiceRepository(db),
	}
}
