package models

import "time"

// ProviderAccount links an OAuth identity (goth provider) to a local user.
type ProviderAccount struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	Provider       string     `gorm:"type:varchar(50);not null;index:ux_provider_accounts_provider_user,unique,priority:1" json:"provider"`
	ProviderUserID string     `gorm:"type:varchar(191);not null;index:ux_provider_accounts_provider_user,unique,priority:2" json:"provider_user_id"`
	Email          string     `gorm:"type:varchar(200);default:''" json:"email"`
	AvatarURL      string     `gorm:"type:varchar(255);default:''" json:"avatar_url"`
	TokenExpiresAt *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
