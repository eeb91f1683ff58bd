package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newCompanyTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&Company{}))
	return db
}

func TestCompanyCreate_SecondTenantWithoutBillingAccount(t *testing.T) {
	db := newCompanyTestDB(t)

	first := &Company{Name: "Arctic Air LLC", Email: "office@arcticair.test", Plan: PlanStarter}
	second := &Company{Name: "Borough Heating", Email: "hello@boroughheat.test", Plan: PlanStarter}

	require.NoError(t, db.Create(first).Error)
	require.NoError(t, db.Create(second).Error,
		"tenants without a stripe customer must not collide on the customer index")
	assert.Nil(t, second.StripeCustomerID)
}

func TestCompanyCreate_DuplicateStripeCustomerRejected(t *testing.T) {
	db := newCompanyTestDB(t)

	cus := "cus_123"
	require.NoError(t, db.Create(&Company{Name: "Arctic Air LLC", Email: "office@arcticair.test", StripeCustomerID: &cus}).Error)

	dup := "cus_123"
	err := db.Create(&Company{Name: "Borough Heating", Email: "hello@boroughheat.test", StripeCustomerID: &dup}).Error
	require.Error(t, err, "two companies must never share a stripe customer")
}

func TestCompanyHasActiveSubscription(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{SubscriptionStatusActive, true},
		{SubscriptionStatusTrialing, true},
		{SubscriptionStatusPastDue, true},
		{SubscriptionStatusCanceled, false},
		{SubscriptionStatusUnpaid, false},
		{SubscriptionStatusIncomplete, false},
	}

	for _, tt := range tests {
		co := Company{SubscriptionStatus: tt.status}
		assert.Equal(t, tt.want, co.HasActiveSubscription(), "status %s", tt.status)
	}
}
