package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"rightbridge-server/database"
	"rightbridge-server/models"
	"rightbridge-server/websocket"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Skill{},
		&models.ProviderSkill{},
		&models.Service{},
		&models.Booking{},
		&models.BookingStatusHistory{},
	))

	database.DB = db
	return db
}

func newTestBookingService(db *gorm.DB) *BookingService {
	hub := websocket.NewHub()
	return NewBookingService(db, websocket.NewDashboardBroadcaster(hub), NewEmailService())
}

func seedUser(t *testing.T, db *gorm.DB, name, mobile string, role models.UserRole) models.User {
	t.Helper()
	user := models.User{
		Name:         name,
		MobileNumber: mobile,
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func TestBookingLifecycleHistoryIsAppendOnly(t *testing.T) {
	db := setupTestDB(t)
	setupEmailTestConfig()
	svc := newTestBookingService(db)

	customer := seedUser(t, db, "Asha", "111", models.RoleCustomer)
	admin := seedUser(t, db, "Root", "222", models.RoleAdmin)
	first := seedUser(t, db, "Mo", "333", models.RoleProvider)
	second := seedUser(t, db, "Lena", "444", models.RoleProvider)

	catalog := models.Service{Title: "Sink Repair", Price: 40}
	require.NoError(t, db.Create(&catalog).Error)

	booking, err := svc.CreateBooking(customer.ID, CreateBookingInput{
		ServiceID: catalog.ID,
		Date:      time.Now().Add(24 * time.Hour),
		Address:   "12 Elm Street",
		Quantity:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Nil(t, booking.AssignedProviderID)
	assert.Equal(t, 80.0, booking.TotalAmount)
	require.Len(t, booking.StatusHistory, 1)
	assert.Equal(t, models.BookingStatusPending, booking.StatusHistory[0].Status)

	// Assigning from pending advances the status and appends
	booking, err = svc.AssignProvider(booking.ID, first.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusAssigned, booking.Status)
	require.Len(t, booking.StatusHistory, 2)

	// Reassignment keeps the status but still appends an audit row
	booking, err = svc.AssignProvider(booking.ID, second.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusAssigned, booking.Status)
	require.Equal(t, second.ID, *booking.AssignedProviderID)
	require.Len(t, booking.StatusHistory, 3)
	assert.Equal(t, "provider reassigned", booking.StatusHistory[2].Notes)

	// Status progression keeps appending, never rewriting
	booking, err = svc.UpdateStatus(booking.ID, &admin, UpdateStatusInput{
		Status: models.BookingStatusInProgress,
	})
	require.NoError(t, err)
	require.Len(t, booking.StatusHistory, 4)
	require.NotNil(t, booking.StartedAt)

	booking, err = svc.UpdateStatus(booking.ID, &admin, UpdateStatusInput{
		Status: models.BookingStatusCompleted,
		Notes:  "done",
	})
	require.NoError(t, err)
	require.Len(t, booking.StatusHistory, 5)
	assert.True(t, booking.WorkCompleted.Completed)

	// Earlier entries are untouched
	assert.Equal(t, models.BookingStatusPending, booking.StatusHistory[0].Status)
	assert.Equal(t, models.BookingStatusAssigned, booking.StatusHistory[1].Status)
}

func TestAssignProviderRejectsNonProviders(t *testing.T) {
	db := setupTestDB(t)
	setupEmailTestConfig()
	svc := newTestBookingService(db)

	customer := seedUser(t, db, "Asha", "111", models.RoleCustomer)
	admin := seedUser(t, db, "Root", "222", models.RoleAdmin)
	other := seedUser(t, db, "Sam", "333", models.RoleCustomer)

	catalog := models.Service{Title: "Sink Repair", Price: 40}
	require.NoError(t, db.Create(&catalog).Error)

	booking, err := svc.CreateBooking(customer.ID, CreateBookingInput{
		ServiceID: catalog.ID,
		Date:      time.Now().Add(24 * time.Hour),
		Address:   "12 Elm Street",
	})
	require.NoError(t, err)

	_, err = svc.AssignProvider(booking.ID, other.ID, admin.ID)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.AssignProvider(booking.ID, 9999, admin.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Nothing was appended by the failed attempts
	var count int64
	db.Model(&models.BookingStatusHistory{}).Where("booking_id = ?", booking.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAssignProviderRejectedOnTerminalBooking(t *testing.T) {
	db := setupTestDB(t)
	setupEmailTestConfig()
	svc := newTestBookingService(db)

	customer := seedUser(t, db, "Asha", "111", models.RoleCustomer)
	admin := seedUser(t, db, "Root", "222", models.RoleAdmin)
	provider := seedUser(t, db, "Mo", "333", models.RoleProvider)

	catalog := models.Service{Title: "Sink Repair", Price: 40}
	require.NoError(t, db.Create(&catalog).Error)

	booking, err := svc.CreateBooking(customer.ID, CreateBookingInput{
		ServiceID: catalog.ID,
		Date:      time.Now().Add(24 * time.Hour),
		Address:   "12 Elm Street",
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(booking.ID, &admin, UpdateStatusInput{
		Status: models.BookingStatusCancelled,
	})
	require.NoError(t, err)

	_, err = svc.AssignProvider(booking.ID, provider.ID, admin.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVersionGuardRejectsStaleWrites(t *testing.T) {
	db := setupTestDB(t)
	setupEmailTestConfig()
	svc := newTestBookingService(db)

	customer := seedUser(t, db, "Asha", "111", models.RoleCustomer)

	catalog := models.Service{Title: "Sink Repair", Price: 40}
	require.NoError(t, db.Create(&catalog).Error)

	booking, err := svc.CreateBooking(customer.ID, CreateBookingInput{
		ServiceID: catalog.ID,
		Date:      time.Now().Add(24 * time.Hour),
		Address:   "12 Elm Street",
	})
	require.NoError(t, err)

	// Two writers that both observed version 0: the first conditional
	// update wins, the second matches zero rows
	first := db.Model(&models.Booking{}).
		Where("id = ? AND version = ?", booking.ID, booking.Version).
		Updates(map[string]interface{}{"status": models.BookingStatusAssigned, "version": booking.Version + 1})
	require.NoError(t, first.Error)
	assert.Equal(t, int64(1), first.RowsAffected)

	second := db.Model(&models.Booking{}).
		Where("id = ? AND version = ?", booking.ID, booking.Version).
		Updates(map[string]interface{}{"status": models.BookingStatusCancelled, "version": booking.Version + 1})
	require.NoError(t, second.Error)
	assert.Equal(t, int64(0), second.RowsAffected)
}
