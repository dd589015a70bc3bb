package models

import (
	"time"

	"github.com/lib/pq"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAssigned   BookingStatus = "assigned"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// IsValid checks if the status is one of the known lifecycle states
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAssigned, BookingStatusInProgress,
		BookingStatusCompleted, BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed out of s
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle
// step: pending -> assigned -> in_progress -> completed, with cancellation
// reachable from any non-terminal state.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == BookingStatusCancelled {
		return true
	}
	switch s {
	case BookingStatusPending:
		return next == BookingStatusAssigned
	case BookingStatusAssigned:
		return next == BookingStatusInProgress
	case BookingStatusInProgress:
		return next == BookingStatusCompleted
	default:
		return false
	}
}

// WorkCompletion records how an assigned provider closed out a booking.
type WorkCompletion struct {
	Completed     bool           `json:"completed" gorm:"default:false"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	Notes         string         `json:"notes,omitempty" gorm:"size:1000"`
	Images        pq.StringArray `json:"images,omitempty" gorm:"type:text[]"`
	CompletedByID *uint          `json:"completed_by,omitempty"`
}

// Booking is a single customer request for a service, tracked through the
// status lifecycle. Version guards read-modify-write mutations: updates are
// conditional on the version observed at read time.
type Booking struct {
	ID                 uint          `json:"id" gorm:"primaryKey"`
	ServiceID          uint          `json:"service_id" gorm:"not null;index"`
	CustomerID         uint          `json:"customer_id" gorm:"not null;index"`
	AssignedProviderID *uint         `json:"assigned_provider_id" gorm:"index"`
	Date               time.Time     `json:"date" gorm:"not null"`
	Address            string        `json:"address" gorm:"size:500;not null"`
	Notes              string        `json:"notes,omitempty" gorm:"size:1000"`
	Quantity           int           `json:"quantity" gorm:"not null;default:1"`
	TotalAmount        float64       `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	Status             BookingStatus `json:"status" gorm:"type:varchar(20);default:'pending';check:status IN ('pending','assigned','in_progress','completed','cancelled')"`
	Version            int           `json:"-" gorm:"not null;default:0"`
	StartedAt          *time.Time    `json:"started_at,omitempty"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
	WorkCompleted      WorkCompletion `json:"work_completed" gorm:"embedded;embeddedPrefix:work_"`
	CreatedAt          time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time     `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Service          Service                `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
	Customer         User                   `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	AssignedProvider *User                  `json:"assigned_provider,omitempty" gorm:"foreignKey:AssignedProviderID"`
	StatusHistory    []BookingStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:BookingID"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// BookingStatusHistory is the append-only audit trail of status transitions.
// Rows are only ever inserted.
type BookingStatusHistory struct {
	ID          uint          `json:"-" gorm:"primaryKey"`
	BookingID   uint          `json:"-" gorm:"not null;index"`
	Status      BookingStatus `json:"status" gorm:"type:varchar(20);not null"`
	ChangedAt   time.Time     `json:"changed_at" gorm:"autoCreateTime"`
	ChangedByID uint          `json:"changed_by" gorm:"not null"`
	Notes       string        `json:"notes,omitempty" gorm:"size:1000"`
}

// TableName specifies the table name for the BookingStatusHistory model
func (BookingStatusHistory) TableName() string {
	return "booking_status_history"
}
