package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusIsValid(t *testing.T) {
	valid := []BookingStatus{
		BookingStatusPending,
		BookingStatusAssigned,
		BookingStatusInProgress,
		BookingStatusCompleted,
		BookingStatusCancelled,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}

	assert.False(t, BookingStatus("").IsValid())
	assert.False(t, BookingStatus("done").IsValid())
	assert.False(t, BookingStatus("PENDING").IsValid())
}

func TestBookingStatusIsTerminal(t *testing.T) {
	assert.True(t, BookingStatusCompleted.IsTerminal())
	assert.True(t, BookingStatusCancelled.IsTerminal())

	assert.False(t, BookingStatusPending.IsTerminal())
	assert.False(t, BookingStatusAssigned.IsTerminal())
	assert.False(t, BookingStatusInProgress.IsTerminal())
}

func TestBookingStatusTransitions(t *testing.T) {
	all := []BookingStatus{
		BookingStatusPending,
		BookingStatusAssigned,
		BookingStatusInProgress,
		BookingStatusCompleted,
		BookingStatusCancelled,
	}

	allowed := map[BookingStatus][]BookingStatus{
		BookingStatusPending:    {BookingStatusAssigned, BookingStatusCancelled},
		BookingStatusAssigned:   {BookingStatusInProgress, BookingStatusCancelled},
		BookingStatusInProgress: {BookingStatusCompleted, BookingStatusCancelled},
		BookingStatusCompleted:  {},
		BookingStatusCancelled:  {},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			got := from.CanTransitionTo(to)
			assert.Equal(t, want, got, "transition %s -> %s", from, to)
		}
	}
}

func TestTerminalStatesRejectCancellation(t *testing.T) {
	// Cancelling an already terminal booking is not a legal transition
	assert.False(t, BookingStatusCompleted.CanTransitionTo(BookingStatusCancelled))
	assert.False(t, BookingStatusCancelled.CanTransitionTo(BookingStatusCancelled))
}
