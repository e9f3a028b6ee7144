package tickets

import (
	"testing"

	"gatepass/structs"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"pending to confirmed", structs.TicketPending, structs.TicketConfirmed, true},
		{"pending to cancelled", structs.TicketPending, structs.TicketCancelled, true},
		{"confirmed to used", structs.TicketConfirmed, structs.TicketUsed, true},
		{"confirmed to cancelled", structs.TicketConfirmed, structs.TicketCancelled, true},
		{"pending to used skips confirmation", structs.TicketPending, structs.TicketUsed, false},
		{"used is terminal", structs.TicketUsed, structs.TicketCancelled, false},
		{"cancelled is terminal", structs.TicketCancelled, structs.TicketConfirmed, false},
		{"no resurrection to pending", structs.TicketCancelled, structs.TicketPending, false},
		{"confirmed cannot revert", structs.TicketConfirmed, structs.TicketPending, false},
		{"unknown status", "bogus", structs.TicketConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestPaymentStatusFor(t *testing.T) {
	assert.Equal(t, structs.PaymentPending, PaymentStatusFor(structs.TicketPending))
	assert.Equal(t, structs.PaymentCompleted, PaymentStatusFor(structs.TicketConfirmed))
	assert.Equal(t, structs.PaymentCompleted, PaymentStatusFor(structs.TicketUsed))
	assert.Equal(t, structs.PaymentRefunded, PaymentStatusFor(structs.TicketCancelled))
}

func TestActiveStatusesHoldInventory(t *testing.T) {
	active := ActiveStatuses()
	assert.ElementsMatch(t, []string{structs.TicketPending, structs.TicketConfirmed}, active)

	// Terminal states must never count against an event's availability.
	assert.NotContains(t, active, structs.TicketUsed)
	assert.NotContains(t, active, structs.TicketCancelled)
}
