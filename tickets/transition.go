package tickets

import "gatepass/structs"

// The ticket state machine. Every status change in the package, including
// the admin override, goes through this table so the event counter can
// never drift from the set of active tickets.
//
//	pending   -> confirmed, cancelled
//	confirmed -> used, cancelled
//	used      -> (terminal)
//	cancelled -> (terminal)
var transitions = map[string][]string{
	structs.TicketPending:   {structs.TicketConfirmed, structs.TicketCancelled},
	structs.TicketConfirmed: {structs.TicketUsed, structs.TicketCancelled},
	structs.TicketUsed:      {},
	structs.TicketCancelled: {},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PaymentStatusFor gives the payment status that accompanies a ticket
// status. Payment and ticket lifecycles move in lockstep.
func PaymentStatusFor(status string) string {
	switch status {
	case structs.TicketConfirmed, structs.TicketUsed:
		return structs.PaymentCompleted
	case structs.TicketCancelled:
		return structs.PaymentRefunded
	default:
		return structs.PaymentPending
	}
}

// ActiveStatuses are the states that hold inventory against an event.
func ActiveStatuses() []string {
	return []string{structs.TicketPending, structs.TicketConfirmed}
}
