package tickets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"gatepass/auth"
	"gatepass/db"
	"gatepass/events"
	"gatepass/mq"
	"gatepass/structs"
	"gatepass/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GET /api/tickets/my-tickets
func MyTickets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := db.TicketsCollection.Find(r.Context(), bson.M{"userid": user.UserID}, findOptions)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to fetch tickets", err)
		return
	}
	defer cursor.Close(r.Context())

	var ticketList []structs.Ticket
	if err := cursor.All(r.Context(), &ticketList); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to decode tickets", err)
		return
	}
	if len(ticketList) == 0 {
		ticketList = []structs.Ticket{}
	}

	utils.SendJSONResponse(w, http.StatusOK, ticketList)
}

type purchaseRequest struct {
	EventID       string `json:"eventId"`
	Quantity      int    `json:"quantity"`
	PaymentMethod string `json:"paymentMethod"`
}

// POST /api/tickets/purchase
//
// Inventory is claimed with a single conditional decrement: the filter
// requires available_tickets >= quantity, so two concurrent purchases for
// the last seats serialize on the event document and exactly one wins.
func Purchase(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.EventID == "" || req.Quantity < 1 || strings.TrimSpace(req.PaymentMethod) == "" {
		utils.SendError(w, http.StatusBadRequest, "eventId, quantity >= 1, and paymentMethod are required", nil)
		return
	}

	event, err := events.FindByID(r.Context(), req.EventID)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	if event == nil {
		utils.SendError(w, http.StatusNotFound, "Event not found", nil)
		return
	}

	now := time.Now()
	result, err := db.EventsCollection.UpdateOne(
		r.Context(),
		bson.M{"eventid": req.EventID, "available_tickets": bson.M{"$gte": req.Quantity}},
		bson.M{
			"$inc":      bson.M{"available_tickets": -req.Quantity},
			"$addToSet": bson.M{"attendees": user.UserID},
			"$set":      bson.M{"updated_at": now},
		},
	)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to reserve tickets", err)
		return
	}
	if result.MatchedCount == 0 {
		utils.SendError(w, http.StatusBadRequest, "Not enough tickets available", nil)
		return
	}

	ticket := structs.Ticket{
		TicketID:      utils.GenerateID(14),
		EventID:       req.EventID,
		UserID:        user.UserID,
		Quantity:      req.Quantity,
		TotalPrice:    event.Price * float64(req.Quantity),
		Status:        structs.TicketPending,
		PaymentStatus: structs.PaymentPending,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		TicketNumber:  utils.NewTicketNumber(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := db.TicketsCollection.InsertOne(r.Context(), ticket); err != nil {
		releaseInventory(r.Context(), req.EventID, user.UserID, req.Quantity)
		utils.SendError(w, http.StatusInternalServerError, "Failed to create ticket", err)
		return
	}

	if _, err := db.UserCollection.UpdateOne(
		r.Context(),
		bson.M{"userid": user.UserID},
		bson.M{"$push": bson.M{"tickets": ticket.TicketID}},
	); err != nil {
		// The back-reference is a denormalized index; the ticket document
		// itself is authoritative.
		log.Printf("Failed to record ticket %s on user %s: %v", ticket.TicketID, user.UserID, err)
	}

	m := mq.Index{EntityType: "ticket", EntityId: ticket.TicketID, Action: "POST", ItemType: "event", ItemId: req.EventID}
	go mq.Emit("ticket-purchased", m)

	utils.SendJSONResponse(w, http.StatusCreated, ticket)
}

// releaseInventory undoes a claimed reservation after a failed purchase.
func releaseInventory(ctx context.Context, eventID, userID string, quantity int) {
	if _, err := db.EventsCollection.UpdateOne(
		ctx,
		bson.M{"eventid": eventID},
		bson.M{
			"$inc":  bson.M{"available_tickets": quantity},
			"$pull": bson.M{"attendees": userID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	); err != nil {
		log.Printf("Failed to release %d tickets for event %s: %v", quantity, eventID, err)
	}
}

func findTicket(ctx context.Context, ticketID string) (*structs.Ticket, error) {
	var ticket structs.Ticket
	err := db.TicketsCollection.FindOne(ctx, bson.M{"ticketid": ticketID}).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &ticket, nil
}

// PUT /api/ticket/:id/confirm
func Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}
	ticketID := ps.ByName("id")

	ticket, err := findTicket(r.Context(), ticketID)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	if ticket == nil {
		utils.SendError(w, http.StatusNotFound, "Ticket not found", nil)
		return
	}
	if ticket.UserID != user.UserID {
		utils.SendError(w, http.StatusForbidden, "Not authorized", nil)
		return
	}

	updated, msg, err := confirmTicket(r.Context(), ticketID)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to confirm ticket", err)
		return
	}
	if msg != "" {
		utils.SendError(w, http.StatusBadRequest, msg, nil)
		return
	}
	if updated == nil {
		utils.SendError(w, http.StatusNotFound, "Ticket not found", nil)
		return
	}

	m := mq.Index{EntityType: "ticket", EntityId: ticketID, Action: "PUT", ItemType: "event", ItemId: updated.EventID}
	go mq.Emit("ticket-confirmed", m)

	utils.SendJSONResponse(w, http.StatusOK, updated)
}

// confirmTicket performs the guarded pending -> confirmed transition.
// Returns a user-facing message when the guard rejects.
func confirmTicket(ctx context.Context, ticketID string) (*structs.Ticket, string, error) {
	result, err := db.TicketsCollection.UpdateOne(
		ctx,
		bson.M{"ticketid": ticketID, "status": structs.TicketPending},
		bson.M{"$set": bson.M{
			"status":         structs.TicketConfirmed,
			"payment_status": PaymentStatusFor(structs.TicketConfirmed),
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return nil, "", err
	}
	if result.MatchedCount == 0 {
		return nil, "Ticket is not pending", nil
	}
	ticket, err := findTicket(ctx, ticketID)
	if err != nil || ticket == nil {
		return nil, "", err
	}
	return ticket, "", nil
}

// PUT /api/ticket/:id/cancel
func Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}
	ticketID := ps.ByName("id")

	ticket, err := findTicket(r.Context(), ticketID)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	if ticket == nil {
		utils.SendError(w, http.StatusNotFound, "Ticket not found", nil)
		return
	}
	if ticket.UserID != user.UserID {
		utils.SendError(w, http.StatusForbidden, "Not authorized", nil)
		return
	}

	updated, msg, err := cancelTicket(r.Context(), ticket)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to cancel ticket", err)
		return
	}
	if msg != "" {
		utils.SendError(w, http.StatusBadRequest, msg, nil)
		return
	}
	if updated == nil {
		utils.SendError(w, http.StatusNotFound, "Ticket not found", nil)
		return
	}

	m := mq.Index{EntityType: "ticket", EntityId: ticketID, Action: "PUT", ItemType: "event", ItemId: ticket.EventID}
	go mq.Emit("ticket-cancelled", m)

	utils.SendJSONResponse(w, http.StatusOK, updated)
}

// cancelTicket performs the guarded cancellation. The status flip is the
// idempotence gate: it matches only while the ticket is still active, so
// the inventory restore runs exactly once per ticket no matter how many
// cancel requests race.
func cancelTicket(ctx context.Context, ticket *structs.Ticket) (*structs.Ticket, string, error) {
	result, err := db.TicketsCollection.UpdateOne(
		ctx,
		bson.M{"ticketid": ticket.TicketID, "status": bson.M{"$in": ActiveStatuses()}},
		bson.M{"$set": bson.M{
			"status":         structs.TicketCancelled,
			"payment_status": PaymentStatusFor(structs.TicketCancelled),
			"updated_at":     time.Now(),
		}},
	)
	if err != nil {
		return nil, "", err
	}
	if result.MatchedCount == 0 {
		return nil, "Ticket is already cancelled or used", nil
	}

	// The flip already happened, so a failed restore is a real partial
	// failure the caller has to hear about, not a log line.
	if _, err := db.EventsCollection.UpdateOne(
		ctx,
		bson.M{"eventid": ticket.EventID},
		bson.M{
			"$inc":  bson.M{"available_tickets": ticket.Quantity},
			"$pull": bson.M{"attendees": ticket.UserID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	); err != nil {
		return nil, "", fmt.Errorf("restoring inventory for event %s after cancelling %s: %w", ticket.EventID, ticket.TicketID, err)
	}

	updated, err := findTicket(ctx, ticket.TicketID)
	if err != nil || updated == nil {
		return nil, "", err
	}
	return updated, "", nil
}

// PUT /api/ticket/:id/check-in  (admin)
//
// The conditional filter requires status confirmed and no recorded
// check-in, so a second scan can never overwrite the first timestamp.
func CheckIn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ticketID := ps.ByName("id")

	ticket, err := findTicket(r.Context(), ticketID)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	if ticket == nil {
		utils.SendError(w, http.StatusNotFound, "Ticket not found", nil)
		return
	}

	now := time.Now()
	result, err := db.TicketsCollection.UpdateOne(
		r.Context(),
		bson.M{
			"ticketid":      ticketID,
			"status":        structs.TicketConfirmed,
			"check_in_time": nil,
		},
		bson.M{"$set": bson.M{
			"status":        structs.TicketUsed,
			"check_in_time": now,
			"updated_at":    now,
		}},
	)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to check in ticket", err)
		return
	}
	if result.MatchedCount == 0 {
		if ticket.CheckInTime != nil {
			utils.SendError(w, http.StatusBadRequest, "Ticket already checked in", nil)
		} else {
			utils.SendError(w, http.StatusBadRequest, "Ticket is not confirmed", nil)
		}
		return
	}

	updated, err := findTicket(r.Context(), ticketID)
	if err != nil || updated == nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to fetch ticket", err)
		return
	}

	m := mq.Index{EntityType: "ticket", EntityId: ticketID, Action: "PUT", ItemType: "event", ItemId: updated.EventID}
	go mq.Emit("ticket-checked-in", m)

	utils.SendJSONResponse(w, http.StatusOK, updated)
}
