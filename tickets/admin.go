package tickets

// Admin surfaces. Routes are gated by middleware.RequireAdmin; the status
// override here still runs through the workflow transitions so the event
// counter stays consistent.

import (
	"encoding/json"
	"net/http"

	"gatepass/db"
	"gatepass/mq"
	"gatepass/structs"
	"gatepass/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GET /api/tickets  (admin)
func GetAllTickets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	skip, limit, _ := utils.ParsePagination(r)

	filter := bson.M{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := db.TicketsCollection.Find(r.Context(), filter, findOptions)
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

// GET /api/ticket/:id  (admin)
func GetTicket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ticket, err := findTicket(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	if ticket == nil {
		utils.SendError(w, http.StatusNotFound, "Ticket not found", nil)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, ticket)
}

// GET /api/tickets/user/:userid  (admin)
func GetUserTickets(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := db.TicketsCollection.Find(r.Context(), bson.M{"userid": ps.ByName("userid")}, findOptions)
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

// PATCH /api/ticket/:id/status  (admin)
func UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ticketID := ps.ByName("id")

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	switch body.Status {
	case structs.TicketPending, structs.TicketConfirmed, structs.TicketCancelled:
	default:
		utils.SendError(w, http.StatusBadRequest, "Invalid status", nil)
		return
	}

	ticket, err := findTicket(r.Context(), ticketID)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Database error", err)
		return
	}
	if ticket == nil {
		utils.SendError(w, http.StatusNotFound, "Ticket not found", nil)
		return
	}

	if ticket.Status == body.Status {
		utils.SendJSONResponse(w, http.StatusOK, ticket)
		return
	}
	if !CanTransition(ticket.Status, body.Status) {
		utils.SendError(w, http.StatusBadRequest, "Invalid status transition", nil)
		return
	}

	var updated *structs.Ticket
	var msg string
	switch body.Status {
	case structs.TicketConfirmed:
		updated, msg, err = confirmTicket(r.Context(), ticketID)
	case structs.TicketCancelled:
		updated, msg, err = cancelTicket(r.Context(), ticket)
	}
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to update ticket status", err)
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

	m := mq.Index{EntityType: "ticket", EntityId: ticketID, Action: "PATCH", ItemType: "event", ItemId: updated.EventID}
	go mq.Emit("ticket-status-overridden", m)

	utils.SendJSONResponse(w, http.StatusOK, updated)
}
