package tickets

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatepass/db"
	"gatepass/globals"
	"gatepass/structs"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func bindCollections(mt *mtest.T) {
	db.TicketsCollection = mt.Coll
	db.EventsCollection = mt.Coll
	db.UserCollection = mt.Coll
}

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	user := &structs.User{UserID: userID, Username: "alice", Role: "user"}
	return req.WithContext(context.WithValue(req.Context(), globals.UserKey, user))
}

func eventDoc(eventID string, available int, price float64) bson.D {
	return bson.D{
		{Key: "eventid", Value: eventID},
		{Key: "title", Value: "Jazz Night"},
		{Key: "price", Value: price},
		{Key: "capacity", Value: 100},
		{Key: "available_tickets", Value: available},
	}
}

func ticketDoc(ticketID, userID, status string, quantity int, checkIn *time.Time) bson.D {
	doc := bson.D{
		{Key: "ticketid", Value: ticketID},
		{Key: "eventid", Value: "e1"},
		{Key: "userid", Value: userID},
		{Key: "quantity", Value: quantity},
		{Key: "status", Value: status},
	}
	if checkIn != nil {
		doc = append(doc, bson.E{Key: "check_in_time", Value: *checkIn})
	}
	return doc
}

func responseMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	msg, _ := body["message"].(string)
	return msg
}

func updateCount(n int) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: n},
		bson.E{Key: "nModified", Value: n},
	)
}

func TestPurchase(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates pending ticket and reserves inventory", func(mt *mtest.T) {
		bindCollections(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "gatepass.events", mtest.FirstBatch, eventDoc("e1", 10, 25)),
			updateCount(1),
			mtest.CreateSuccessResponse(),
			updateCount(1),
		)

		payload, _ := json.Marshal(map[string]any{"eventId": "e1", "quantity": 2, "paymentMethod": "card"})
		rec := httptest.NewRecorder()
		Purchase(rec, authedRequest(http.MethodPost, "/api/tickets/purchase", payload, "u1"), nil)

		require.Equal(mt, http.StatusCreated, rec.Code)
		var ticket structs.Ticket
		require.NoError(mt, json.NewDecoder(rec.Body).Decode(&ticket))
		assert.Equal(mt, structs.TicketPending, ticket.Status)
		assert.Equal(mt, structs.PaymentPending, ticket.PaymentStatus)
		assert.Equal(mt, 50.0, ticket.TotalPrice)
		assert.NotEmpty(mt, ticket.TicketNumber)

		// The reservation must record the buyer as a set member, so a
		// repeat buyer never appears twice in attendees and a later $pull
		// cannot strip them while another ticket is still active.
		_ = mt.GetStartedEvent() // the event lookup
		reserve := mt.GetStartedEvent()
		require.NotNil(mt, reserve)
		require.Equal(mt, "update", reserve.CommandName)
		updates, err := reserve.Command.Lookup("updates").Array().Values()
		require.NoError(mt, err)
		updateDoc := updates[0].Document().Lookup("u").Document()
		_, err = updateDoc.LookupErr("$addToSet")
		assert.NoError(mt, err)
		_, err = updateDoc.LookupErr("$push")
		assert.Error(mt, err)
	})

	mt.Run("rejects when inventory is short", func(mt *mtest.T) {
		bindCollections(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "gatepass.events", mtest.FirstBatch, eventDoc("e1", 1, 25)),
			updateCount(0),
		)

		payload, _ := json.Marshal(map[string]any{"eventId": "e1", "quantity": 2, "paymentMethod": "card"})
		rec := httptest.NewRecorder()
		Purchase(rec, authedRequest(http.MethodPost, "/api/tickets/purchase", payload, "u1"), nil)

		require.Equal(mt, http.StatusBadRequest, rec.Code)
		assert.Equal(mt, "Not enough tickets available", responseMessage(mt.T, rec))
	})
}

func TestConfirmRejectsNonPendingTicket(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("confirmed ticket cannot be confirmed again", func(mt *mtest.T) {
		bindCollections(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "gatepass.tickets", mtest.FirstBatch, ticketDoc("t1", "u1", structs.TicketConfirmed, 1, nil)),
			updateCount(0),
		)

		rec := httptest.NewRecorder()
		Confirm(rec, authedRequest(http.MethodPut, "/api/ticket/t1/confirm", nil, "u1"),
			httprouter.Params{{Key: "id", Value: "t1"}})

		require.Equal(mt, http.StatusBadRequest, rec.Code)
		assert.Equal(mt, "Ticket is not pending", responseMessage(mt.T, rec))
	})
}

func TestCancel(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("second cancel is rejected without a second restock", func(mt *mtest.T) {
		bindCollections(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "gatepass.tickets", mtest.FirstBatch, ticketDoc("t1", "u1", structs.TicketCancelled, 2, nil)),
			updateCount(0),
		)

		rec := httptest.NewRecorder()
		Cancel(rec, authedRequest(http.MethodPut, "/api/ticket/t1/cancel", nil, "u1"),
			httprouter.Params{{Key: "id", Value: "t1"}})

		require.Equal(mt, http.StatusBadRequest, rec.Code)
		assert.Equal(mt, "Ticket is already cancelled or used", responseMessage(mt.T, rec))

		// Only the lookup and the guarded status flip reached the store;
		// the inventory restore must not run.
		_ = mt.GetStartedEvent() // findTicket
		flip := mt.GetStartedEvent()
		require.NotNil(mt, flip)
		assert.Equal(mt, "update", flip.CommandName)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("rejects a caller who does not own the ticket", func(mt *mtest.T) {
		bindCollections(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "gatepass.tickets", mtest.FirstBatch, ticketDoc("t1", "u1", structs.TicketConfirmed, 2, nil)),
		)

		rec := httptest.NewRecorder()
		Cancel(rec, authedRequest(http.MethodPut, "/api/ticket/t1/cancel", nil, "someone-else"),
			httprouter.Params{{Key: "id", Value: "t1"}})

		require.Equal(mt, http.StatusForbidden, rec.Code)
	})

	mt.Run("reports a failed inventory restore", func(mt *mtest.T) {
		bindCollections(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "gatepass.tickets", mtest.FirstBatch, ticketDoc("t1", "u1", structs.TicketConfirmed, 2, nil)),
			updateCount(1),
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code:    11600,
				Message: "interrupted at shutdown",
				Name:    "InterruptedAtShutdown",
			}),
		)

		rec := httptest.NewRecorder()
		Cancel(rec, authedRequest(http.MethodPut, "/api/ticket/t1/cancel", nil, "u1"),
			httprouter.Params{{Key: "id", Value: "t1"}})

		require.Equal(mt, http.StatusInternalServerError, rec.Code)
		assert.Equal(mt, "Failed to cancel ticket", responseMessage(mt.T, rec))
	})
}

func TestCheckIn(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("rejects a second scan", func(mt *mtest.T) {
		bindCollections(mt)
		checkedIn := time.Now()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "gatepass.tickets", mtest.FirstBatch, ticketDoc("t1", "u1", structs.TicketUsed, 1, &checkedIn)),
			updateCount(0),
		)

		rec := httptest.NewRecorder()
		CheckIn(rec, authedRequest(http.MethodPut, "/api/ticket/t1/check-in", nil, "admin1"),
			httprouter.Params{{Key: "id", Value: "t1"}})

		require.Equal(mt, http.StatusBadRequest, rec.Code)
		assert.Equal(mt, "Ticket already checked in", responseMessage(mt.T, rec))
	})

	mt.Run("rejects an unconfirmed ticket", func(mt *mtest.T) {
		bindCollections(mt)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "gatepass.tickets", mtest.FirstBatch, ticketDoc("t1", "u1", structs.TicketPending, 1, nil)),
			updateCount(0),
		)

		rec := httptest.NewRecorder()
		CheckIn(rec, authedRequest(http.MethodPut, "/api/ticket/t1/check-in", nil, "admin1"),
			httprouter.Params{{Key: "id", Value: "t1"}})

		require.Equal(mt, http.StatusBadRequest, rec.Code)
		assert.Equal(mt, "Ticket is not confirmed", responseMessage(mt.T, rec))
	})
}
