package events

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gatepass/auth"
	"gatepass/autocom"
	"gatepass/db"
	"gatepass/media"
	"gatepass/mq"
	"gatepass/structs"
	"gatepass/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Handler carries the injected media service and Redis connection. Store
// access goes through the shared collections in db.
type Handler struct {
	Media *media.Service
	Rdx   *redis.Client
}

func NewHandler(mediaSvc *media.Service, rdx *redis.Client) *Handler {
	return &Handler{Media: mediaSvc, Rdx: rdx}
}

type listResponse struct {
	Events      []structs.Event `json:"events"`
	TotalPages  int64           `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
}

// GET /api/events
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	skip, limit, page := utils.ParsePagination(r)

	filter := bson.M{}
	query := r.URL.Query()
	if category := query.Get("category"); category != "" {
		filter["category"] = category
	}
	if location := query.Get("location"); location != "" {
		filter["location"] = location
	}
	if organizer := query.Get("organizer"); organizer != "" {
		filter["organizer"] = organizer
	}

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := db.EventsCollection.Find(r.Context(), filter, findOptions)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to retrieve events", err)
		return
	}
	defer cursor.Close(r.Context())

	var events []structs.Event
	if err := cursor.All(r.Context(), &events); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to retrieve events", err)
		return
	}
	if len(events) == 0 {
		events = []structs.Event{}
	}

	total, err := db.EventsCollection.CountDocuments(r.Context(), filter)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to count events", err)
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, listResponse{
		Events:      events,
		TotalPages:  int64(math.Ceil(float64(total) / float64(limit))),
		CurrentPage: page,
	})
}

// GET /api/events/suggestions
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		utils.SendJSONResponse(w, http.StatusOK, map[string]any{"suggestions": []string{}})
		return
	}

	titles, err := autocom.SuggestEventTitles(r.Context(), h.Rdx, q, 10)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to fetch suggestions", err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]any{"suggestions": titles})
}

// GET /api/event/:eventid
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	eventID := ps.ByName("eventid")

	var event structs.Event
	err := db.EventsCollection.FindOne(r.Context(), bson.M{"eventid": eventID}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.SendError(w, http.StatusNotFound, "Event not found", nil)
			return
		}
		utils.SendError(w, http.StatusInternalServerError, "Database error", err)
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, event)
}

type eventForm struct {
	title       string
	description string
	category    string
	location    string
	date        time.Time
	timeOfDay   string
	price       float64
	capacity    int
}

func parseEventForm(r *http.Request) (*eventForm, string) {
	form := &eventForm{
		title:       strings.TrimSpace(r.FormValue("title")),
		description: strings.TrimSpace(r.FormValue("description")),
		category:    strings.TrimSpace(r.FormValue("category")),
		location:    strings.TrimSpace(r.FormValue("location")),
		timeOfDay:   strings.TrimSpace(r.FormValue("time")),
	}

	if form.title == "" || form.description == "" || form.location == "" || form.category == "" {
		return nil, "Title, description, category, and location are required"
	}

	date, err := time.Parse(time.RFC3339, r.FormValue("date"))
	if err != nil {
		return nil, "Invalid date format, expected RFC3339 (YYYY-MM-DDTHH:MM:SSZ)"
	}
	form.date = date.UTC()

	form.price, err = strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || form.price < 0 {
		return nil, "Invalid price value"
	}

	form.capacity, err = strconv.Atoi(r.FormValue("capacity"))
	if err != nil || form.capacity < 1 {
		return nil, "Invalid capacity value"
	}

	return form, ""
}

// POST /api/events
//
// Images travel inline in the multipart body; the batch goes to the image
// host before the document is written, so a stored event never references
// URLs that do not exist.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Unable to parse form", err)
		return
	}

	form, msg := parseEventForm(r)
	if msg != "" {
		utils.SendError(w, http.StatusBadRequest, msg, nil)
		return
	}

	images := []string{}
	if files := r.MultipartForm.File["images"]; len(files) > 0 {
		if err := media.ValidateBatch(files); err != nil {
			utils.SendError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		uploaded, err := h.Media.UploadBatch(r.Context(), files)
		if err != nil {
			utils.SendError(w, http.StatusInternalServerError, "Error uploading images", err)
			return
		}
		images = uploaded
	}

	now := time.Now()
	event := structs.Event{
		EventID:          utils.GenerateID(14),
		Title:            form.title,
		Description:      form.description,
		Category:         form.category,
		Location:         form.location,
		Date:             form.date,
		Time:             form.timeOfDay,
		Price:            form.price,
		Capacity:         form.capacity,
		AvailableTickets: form.capacity,
		Images:           images,
		OrganizerID:      user.UserID,
		Attendees:        []string{},
		Reviews:          []structs.Review{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if _, err := db.EventsCollection.InsertOne(r.Context(), event); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Error creating event", err)
		return
	}

	if err := autocom.AddEventTitle(r.Context(), h.Rdx, event.Title); err != nil {
		log.Printf("autocomplete add failed for event %s: %v", event.EventID, err)
	}

	m := mq.Index{EntityType: "event", EntityId: event.EventID, Action: "POST"}
	go mq.Emit("event-created", m)

	utils.SendJSONResponse(w, http.StatusCreated, event)
}

// PUT /api/event/:eventid
func (h *Handler) EditEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}
	eventID := ps.ByName("eventid")

	var event structs.Event
	if err := db.EventsCollection.FindOne(r.Context(), bson.M{"eventid": eventID}).Decode(&event); err != nil {
		utils.SendError(w, http.StatusNotFound, "Event not found", nil)
		return
	}
	if event.OrganizerID != user.UserID {
		log.Printf("User %s attempted to edit event %s they did not create", user.UserID, eventID)
		utils.SendError(w, http.StatusForbidden, "Not authorized", nil)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Unable to parse form", err)
		return
	}

	updateFields := bson.M{}
	if title := strings.TrimSpace(r.FormValue("title")); title != "" {
		updateFields["title"] = title
	}
	if description := strings.TrimSpace(r.FormValue("description")); description != "" {
		updateFields["description"] = description
	}
	if category := strings.TrimSpace(r.FormValue("category")); category != "" {
		updateFields["category"] = category
	}
	if location := strings.TrimSpace(r.FormValue("location")); location != "" {
		updateFields["location"] = location
	}
	if timeOfDay := strings.TrimSpace(r.FormValue("time")); timeOfDay != "" {
		updateFields["time"] = timeOfDay
	}
	if dateStr := r.FormValue("date"); dateStr != "" {
		date, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			utils.SendError(w, http.StatusBadRequest, "Invalid date format, expected RFC3339 (YYYY-MM-DDTHH:MM:SSZ)", nil)
			return
		}
		updateFields["date"] = date.UTC()
	}
	if priceStr := r.FormValue("price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			utils.SendError(w, http.StatusBadRequest, "Invalid price value", nil)
			return
		}
		updateFields["price"] = price
	}

	if files := r.MultipartForm.File["images"]; len(files) > 0 {
		if err := media.ValidateBatch(files); err != nil {
			utils.SendError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		uploaded, err := h.Media.UploadBatch(r.Context(), files)
		if err != nil {
			utils.SendError(w, http.StatusInternalServerError, "Error uploading images", err)
			return
		}
		updateFields["images"] = uploaded
	}

	if len(updateFields) == 0 {
		utils.SendJSONResponse(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "No changes detected for event",
		})
		return
	}
	updateFields["updated_at"] = time.Now()

	if _, err := db.EventsCollection.UpdateOne(
		r.Context(),
		bson.M{"eventid": eventID},
		bson.M{"$set": updateFields},
	); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Error updating event", err)
		return
	}

	if newTitle, ok := updateFields["title"].(string); ok && newTitle != event.Title {
		_ = autocom.RemoveEventTitle(r.Context(), h.Rdx, event.Title)
		_ = autocom.AddEventTitle(r.Context(), h.Rdx, newTitle)
	}

	var updated structs.Event
	if err := db.EventsCollection.FindOne(r.Context(), bson.M{"eventid": eventID}).Decode(&updated); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Error retrieving updated event", err)
		return
	}

	m := mq.Index{EntityType: "event", EntityId: eventID, Action: "PUT"}
	go mq.Emit("event-updated", m)

	utils.SendJSONResponse(w, http.StatusOK, updated)
}

// DELETE /api/event/:eventid
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}
	eventID := ps.ByName("eventid")

	var event structs.Event
	if err := db.EventsCollection.FindOne(r.Context(), bson.M{"eventid": eventID}).Decode(&event); err != nil {
		utils.SendError(w, http.StatusNotFound, "Event not found", nil)
		return
	}
	if event.OrganizerID != user.UserID {
		log.Printf("User %s attempted to delete event %s they did not create", user.UserID, eventID)
		utils.SendError(w, http.StatusForbidden, "Not authorized", nil)
		return
	}

	if _, err := db.EventsCollection.DeleteOne(r.Context(), bson.M{"eventid": eventID}); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Error deleting event", err)
		return
	}

	if len(event.Images) > 0 {
		if err := h.Media.DeleteImages(r.Context(), event.Images); err != nil {
			log.Printf("Image cleanup incomplete for event %s: %v", eventID, err)
		}
	}
	if err := autocom.RemoveEventTitle(r.Context(), h.Rdx, event.Title); err != nil {
		log.Printf("autocomplete remove failed for event %s: %v", eventID, err)
	}

	m := mq.Index{EntityType: "event", EntityId: eventID, Action: "DELETE"}
	go mq.Emit("event-deleted", m)

	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}

// POST /api/event/:eventid/reviews
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}
	eventID := ps.ByName("eventid")

	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.Rating < 1 || body.Rating > 5 || strings.TrimSpace(body.Comment) == "" {
		utils.SendError(w, http.StatusBadRequest, "Rating must be 1-5 and comment must not be empty", nil)
		return
	}

	review := structs.Review{
		ReviewID: utils.GenerateID(16),
		UserID:   user.UserID,
		Rating:   body.Rating,
		Comment:  strings.TrimSpace(body.Comment),
		Date:     time.Now(),
	}

	// Newest review first, mirroring the public listing order.
	result, err := db.EventsCollection.UpdateOne(
		r.Context(),
		bson.M{"eventid": eventID},
		bson.M{"$push": bson.M{"reviews": bson.M{
			"$each":     []structs.Review{review},
			"$position": 0,
		}}},
	)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to add review", err)
		return
	}
	if result.MatchedCount == 0 {
		utils.SendError(w, http.StatusNotFound, "Event not found", nil)
		return
	}

	var updated structs.Event
	if err := db.EventsCollection.FindOne(r.Context(), bson.M{"eventid": eventID}).Decode(&updated); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to retrieve reviews", err)
		return
	}

	m := mq.Index{EntityType: "review", EntityId: review.ReviewID, Action: "POST", ItemType: "event", ItemId: eventID}
	go mq.Emit("review-added", m)

	utils.SendJSONResponse(w, http.StatusOK, updated.Reviews)
}

// FindByID is shared with the ticketing workflow.
func FindByID(ctx context.Context, eventID string) (*structs.Event, error) {
	var event structs.Event
	err := db.EventsCollection.FindOne(ctx, bson.M{"eventid": eventID}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}
