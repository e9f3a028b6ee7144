package profile

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"gatepass/auth"
	"gatepass/db"
	"gatepass/mq"
	"gatepass/structs"
	"gatepass/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// GET /api/users/profile
func GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}
	// The middleware already resolved and sanitized the record.
	utils.SendJSONResponse(w, http.StatusOK, user)
}

// PUT /api/users/profile
func EditProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}

	var body struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Location  string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	update := bson.M{}
	if name := strings.TrimSpace(body.FirstName); name != "" {
		update["first_name"] = name
	}
	if name := strings.TrimSpace(body.LastName); name != "" {
		update["last_name"] = name
	}
	if location := strings.TrimSpace(body.Location); location != "" {
		update["location"] = location
	}

	if len(update) == 0 {
		utils.SendJSONResponse(w, http.StatusOK, user)
		return
	}
	update["updated_at"] = time.Now()

	if _, err := db.UserCollection.UpdateOne(
		r.Context(),
		bson.M{"userid": user.UserID},
		bson.M{"$set": update},
	); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to update profile", err)
		return
	}

	m := mq.Index{EntityType: "user", EntityId: user.UserID, Action: "PUT"}
	go mq.Emit("profile-edited", m)

	respondWithUser(w, r, user.UserID)
}

func respondWithUser(w http.ResponseWriter, r *http.Request, userID string) {
	var user structs.User
	err := db.UserCollection.FindOne(r.Context(), bson.M{"userid": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.SendError(w, http.StatusNotFound, "User not found", nil)
			return
		}
		utils.SendError(w, http.StatusInternalServerError, "Server error", err)
		return
	}
	user.Sanitize()
	utils.SendJSONResponse(w, http.StatusOK, &user)
}

// PUT /api/users/password
//
// The current credential is re-verified against the stored hash before the
// new one is accepted.
func UpdatePassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}

	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.CurrentPassword == "" || len(body.NewPassword) < 6 {
		utils.SendError(w, http.StatusBadRequest, "New password must be at least 6 characters", nil)
		return
	}

	// The context copy has the hash stripped; fetch it for comparison.
	var stored structs.User
	if err := db.UserCollection.FindOne(r.Context(), bson.M{"userid": user.UserID}).Decode(&stored); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Server error", err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte(body.CurrentPassword)) != nil {
		utils.SendError(w, http.StatusBadRequest, "Current password is incorrect", nil)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}

	if _, err := db.UserCollection.UpdateOne(
		r.Context(),
		bson.M{"userid": user.UserID},
		bson.M{"$set": bson.M{"password": string(hashed), "updated_at": time.Now()}},
	); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to update password", err)
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

// GET /api/users/interests
func GetInterests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}
	interests := user.Interests
	if interests == nil {
		interests = map[string][]string{}
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]any{"interests": interests})
}

// POST /api/users/interests
func SetInterests(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}

	var body struct {
		Interests map[string][]string `json:"interests"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Interests must be an object mapping categories to arrays", err)
		return
	}
	if body.Interests == nil {
		utils.SendError(w, http.StatusBadRequest, "Interests must be an object mapping categories to arrays", nil)
		return
	}
	if msg := ValidateInterests(body.Interests); msg != "" {
		utils.SendError(w, http.StatusBadRequest, msg, nil)
		return
	}

	if _, err := db.UserCollection.UpdateOne(
		r.Context(),
		bson.M{"userid": user.UserID},
		bson.M{"$set": bson.M{"interests": body.Interests, "updated_at": time.Now()}},
	); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to save interests", err)
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]any{
		"message":   "Interests saved",
		"interests": body.Interests,
	})
}

// GET /api/users/locations
func GetLocations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}
	locations := user.Locations
	if locations == nil {
		locations = []string{}
	}
	utils.SendJSONResponse(w, http.StatusOK, map[string]any{"locations": locations})
}

// POST /api/users/locations
func SetLocations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, ok := auth.ContextUser(r.Context())
	if !ok {
		utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
		return
	}

	var body struct {
		Locations []string `json:"locations"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Locations must be an array", err)
		return
	}
	if body.Locations == nil {
		utils.SendError(w, http.StatusBadRequest, "Locations must be an array", nil)
		return
	}

	if _, err := db.UserCollection.UpdateOne(
		r.Context(),
		bson.M{"userid": user.UserID},
		bson.M{"$set": bson.M{"locations": body.Locations, "updated_at": time.Now()}},
	); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to save locations", err)
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "Locations saved"})
}
