package profile

// Admin user management; routes gated by middleware.RequireAdmin.

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"gatepass/db"
	"gatepass/structs"
	"gatepass/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GET /api/users  (admin)
func ListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	skip, limit, _ := utils.ParsePagination(r)

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(limit).
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.M{"password": 0})

	cursor, err := db.UserCollection.Find(r.Context(), bson.M{}, findOptions)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to fetch users", err)
		return
	}
	defer cursor.Close(r.Context())

	var users []structs.User
	if err := cursor.All(r.Context(), &users); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to decode users", err)
		return
	}
	if len(users) == 0 {
		users = []structs.User{}
	}

	utils.SendJSONResponse(w, http.StatusOK, users)
}

// GET /api/user/:id  (admin)
func GetUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var user structs.User
	err := db.UserCollection.FindOne(
		r.Context(),
		bson.M{"userid": ps.ByName("id")},
		options.FindOne().SetProjection(bson.M{"password": 0}),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.SendError(w, http.StatusNotFound, "User not found", nil)
			return
		}
		utils.SendError(w, http.StatusInternalServerError, "Server error", err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, &user)
}

// PATCH /api/user/:id/role  (admin)
func UpdateRole(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if body.Role != "user" && body.Role != "admin" {
		utils.SendError(w, http.StatusBadRequest, "Invalid role", nil)
		return
	}

	result, err := db.UserCollection.UpdateOne(
		r.Context(),
		bson.M{"userid": ps.ByName("id")},
		bson.M{"$set": bson.M{"role": body.Role, "updated_at": time.Now()}},
	)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to update role", err)
		return
	}
	if result.MatchedCount == 0 {
		utils.SendError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	respondWithUser(w, r, ps.ByName("id"))
}
