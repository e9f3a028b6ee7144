package middleware

import (
	"context"
	"errors"
	"strings"

	"net/http"

	"gatepass/auth"
	"gatepass/db"
	"gatepass/globals"
	"gatepass/rdx"
	"gatepass/structs"
	"gatepass/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Authenticate verifies the bearer token, rejects revoked tokens, resolves
// the subject to a user record with the credential stripped, and attaches it
// to the request context.
func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		header := r.Header.Get("Authorization")
		if header == "" {
			utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
			return
		}
		if len(header) < 8 || !strings.HasPrefix(header, "Bearer ") {
			utils.SendError(w, http.StatusUnauthorized, "Invalid token format", nil)
			return
		}

		claims, err := auth.ParseToken(header[7:])
		if err != nil {
			utils.SendError(w, http.StatusUnauthorized, "Token is not valid", err)
			return
		}

		revoked, err := rdx.IsTokenRevoked(r.Context(), claims.ID)
		if err != nil {
			utils.SendError(w, http.StatusInternalServerError, "Server error", err)
			return
		}
		if revoked {
			utils.SendError(w, http.StatusUnauthorized, "Token is not valid", nil)
			return
		}

		var user structs.User
		err = db.UserCollection.FindOne(r.Context(), bson.M{"userid": claims.UserID}).Decode(&user)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				utils.SendError(w, http.StatusUnauthorized, "Token is not valid", nil)
				return
			}
			utils.SendError(w, http.StatusInternalServerError, "Server error", err)
			return
		}
		user.Sanitize()

		ctx := context.WithValue(r.Context(), globals.UserKey, &user)
		next(w, r.WithContext(ctx), ps)
	}
}

// RequireAdmin composes after Authenticate and rejects non-admin callers.
func RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		user, ok := auth.ContextUser(r.Context())
		if !ok {
			utils.SendError(w, http.StatusUnauthorized, "No token, authorization denied", nil)
			return
		}
		if user.Role != "admin" {
			utils.SendError(w, http.StatusForbidden, "Admin access required", nil)
			return
		}
		next(w, r, ps)
	}
}
