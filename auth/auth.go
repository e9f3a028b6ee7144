package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"gatepass/db"
	"gatepass/globals"
	"gatepass/mq"
	"gatepass/rdx"
	"gatepass/structs"
	"gatepass/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

var jwtSecret []byte

// Init binds the signing secret. Must be called before any token is issued
// or verified.
func Init(secret string) {
	jwtSecret = []byte(secret)
}

// Claims carried by every issued token.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

const tokenLifetime = 24 * time.Hour

// NewToken issues a signed bearer token for the given user.
func NewToken(user *structs.User) (string, error) {
	claims := &Claims{
		UserID:   user.UserID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        utils.GenerateID(16),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

// ParseToken verifies signature and expiry and returns the claims.
func ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func validateRegistration(req registerRequest) string {
	if len(strings.TrimSpace(req.Username)) < 3 {
		return "Username must be at least 3 characters"
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return "A valid email is required"
	}
	if len(req.Password) < 6 {
		return "Password must be at least 6 characters"
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return "First and last name are required"
	}
	return ""
}

type authResponse struct {
	Token string        `json:"token"`
	User  *structs.User `json:"user"`
}

// POST /api/auth/register
func Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if msg := validateRegistration(req); msg != "" {
		utils.SendError(w, http.StatusBadRequest, msg, nil)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	count, err := db.UserCollection.CountDocuments(r.Context(), bson.M{
		"$or": []bson.M{{"email": email}, {"username": username}},
	})
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Server error", err)
		return
	}
	if count > 0 {
		utils.SendError(w, http.StatusBadRequest, "User already exists", nil)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Server error", err)
		return
	}

	now := time.Now()
	user := structs.User{
		UserID:    utils.GenerateID(12),
		Username:  username,
		Email:     email,
		Password:  string(hashed),
		Role:      "user",
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := db.UserCollection.InsertOne(r.Context(), user); err != nil {
		// The unique indexes close the race between the existence check
		// and the insert.
		if mongo.IsDuplicateKeyError(err) {
			utils.SendError(w, http.StatusBadRequest, "User already exists", nil)
			return
		}
		utils.SendError(w, http.StatusInternalServerError, "Server error", err)
		return
	}

	token, err := NewToken(&user)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Server error", err)
		return
	}

	m := mq.Index{EntityType: "user", EntityId: user.UserID, Action: "POST"}
	go mq.Emit("user-registered", m)

	user.Sanitize()
	utils.SendJSONResponse(w, http.StatusCreated, authResponse{Token: token, User: &user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func findByCredentials(ctx context.Context, req loginRequest) (*structs.User, bool) {
	var user structs.User
	err := db.UserCollection.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}).Decode(&user)
	if err != nil {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, false
	}
	return &user, true
}

// POST /api/auth/login
func Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, ok := findByCredentials(r.Context(), req)
	if !ok {
		// Missing account and wrong password are indistinguishable.
		utils.SendError(w, http.StatusBadRequest, "Invalid credentials", nil)
		return
	}

	token, err := NewToken(user)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Server error", err)
		return
	}

	user.Sanitize()
	utils.SendJSONResponse(w, http.StatusOK, authResponse{Token: token, User: user})
}

// POST /api/auth/admin/login
func AdminLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var user structs.User
	err := db.UserCollection.FindOne(r.Context(), bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}).Decode(&user)
	if err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid credentials", nil)
		return
	}
	if user.Role != "admin" {
		utils.SendError(w, http.StatusForbidden, "You are not authorized as admin", nil)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid credentials", nil)
		return
	}

	token, err := NewToken(&user)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Server error", err)
		return
	}

	log.Printf("Admin login for %s", user.Email)
	user.Sanitize()
	utils.SendJSONResponse(w, http.StatusOK, authResponse{Token: token, User: &user})
}

// POST /api/auth/logout
//
// The token is added to the revocation set for its remaining lifetime, so a
// stolen copy stops working immediately.
func Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	header := r.Header.Get("Authorization")
	if len(header) < 8 || !strings.HasPrefix(header, "Bearer ") {
		utils.SendError(w, http.StatusUnauthorized, "Missing token", nil)
		return
	}

	claims, err := ParseToken(header[7:])
	if err != nil {
		utils.SendError(w, http.StatusUnauthorized, "Invalid token", err)
		return
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := rdx.RevokeToken(r.Context(), claims.ID, ttl); err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to log out", err)
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// ContextUser pulls the authenticated user the middleware attached.
func ContextUser(ctx context.Context) (*structs.User, bool) {
	user, ok := ctx.Value(globals.UserKey).(*structs.User)
	return user, ok && user != nil
}
