package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"courtside/db"
	"courtside/globals"
	"courtside/middleware"
	"courtside/models"
	"courtside/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 72 * time.Hour

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user profile. Role defaults to Student; Coach and
// Manager are accepted so coaches can sign up from the app.
func Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	switch req.Role {
	case models.RoleStudent, models.RoleCoach, models.RoleManager:
	case "":
		req.Role = models.RoleStudent
	default:
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	count, err := db.UserCollection.CountDocuments(ctx, bson.M{"email": req.Email})
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	if count > 0 {
		http.Error(w, "email already registered", http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	user := models.User{
		UserID:       utils.GetUUID(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := db.UserCollection.InsertOne(ctx, user); err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	token, err := issueToken(user)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"token": token,
		"user":  user,
	})
}

// Login verifies credentials and issues a bearer token carrying the userId
// and role claims the rest of the API authorizes on.
func Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := db.UserCollection.FindOne(r.Context(), bson.M{"email": req.Email}).Decode(&user); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := issueToken(user)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"token": token,
		"user":  user,
	})
}

func issueToken(user models.User) (string, error) {
	claims := &middleware.Claims{
		Name:   user.DisplayName(),
		UserID: user.UserID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(globals.JwtSecret)
}
