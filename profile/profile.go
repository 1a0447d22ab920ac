package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"courtside/db"
	"courtside/models"
	"courtside/rdx"
	"courtside/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const nameCacheTTL = 2 * time.Hour

// Directory looks up display names and roles from the users collection.
// It implements ledger.ProfileDirectory. Display names are cached in Redis
// since slot creation hits them on every class a coach sets up.
type Directory struct {
	users *mongo.Collection
	log   *zap.Logger
}

func NewDirectory(log *zap.Logger) *Directory {
	return &Directory{users: db.UserCollection, log: log}
}

func (d *Directory) DisplayName(ctx context.Context, userID string) (string, error) {
	cacheKey := "uname:" + userID
	if name, err := rdx.RdxGet(cacheKey); err == nil && name != "" {
		return name, nil
	}

	var user models.User
	if err := d.users.FindOne(ctx, bson.M{"userId": userID}).Decode(&user); err != nil {
		return "", err
	}

	name := user.DisplayName()
	if name != "" {
		if err := rdx.RdxSet(cacheKey, name, nameCacheTTL); err != nil {
			d.log.Debug("name cache write failed", zap.String("userId", userID), zap.Error(err))
		}
	}
	return name, nil
}

func (d *Directory) Role(ctx context.Context, userID string) (string, error) {
	var doc struct {
		Role string `bson:"role"`
	}
	if err := d.users.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc); err != nil {
		return models.RoleUnknown, err
	}
	if doc.Role == "" {
		return models.RoleUnknown, nil
	}
	return doc.Role, nil
}

// ---------- Handlers ----------

// GetProfile returns the public profile for a user id.
func GetProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := ps.ByName("userid")
	if userID == "" {
		http.Error(w, "missing userid", http.StatusBadRequest)
		return
	}

	var user models.User
	if err := db.UserCollection.FindOne(r.Context(), bson.M{"userId": userID}).Decode(&user); err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"user": user})
}

type updateProfileRequest struct {
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	PhoneNumber     *string `json:"phoneNumber"`
	ProfileImageURL *string `json:"profileImageURL"`
}

// UpdateProfile edits the acting user's own profile. Role changes go
// through the Manager-only UpdateRole endpoint.
func UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if req.FirstName != nil {
		update["firstName"] = *req.FirstName
	}
	if req.LastName != nil {
		update["lastName"] = *req.LastName
	}
	if req.PhoneNumber != nil {
		update["phoneNumber"] = *req.PhoneNumber
	}
	if req.ProfileImageURL != nil {
		update["profileImageURL"] = *req.ProfileImageURL
	}

	res := db.UserCollection.FindOneAndUpdate(r.Context(),
		bson.M{"userId": userID},
		bson.M{"$set": update},
	)
	if res.Err() != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	// drop the stale cached name
	_ = rdx.RdxDel("uname:" + userID)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateRole assigns a role to the target user. Routed behind
// RequireRoles(Manager); the body is validated before any lookup.
func UpdateRole(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	targetID := ps.ByName("userid")
	if targetID == "" {
		http.Error(w, "missing userid", http.StatusBadRequest)
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	switch req.Role {
	case models.RoleStudent, models.RoleCoach, models.RoleManager:
	default:
		http.Error(w, "invalid role", http.StatusBadRequest)
		return
	}

	res := db.UserCollection.FindOneAndUpdate(r.Context(),
		bson.M{"userId": targetID},
		bson.M{"$set": bson.M{"role": req.Role, "updatedAt": time.Now()}},
	)
	if res.Err() != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	_ = rdx.RdxDel("uname:" + targetID)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"ok": true})
}
