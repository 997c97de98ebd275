package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoPoint is an optional last-known position, written by the location
// update endpoint and read by the nearby search.
type GeoPoint struct {
	Latitude  *float64 `json:"latitude" bson:"latitude"`
	Longitude *float64 `json:"longitude" bson:"longitude"`
}

// HasCoordinates reports whether both coordinates are present.
func (g *GeoPoint) HasCoordinates() bool {
	return g != nil && g.Latitude != nil && g.Longitude != nil
}

// User represents a user document in MongoDB
type User struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username      string             `json:"username" bson:"username"`
	Email         string             `json:"email" bson:"email"`
	PasswordHash  string             `json:"-" bson:"password_hash"`
	DisplayName   string             `json:"displayName" bson:"display_name"`
	PhotoURL      string             `json:"photoUrl" bson:"photo_url"`
	About         string             `json:"about" bson:"about"`
	Status        string             `json:"status" bson:"status"`
	IsOnline      bool               `json:"isOnline" bson:"is_online"`
	LastSeen      *time.Time         `json:"lastSeen" bson:"last_seen"`
	Contacts      []string           `json:"contacts" bson:"contacts"`
	ConnectionIDs []string           `json:"connectionIds" bson:"connection_ids"`
	PushTokens    []string           `json:"pushTokens" bson:"push_tokens"`
	BlockedUsers  []string           `json:"blockedUsers" bson:"blocked_users"`
	Location      *GeoPoint          `json:"location" bson:"location"`
	CreatedAt     time.Time          `json:"createdAt" bson:"created_at"`
}

// Profile is the denormalized user snapshot attached to messages and chat
// list items. It never carries credentials.
type Profile struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayName"`
	PhotoURL    string     `json:"photoUrl"`
	About       string     `json:"about"`
	Status      string     `json:"status"`
	IsOnline    bool       `json:"isOnline"`
	LastSeen    *time.Time `json:"lastSeen"`
	Location    *GeoPoint  `json:"location"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ProfileOf builds the snapshot for a resolved user.
func ProfileOf(u *User) Profile {
	return Profile{
		ID:          u.ID.Hex(),
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		About:       u.About,
		Status:      u.Status,
		IsOnline:    u.IsOnline,
		LastSeen:    u.LastSeen,
		Location:    u.Location,
		CreatedAt:   u.CreatedAt,
	}
}

// UnknownProfile is the uniform fallback used wherever a profile lookup can
// miss (deleted account, legacy data drift). Callers get a fully populated
// default-valued record instead of an error.
func UnknownProfile(userID string) Profile {
	return Profile{
		ID:          userID,
		DisplayName: "Unknown user",
	}
}
