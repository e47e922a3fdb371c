package models

import "time"

// Push platforms a user's device token belongs to.
const (
	PushPlatformFCM  = "fcm"
	PushPlatformExpo = "expo"
)

// DefaultUserName is given to profiles created on first read.
const DefaultUserName = "User"

// User is the profile and contact card of an identity issued by the external identity
// provider. ID is the token's sub claim.
type User struct {
	ID           string `bson:"id" json:"id"`
	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email" json:"email"`
	PushToken    string `bson:"pushToken,omitempty" json:"-"`
	PushPlatform string `bson:"pushPlatform,omitempty" json:"-"`

	SunSign       string    `bson:"sunSign,omitempty" json:"sunSign,omitempty"`
	MoonSign      string    `bson:"moonSign,omitempty" json:"moonSign,omitempty"`
	BirthDate     string    `bson:"birthDate,omitempty" json:"birthDate,omitempty"` // YYYY-MM-DD
	BirthTime     string    `bson:"birthTime,omitempty" json:"birthTime,omitempty"` // HH:MM
	BirthLocation string    `bson:"birthLocation,omitempty" json:"birthLocation,omitempty"`
	Traits        []string  `bson:"traits" json:"traits"`
	IsPremium     bool      `bson:"isPremium" json:"isPremium"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}
