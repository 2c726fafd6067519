package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership tiers carried in the session.
const (
	MembershipStandard = "standard"
	MembershipMember   = "member"
	MembershipVIP      = "vip"
)

// Address represents a postal address. Only Australian addresses are deliverable.
type Address struct {
	Line1    string `bson:"line1" json:"line1" validate:"required,max=120"`
	Line2    string `bson:"line2,omitempty" json:"line2,omitempty" validate:"max=120"`
	Suburb   string `bson:"suburb" json:"suburb" validate:"required,max=60"`
	State    string `bson:"state" json:"state" validate:"required,austate"`
	Postcode string `bson:"postcode" json:"postcode" validate:"required,len=4,numeric"`
	Country  string `bson:"country" json:"country" validate:"required"`
}

// User represents a user in the system
type User struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name              string             `bson:"name" json:"name"`
	Email             string             `bson:"email" json:"email"`
	Password          string             `bson:"password,omitempty" json:"-"`
	Phone             string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address           *Address           `bson:"address,omitempty" json:"address,omitempty"`
	IsAdmin           bool               `bson:"is_admin" json:"is_admin"`
	Membership        string             `bson:"membership" json:"membership"`
	IsVerified        bool               `bson:"is_verified" json:"is_verified"`
	VerificationToken string             `bson:"verification_token,omitempty" json:"-"`
	ResetToken        string             `bson:"reset_token,omitempty" json:"-"`
	ResetExpiresAt    *time.Time         `bson:"reset_expires_at,omitempty" json:"-"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
}
