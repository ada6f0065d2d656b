// internal/domain/models/provider.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Provider is an environmental organization that posts opportunities.
// Owned 1:1 by an authenticated provider identity.
type Provider struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"` // unique

	OrganizationName string `bson:"organization_name" json:"organization_name"`
	NameCI           string `bson:"name_ci" json:"-"`
	Description      string `bson:"description,omitempty" json:"description,omitempty"`
	Website          string `bson:"website,omitempty" json:"website,omitempty"`
	LogoURL          string `bson:"logo_url,omitempty" json:"logo_url,omitempty"`

	// TotalVolunteers counts accepted applications across all of the
	// provider's opportunities. Incremented best-effort on acceptance.
	TotalVolunteers int `bson:"total_volunteers" json:"total_volunteers"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
