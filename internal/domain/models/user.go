// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the credential record behind bearer-token issuance.
//
// NOTE:
//   - Profiles are not embedded on User. A volunteer or provider profile
//     references its owner through user_id.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`   // stored folded
	Role         string             `bson:"role" json:"role"`     // admin | provider | volunteer
	Status       string             `bson:"status" json:"status"` // active | disabled
	PasswordHash string             `bson:"password_hash" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
