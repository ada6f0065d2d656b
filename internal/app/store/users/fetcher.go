package userstore

import (
	"context"

	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.IdentityChecker. It re-reads the user on each
// request so disabled or deleted accounts lose access before their token expires.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a Fetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

// CheckIdentity returns the identity refreshed from the stored user, or false
// if the user is missing, disabled, or now holds a different role.
func (f *Fetcher) CheckIdentity(ctx context.Context, id identity.Identity) (identity.Identity, bool) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var row struct {
		FullName string `bson:"full_name"`
		Role     string `bson:"role"`
		Status   string `bson:"status"`
	}
	opts := options.FindOne().SetProjection(bson.M{"full_name": 1, "role": 1, "status": 1})
	if err := f.users.FindOne(ctx, bson.M{"_id": id.UserID}, opts).Decode(&row); err != nil {
		return identity.Identity{}, false
	}
	if row.Status != StatusActive {
		return identity.Identity{}, false
	}
	role, err := identity.ParseRole(row.Role)
	if err != nil || role != id.Role {
		return identity.Identity{}, false
	}
	id.Name = row.FullName
	return id, true
}
