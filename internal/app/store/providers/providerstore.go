// internal/app/store/providers/providerstore.go
package providerstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/greenreach/internal/app/system/normalize"
	"github.com/dalemusser/greenreach/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound = errors.New("provider profile not found")
	// ErrDuplicateProfile is returned when the user already owns a provider profile.
	ErrDuplicateProfile = errors.New("a provider profile already exists for this user")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("providers")}
}

func (s *Store) Create(ctx context.Context, p models.Provider) (models.Provider, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.OrganizationName = normalize.Name(p.OrganizationName)
	p.NameCI = text.Fold(p.OrganizationName)
	p.TotalVolunteers = 0
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Provider{}, ErrDuplicateProfile
		}
		return models.Provider{}, err
	}
	return p, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Provider, error) {
	var p models.Provider
	err := s.c.FindOne(ctx, filter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Provider{}, ErrNotFound
	}
	if err != nil {
		return models.Provider{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Provider, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByUserID loads the profile owned by an authenticated provider user.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Provider, error) {
	return s.findOne(ctx, bson.M{"user_id": userID})
}

// GetByIDs loads multiple providers keyed by ID.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Provider, error) {
	out := make(map[primitive.ObjectID]models.Provider, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ps []models.Provider
	if err := cur.All(ctx, &ps); err != nil {
		return nil, err
	}
	for _, p := range ps {
		out[p.ID] = p
	}
	return out, nil
}

// ProfileUpdate holds the owner-editable fields.
type ProfileUpdate struct {
	OrganizationName string
	Description      string
	Website          string
	LogoURL          string
}

// UpdateProfile writes the editable fields of the profile owned by userID.
func (s *Store) UpdateProfile(ctx context.Context, userID primitive.ObjectID, upd ProfileUpdate) error {
	name := normalize.Name(upd.OrganizationName)
	res, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": bson.M{
		"organization_name": name,
		"name_ci":           text.Fold(name),
		"description":       upd.Description,
		"website":           upd.Website,
		"logo_url":          upd.LogoURL,
		"updated_at":        time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementTotalVolunteers adds n to the provider's accepted-volunteer counter.
func (s *Store) IncrementTotalVolunteers(ctx context.Context, id primitive.ObjectID, n int) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$inc": bson.M{"total_volunteers": n},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a provider by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
