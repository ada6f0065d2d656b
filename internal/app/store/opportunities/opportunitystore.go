// internal/app/store/opportunities/opportunitystore.go
package opportunitystore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/greenreach/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound = errors.New("opportunity not found")
	// ErrAlreadyApplied is returned when the opportunity already holds a
	// mirror entry for the volunteer.
	ErrAlreadyApplied = errors.New("volunteer already listed as applicant")
	// ErrApplicantNotFound is returned when no mirror entry exists for the volunteer.
	ErrApplicantNotFound = errors.New("applicant not found on opportunity")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("opportunities")}
}

// Create inserts a new opportunity. ID, timestamps, and the folded title are
// assigned here; Applicants always starts empty.
func (s *Store) Create(ctx context.Context, o models.Opportunity) (models.Opportunity, error) {
	now := time.Now().UTC()
	o.ID = primitive.NewObjectID()
	o.TitleCI = text.Fold(o.Title)
	o.Applicants = []models.Applicant{}
	if o.Categories == nil {
		o.Categories = []string{}
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, o); err != nil {
		return models.Opportunity{}, err
	}
	return o, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Opportunity, error) {
	var o models.Opportunity
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Opportunity{}, ErrNotFound
	}
	if err != nil {
		return models.Opportunity{}, err
	}
	return o, nil
}

// GetByIDs loads multiple opportunities keyed by ID. Missing IDs are absent from the map.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Opportunity, error) {
	out := make(map[primitive.ObjectID]models.Opportunity, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var opps []models.Opportunity
	if err := cur.All(ctx, &opps); err != nil {
		return nil, err
	}
	for _, o := range opps {
		out[o.ID] = o
	}
	return out, nil
}

// Update holds the provider-editable fields. ProviderID and Applicants are
// deliberately absent.
type Update struct {
	Title              string
	Description        string
	Type               string
	Categories         []string
	VolunteersRequired int
	IsPaid             bool
	Compensation       string
	Schedule           models.Schedule
}

// Update replaces an opportunity's editable fields and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, upd Update) error {
	set := bson.M{
		"title":               upd.Title,
		"title_ci":            text.Fold(upd.Title),
		"description":         upd.Description,
		"type":                upd.Type,
		"categories":          upd.Categories,
		"volunteers_required": upd.VolunteersRequired,
		"is_paid":             upd.IsPaid,
		"compensation":        upd.Compensation,
		"schedule":            upd.Schedule,
		"updated_at":          time.Now().UTC(),
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Filter narrows Find. Zero values mean "any".
type Filter struct {
	ProviderID *primitive.ObjectID
	Type       string
	Category   string
	IsPaid     *bool
	Title      string // prefix match on the folded title
	Limit      int64
}

func (f Filter) bson() bson.M {
	q := bson.M{}
	if f.ProviderID != nil {
		q["provider_id"] = *f.ProviderID
	}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Category != "" {
		q["categories"] = f.Category
	}
	if f.IsPaid != nil {
		q["is_paid"] = *f.IsPaid
	}
	if f.Title != "" {
		q["title_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(text.Fold(f.Title))}
	}
	return q
}

// Find returns opportunities matching f, newest first.
func (s *Store) Find(ctx context.Context, f Filter) ([]models.Opportunity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, f.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	opps := []models.Opportunity{}
	if err := cur.All(ctx, &opps); err != nil {
		return nil, err
	}
	return opps, nil
}

// FindPage returns opportunities matching f and the keyset window, using
// opts for sort and limit. A nil window starts from the first row.
func (s *Store) FindPage(ctx context.Context, f Filter, window bson.M, opts *options.FindOptions) ([]models.Opportunity, error) {
	q := f.bson()
	if window != nil {
		q = bson.M{"$and": []bson.M{q, window}}
	}
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	opps := []models.Opportunity{}
	if err := cur.All(ctx, &opps); err != nil {
		return nil, err
	}
	return opps, nil
}

// IDsByProvider returns the IDs of every opportunity owned by providerID.
func (s *Store) IDsByProvider(ctx context.Context, providerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"provider_id": providerID},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// Delete removes an opportunity by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteIfNoApplicants removes the opportunity only while its applicant list is empty.
// Returns false when the document exists but has applicants.
func (s *Store) DeleteIfNoApplicants(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"applicants": bson.M{"$size": 0}},
			bson.M{"applicants": bson.M{"$exists": false}},
		},
	})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

// DeleteByProvider removes every opportunity owned by providerID.
func (s *Store) DeleteByProvider(ctx context.Context, providerID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"provider_id": providerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Applicant mirror                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// PushApplicant appends a mirror entry unless one already exists for the
// volunteer. The $ne guard makes the check and the write a single operation.
func (s *Store) PushApplicant(ctx context.Context, opportunityID primitive.ObjectID, a models.Applicant) error {
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                     opportunityID,
			"applicants.volunteer_id": bson.M{"$ne": a.VolunteerID},
		},
		bson.M{
			"$push": bson.M{"applicants": a},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return s.missOrDup(ctx, opportunityID)
	}
	return nil
}

func (s *Store) missOrDup(ctx context.Context, id primitive.ObjectID) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrAlreadyApplied
}

// SetApplicantStatus mirrors a status onto the volunteer's applicant entry.
func (s *Store) SetApplicantStatus(ctx context.Context, opportunityID, volunteerID primitive.ObjectID, st models.ApplicationStatus) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": opportunityID, "applicants.volunteer_id": volunteerID},
		bson.M{"$set": bson.M{
			"applicants.$.status": st,
			"updated_at":          time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrApplicantNotFound
	}
	return nil
}

// PullApplicant removes the volunteer's mirror entry.
// Returns ErrApplicantNotFound when there was nothing to remove.
func (s *Store) PullApplicant(ctx context.Context, opportunityID, volunteerID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": opportunityID, "applicants.volunteer_id": volunteerID},
		bson.M{
			"$pull": bson.M{"applicants": bson.M{"volunteer_id": volunteerID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrApplicantNotFound
	}
	return nil
}

// PullVolunteerEverywhere removes a volunteer's mirror entries from every opportunity.
func (s *Store) PullVolunteerEverywhere(ctx context.Context, volunteerID primitive.ObjectID) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"applicants.volunteer_id": volunteerID},
		bson.M{"$pull": bson.M{"applicants": bson.M{"volunteer_id": volunteerID}}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// ForEach streams every opportunity to fn in _id order. Iteration stops at
// the first error returned by fn.
func (s *Store) ForEach(ctx context.Context, fn func(models.Opportunity) error) error {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var o models.Opportunity
		if err := cur.Decode(&o); err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
	}
	return cur.Err()
}
