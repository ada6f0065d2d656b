// internal/app/store/volunteers/volunteerstore.go
package volunteerstore

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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound = errors.New("volunteer profile not found")
	// ErrDuplicateProfile is returned when the user already owns a volunteer profile.
	ErrDuplicateProfile = errors.New("a volunteer profile already exists for this user")
	// ErrAlreadyApplied is returned when the volunteer already holds an entry
	// for the opportunity.
	ErrAlreadyApplied = errors.New("already applied")
	// ErrApplicationNotFound is returned when no entry with the given id exists.
	ErrApplicationNotFound = errors.New("application not found")
	// ErrStatusChanged is returned by guarded writes whose expected status no
	// longer matches the stored entry.
	ErrStatusChanged = errors.New("application status changed concurrently")
	ErrBadStep       = errors.New("profile step must be 1, 2, or 3")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("volunteers")}
}

// Create inserts a volunteer profile. user_id is unique; a second profile for
// the same user returns ErrDuplicateProfile.
func (s *Store) Create(ctx context.Context, v models.Volunteer) (models.Volunteer, error) {
	now := time.Now().UTC()
	v.ID = primitive.NewObjectID()
	v.FullName = normalize.Name(v.FullName)
	v.FullNameCI = text.Fold(v.FullName)
	v.AppliedOpportunities = []models.AppliedOpportunity{}
	v.CreatedAt = now
	v.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Volunteer{}, ErrDuplicateProfile
		}
		return models.Volunteer{}, err
	}
	return v, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Volunteer, error) {
	var v models.Volunteer
	err := s.c.FindOne(ctx, filter).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Volunteer{}, ErrNotFound
	}
	if err != nil {
		return models.Volunteer{}, err
	}
	return v, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Volunteer, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// Exists reports whether a volunteer profile with the given id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByUserID loads the profile owned by an authenticated user.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Volunteer, error) {
	return s.findOne(ctx, bson.M{"user_id": userID})
}

// GetByApplicationID loads the volunteer owning the application entry with the given id.
// Returns ErrApplicationNotFound when no volunteer holds it.
func (s *Store) GetByApplicationID(ctx context.Context, applicationID primitive.ObjectID) (models.Volunteer, error) {
	v, err := s.findOne(ctx, bson.M{"applied_opportunities._id": applicationID})
	if errors.Is(err, ErrNotFound) {
		return models.Volunteer{}, ErrApplicationNotFound
	}
	return v, err
}

// FindByOpportunity returns every volunteer holding an entry for the opportunity.
func (s *Store) FindByOpportunity(ctx context.Context, opportunityID primitive.ObjectID) ([]models.Volunteer, error) {
	return s.find(ctx, bson.M{"applied_opportunities.opportunity_id": opportunityID})
}

// FindWithApplications returns every volunteer that has at least one entry, ordered by name.
func (s *Store) FindWithApplications(ctx context.Context) ([]models.Volunteer, error) {
	return s.find(ctx, bson.M{"applied_opportunities.0": bson.M{"$exists": true}},
		options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Volunteer, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	vols := []models.Volunteer{}
	if err := cur.All(ctx, &vols); err != nil {
		return nil, err
	}
	return vols, nil
}

// ForEach streams every volunteer to fn in _id order.
func (s *Store) ForEach(ctx context.Context, fn func(models.Volunteer) error) error {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var v models.Volunteer
		if err := cur.Decode(&v); err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
	}
	return cur.Err()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Profile steps                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// StepFields carries the profile fields for every step. SetStep writes only
// the fields belonging to the chosen step.
type StepFields struct {
	FullName     string
	PhotoURL     string
	Phone        string
	Location     string
	Interests    []string
	Skills       []string
	Availability string
	Bio          string
}

// SetStep writes one onboarding step and marks it complete.
func (s *Store) SetStep(ctx context.Context, userID primitive.ObjectID, step int, f StepFields) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	switch step {
	case 1:
		name := normalize.Name(f.FullName)
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
		set["photo_url"] = f.PhotoURL
		set["phone"] = f.Phone
		set["location"] = f.Location
		set["steps.step1"] = true
	case 2:
		set["interests"] = normalize.Tags(f.Interests)
		set["skills"] = normalize.Tags(f.Skills)
		set["steps.step2"] = true
	case 3:
		set["availability"] = f.Availability
		set["bio"] = f.Bio
		set["steps.step3"] = true
	default:
		return ErrBadStep
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Canonical application entries                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// PushApplication appends a canonical entry unless the volunteer already holds
// one for the same opportunity.
func (s *Store) PushApplication(ctx context.Context, volunteerID primitive.ObjectID, a models.AppliedOpportunity) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id": volunteerID,
			"applied_opportunities.opportunity_id": bson.M{"$ne": a.OpportunityID},
		},
		bson.M{
			"$push": bson.M{"applied_opportunities": a},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": volunteerID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrAlreadyApplied
	}
	return nil
}

// guardEntry matches the volunteer document only while the entry is in status from.
func guardEntry(volunteerID, applicationID primitive.ObjectID, from models.ApplicationStatus) bson.M {
	return bson.M{
		"_id": volunteerID,
		"applied_opportunities": bson.M{"$elemMatch": bson.M{
			"_id":    applicationID,
			"status": from,
		}},
	}
}

// SetStatus moves an entry from one status to another. The write only applies
// while the entry still holds from; otherwise ErrStatusChanged is returned.
// Any status other than Accepted clears completion. A nil note leaves feedback untouched.
func (s *Store) SetStatus(ctx context.Context, volunteerID, applicationID primitive.ObjectID,
	from, to models.ApplicationStatus, note *string, now time.Time) error {

	set := bson.M{
		"applied_opportunities.$.status":     to,
		"applied_opportunities.$.updated_at": now,
		"updated_at":                         now,
	}
	if note != nil {
		set["applied_opportunities.$.feedback_note"] = *note
	}
	if to != models.StatusAccepted {
		set["applied_opportunities.$.is_completed"] = false
		set["applied_opportunities.$.completion_date"] = nil
	}

	res, err := s.c.UpdateOne(ctx, guardEntry(volunteerID, applicationID, from), bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}

// SetCompletion sets or clears completion on an Accepted entry. The completion
// date is stamped with now when completed is true and cleared otherwise.
func (s *Store) SetCompletion(ctx context.Context, volunteerID, applicationID primitive.ObjectID,
	completed bool, now time.Time) error {

	var date any
	if completed {
		date = now
	}
	res, err := s.c.UpdateOne(ctx,
		guardEntry(volunteerID, applicationID, models.StatusAccepted),
		bson.M{"$set": bson.M{
			"applied_opportunities.$.is_completed":    completed,
			"applied_opportunities.$.completion_date": date,
			"applied_opportunities.$.updated_at":      now,
			"updated_at":                              now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}

// PullPendingApplication removes an entry while it is still Pending.
func (s *Store) PullPendingApplication(ctx context.Context, volunteerID, applicationID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		guardEntry(volunteerID, applicationID, models.StatusPending),
		bson.M{
			"$pull": bson.M{"applied_opportunities": bson.M{"_id": applicationID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStatusChanged
	}
	return nil
}

// PullOpportunities removes every entry referencing any of the given opportunities.
func (s *Store) PullOpportunities(ctx context.Context, opportunityIDs []primitive.ObjectID) (int64, error) {
	if len(opportunityIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"applied_opportunities.opportunity_id": bson.M{"$in": opportunityIDs}},
		bson.M{
			"$pull": bson.M{"applied_opportunities": bson.M{"opportunity_id": bson.M{"$in": opportunityIDs}}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
