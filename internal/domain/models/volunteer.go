// internal/domain/models/volunteer.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Volunteer is the profile owned 1:1 by an authenticated volunteer identity.
//
// AppliedOpportunities holds the canonical application entries. The entry _id
// is the application id used throughout the API.
type Volunteer struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"` // unique

	FullName   string `bson:"full_name" json:"full_name"`
	FullNameCI string `bson:"full_name_ci" json:"-"`
	PhotoURL   string `bson:"photo_url,omitempty" json:"photo_url,omitempty"`

	// Step 1: contact
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
	Location string `bson:"location,omitempty" json:"location,omitempty"`
	// Step 2: interests
	Interests []string `bson:"interests,omitempty" json:"interests,omitempty"`
	Skills    []string `bson:"skills,omitempty" json:"skills,omitempty"`
	// Step 3: availability
	Availability string `bson:"availability,omitempty" json:"availability,omitempty"`
	Bio          string `bson:"bio,omitempty" json:"bio,omitempty"`

	Steps ProfileSteps `bson:"steps" json:"steps"`

	AppliedOpportunities []AppliedOpportunity `bson:"applied_opportunities" json:"applied_opportunities"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ProfileSteps records which onboarding steps the volunteer has finished.
type ProfileSteps struct {
	Step1 bool `bson:"step1" json:"step1"`
	Step2 bool `bson:"step2" json:"step2"`
	Step3 bool `bson:"step3" json:"step3"`
}

// Complete reports whether all three steps are done.
func (p ProfileSteps) Complete() bool {
	return p.Step1 && p.Step2 && p.Step3
}

// AppliedOpportunity is the canonical application entry.
// IsCompleted may only be true while Status is Accepted.
type AppliedOpportunity struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	OpportunityID  primitive.ObjectID `bson:"opportunity_id" json:"opportunity_id"`
	Status         ApplicationStatus  `bson:"status" json:"status"`
	FeedbackNote   string             `bson:"feedback_note,omitempty" json:"feedback_note,omitempty"`
	IsCompleted    bool               `bson:"is_completed" json:"is_completed"`
	CompletionDate *time.Time         `bson:"completion_date" json:"completion_date"`
	AppliedAt      time.Time          `bson:"applied_at" json:"applied_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// Application returns the entry with the given id, if the volunteer owns it.
func (v Volunteer) Application(id primitive.ObjectID) (AppliedOpportunity, bool) {
	for _, a := range v.AppliedOpportunities {
		if a.ID == id {
			return a, true
		}
	}
	return AppliedOpportunity{}, false
}

// ApplicationFor returns the entry referencing an opportunity, if any.
func (v Volunteer) ApplicationFor(opportunityID primitive.ObjectID) (AppliedOpportunity, bool) {
	for _, a := range v.AppliedOpportunities {
		if a.OpportunityID == opportunityID {
			return a, true
		}
	}
	return AppliedOpportunity{}, false
}
