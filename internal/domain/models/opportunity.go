// internal/domain/models/opportunity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Opportunity is a posting owned by exactly one provider.
//
// Applicants mirrors the canonical entries kept on each volunteer
// (Volunteer.AppliedOpportunities). The mirror carries status only;
// completion data lives on the volunteer side.
type Opportunity struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	ProviderID primitive.ObjectID `bson:"provider_id" json:"provider_id"` // immutable after creation

	Title       string   `bson:"title" json:"title"`
	TitleCI     string   `bson:"title_ci" json:"-"`
	Description string   `bson:"description" json:"description"`
	Type        string   `bson:"type" json:"type"`
	Categories  []string `bson:"categories" json:"categories"`

	VolunteersRequired int    `bson:"volunteers_required" json:"volunteers_required"`
	IsPaid             bool   `bson:"is_paid" json:"is_paid"`
	Compensation       string `bson:"compensation,omitempty" json:"compensation,omitempty"`

	Schedule Schedule `bson:"schedule" json:"schedule"`

	Applicants []Applicant `bson:"applicants" json:"applicants"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Schedule groups where and when an opportunity happens.
type Schedule struct {
	Location            string     `bson:"location" json:"location"`
	StartDate           time.Time  `bson:"start_date" json:"start_date"`
	EndDate             time.Time  `bson:"end_date" json:"end_date"`
	TimeCommitment      string     `bson:"time_commitment,omitempty" json:"time_commitment,omitempty"`
	ApplicationDeadline *time.Time `bson:"application_deadline,omitempty" json:"application_deadline,omitempty"`
}

// Applicant is the opportunity-side mirror of one application.
// Exactly one per volunteer.
type Applicant struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	VolunteerID primitive.ObjectID `bson:"volunteer_id" json:"volunteer_id"`
	Status      ApplicationStatus  `bson:"status" json:"status"`
	AppliedAt   time.Time          `bson:"applied_at" json:"applied_at"`
}

// DeadlinePassed reports whether submissions are closed at now.
// An opportunity without a deadline never closes.
func (o Opportunity) DeadlinePassed(now time.Time) bool {
	d := o.Schedule.ApplicationDeadline
	return d != nil && now.After(*d)
}

// AcceptedCount returns the number of mirrored applicants in the Accepted state.
func (o Opportunity) AcceptedCount() int {
	n := 0
	for _, a := range o.Applicants {
		if a.Status == StatusAccepted {
			n++
		}
	}
	return n
}

// ApplicantFor returns the mirror entry for a volunteer, if present.
func (o Opportunity) ApplicantFor(volunteerID primitive.ObjectID) (Applicant, bool) {
	for _, a := range o.Applicants {
		if a.VolunteerID == volunteerID {
			return a, true
		}
	}
	return Applicant{}, false
}
