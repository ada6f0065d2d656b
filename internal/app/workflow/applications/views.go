package applications

import (
	"time"

	"github.com/dalemusser/greenreach/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OpportunitySummary carries the opportunity and provider fields shown next
// to an application.
type OpportunitySummary struct {
	ID                  primitive.ObjectID `json:"id"`
	Title               string             `json:"title"`
	Type                string             `json:"type"`
	Location            string             `json:"location"`
	StartDate           time.Time          `json:"start_date"`
	EndDate             time.Time          `json:"end_date"`
	ApplicationDeadline *time.Time         `json:"application_deadline,omitempty"`
	ProviderID          primitive.ObjectID `json:"provider_id"`
	ProviderName        string             `json:"provider_name,omitempty"`
	ProviderLogoURL     string             `json:"provider_logo_url,omitempty"`
}

// VolunteerSummary identifies the applicant.
type VolunteerSummary struct {
	ID       primitive.ObjectID `json:"id"`
	FullName string             `json:"full_name"`
	PhotoURL string             `json:"photo_url,omitempty"`
}

// ApplicationView is one application as returned to callers.
type ApplicationView struct {
	ID             primitive.ObjectID       `json:"id"`
	OpportunityID  primitive.ObjectID       `json:"opportunity_id"`
	Status         models.ApplicationStatus `json:"status"`
	FeedbackNote   string                   `json:"feedback_note,omitempty"`
	IsCompleted    bool                     `json:"is_completed"`
	CompletionDate *time.Time               `json:"completion_date"`
	AppliedAt      time.Time                `json:"applied_at"`
	UpdatedAt      time.Time                `json:"updated_at"`

	Opportunity *OpportunitySummary `json:"opportunity,omitempty"`
	Volunteer   *VolunteerSummary   `json:"volunteer,omitempty"`
}

// ApplicantView is one applicant of an opportunity, joined from both sides.
type ApplicantView struct {
	ApplicationID  primitive.ObjectID       `json:"application_id"`
	VolunteerID    primitive.ObjectID       `json:"volunteer_id"`
	FullName       string                   `json:"full_name"`
	PhotoURL       string                   `json:"photo_url,omitempty"`
	Status         models.ApplicationStatus `json:"status"`
	FeedbackNote   string                   `json:"feedback_note,omitempty"`
	IsCompleted    bool                     `json:"is_completed"`
	CompletionDate *time.Time               `json:"completion_date"`
	AppliedAt      time.Time                `json:"applied_at"`
}

func newView(a models.AppliedOpportunity) ApplicationView {
	return ApplicationView{
		ID:             a.ID,
		OpportunityID:  a.OpportunityID,
		Status:         a.Status,
		FeedbackNote:   a.FeedbackNote,
		IsCompleted:    a.IsCompleted,
		CompletionDate: a.CompletionDate,
		AppliedAt:      a.AppliedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (v ApplicationView) withOpportunity(o models.Opportunity, p *models.Provider) ApplicationView {
	sum := &OpportunitySummary{
		ID:                  o.ID,
		Title:               o.Title,
		Type:                o.Type,
		Location:            o.Schedule.Location,
		StartDate:           o.Schedule.StartDate,
		EndDate:             o.Schedule.EndDate,
		ApplicationDeadline: o.Schedule.ApplicationDeadline,
		ProviderID:          o.ProviderID,
	}
	if p != nil {
		sum.ProviderName = p.OrganizationName
		sum.ProviderLogoURL = p.LogoURL
	}
	v.Opportunity = sum
	return v
}

func (v ApplicationView) withVolunteer(vol models.Volunteer) ApplicationView {
	v.Volunteer = &VolunteerSummary{ID: vol.ID, FullName: vol.FullName, PhotoURL: vol.PhotoURL}
	return v
}

func newApplicantView(vol models.Volunteer, a models.AppliedOpportunity) ApplicantView {
	return ApplicantView{
		ApplicationID:  a.ID,
		VolunteerID:    vol.ID,
		FullName:       vol.FullName,
		PhotoURL:       vol.PhotoURL,
		Status:         a.Status,
		FeedbackNote:   a.FeedbackNote,
		IsCompleted:    a.IsCompleted,
		CompletionDate: a.CompletionDate,
		AppliedAt:      a.AppliedAt,
	}
}
