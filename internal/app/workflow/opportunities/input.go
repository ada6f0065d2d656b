package opportunities

import (
	"strings"
	"time"

	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/htmlsanitize"
	"github.com/dalemusser/greenreach/internal/app/system/inputval"
	"github.com/dalemusser/greenreach/internal/app/system/normalize"
	"github.com/dalemusser/greenreach/internal/domain/models"
)

// Opportunity types.
const (
	TypeInPerson = "in-person"
	TypeVirtual  = "virtual"
	TypeHybrid   = "hybrid"
)

// Input is the request body for create and update.
type Input struct {
	Title              string        `json:"title" label:"Title" validate:"nonblank,max=200"`
	Description        string        `json:"description" label:"Description" validate:"max=10000"`
	Type               string        `json:"type" label:"Type" validate:"required,oneof=in-person virtual hybrid"`
	Categories         []string      `json:"categories" label:"Categories" validate:"max=20,dive,max=100"`
	VolunteersRequired int           `json:"volunteers_required" label:"Volunteers required" validate:"gte=1,max=10000"`
	IsPaid             bool          `json:"is_paid"`
	Compensation       string        `json:"compensation" label:"Compensation" validate:"max=500"`
	Schedule           ScheduleInput `json:"schedule"`
}

// ScheduleInput is the schedule block of Input.
type ScheduleInput struct {
	Location            string     `json:"location" label:"Location" validate:"nonblank,max=500"`
	StartDate           time.Time  `json:"start_date" label:"Start date" validate:"required"`
	EndDate             time.Time  `json:"end_date" label:"End date" validate:"required"`
	TimeCommitment      string     `json:"time_commitment" label:"Time commitment" validate:"max=500"`
	ApplicationDeadline *time.Time `json:"application_deadline" label:"Application deadline"`
}

func (in Input) validate() error {
	if res := inputval.Validate(in); res.HasErrors() {
		return apierr.Validation("%s", res.All())
	}
	comp := strings.TrimSpace(in.Compensation)
	switch {
	case in.IsPaid && comp == "":
		return apierr.Validation("Compensation is required for paid opportunities.")
	case !in.IsPaid && comp != "":
		return apierr.Validation("Compensation may only be set on paid opportunities.")
	case in.Schedule.EndDate.Before(in.Schedule.StartDate):
		return apierr.Validation("End date must not be before start date.")
	case in.Schedule.ApplicationDeadline != nil && in.Schedule.ApplicationDeadline.After(in.Schedule.EndDate):
		return apierr.Validation("Application deadline must not be after end date.")
	}
	return nil
}

// model converts validated input into a document. The description keeps safe
// markup; every other free-text field is stripped to plain text.
func (in Input) model() models.Opportunity {
	sched := models.Schedule{
		Location:       htmlsanitize.Strip(in.Schedule.Location),
		StartDate:      in.Schedule.StartDate.UTC(),
		EndDate:        in.Schedule.EndDate.UTC(),
		TimeCommitment: htmlsanitize.Strip(in.Schedule.TimeCommitment),
	}
	if d := in.Schedule.ApplicationDeadline; d != nil {
		t := d.UTC()
		sched.ApplicationDeadline = &t
	}
	return models.Opportunity{
		Title:              htmlsanitize.Strip(in.Title),
		Description:        htmlsanitize.Sanitize(in.Description),
		Type:               in.Type,
		Categories:         normalize.Tags(in.Categories),
		VolunteersRequired: in.VolunteersRequired,
		IsPaid:             in.IsPaid,
		Compensation:       strings.TrimSpace(in.Compensation),
		Schedule:           sched,
	}
}
