package applications

import (
	"context"
	"errors"

	opportunitystore "github.com/dalemusser/greenreach/internal/app/store/opportunities"
	volunteerstore "github.com/dalemusser/greenreach/internal/app/store/volunteers"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/metrics"
	"github.com/dalemusser/greenreach/internal/app/system/txn"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Variant names the submission entry point. Both share one precondition set;
// Register adds the profile-completeness and capacity checks.
type Variant string

const (
	VariantSubmit   Variant = "submit"
	VariantRegister Variant = "register"
)

const msgAlreadyApplied = "already applied"

// Submit creates a Pending application for the calling volunteer.
func (s *Service) Submit(ctx context.Context, caller identity.Identity, opportunityID primitive.ObjectID) (ApplicationView, error) {
	return s.apply(ctx, caller, opportunityID, VariantSubmit)
}

// Register is Submit for volunteers with a complete profile, refused once the
// opportunity has as many accepted applicants as it requires.
func (s *Service) Register(ctx context.Context, caller identity.Identity, opportunityID primitive.ObjectID) (ApplicationView, error) {
	return s.apply(ctx, caller, opportunityID, VariantRegister)
}

func (s *Service) apply(ctx context.Context, caller identity.Identity, opportunityID primitive.ObjectID, variant Variant) (ApplicationView, error) {
	if !caller.CanApply() {
		return ApplicationView{}, apierr.Forbidden("only volunteers can apply to opportunities")
	}
	if s.limiter != nil && !s.limiter.Allow(caller.UserID.Hex()) {
		metrics.RecordThrottled("submit")
		return ApplicationView{}, apierr.RateLimited("too many applications; please wait a moment and try again")
	}

	vol, err := s.volunteerFor(ctx, caller)
	if err != nil {
		return ApplicationView{}, err
	}
	opp, err := s.opportunity(ctx, opportunityID)
	if err != nil {
		return ApplicationView{}, err
	}

	now := s.now()
	if opp.DeadlinePassed(now) {
		return ApplicationView{}, apierr.Conflict("the application deadline has passed")
	}
	if _, ok := vol.ApplicationFor(opp.ID); ok {
		return ApplicationView{}, apierr.Conflict(msgAlreadyApplied)
	}
	if _, ok := opp.ApplicantFor(vol.ID); ok {
		return ApplicationView{}, apierr.Conflict(msgAlreadyApplied)
	}
	if variant == VariantRegister {
		if !vol.Steps.Complete() {
			return ApplicationView{}, apierr.Conflict("complete all profile steps before registering")
		}
		if opp.AcceptedCount() >= opp.VolunteersRequired {
			return ApplicationView{}, apierr.Conflict("this opportunity has no remaining volunteer spots")
		}
	}

	entry := models.AppliedOpportunity{
		ID:            primitive.NewObjectID(),
		OpportunityID: opp.ID,
		Status:        models.StatusPending,
		AppliedAt:     now,
		UpdatedAt:     now,
	}
	mirror := models.Applicant{
		ID:          primitive.NewObjectID(),
		VolunteerID: vol.ID,
		Status:      models.StatusPending,
		AppliedAt:   now,
	}

	canonicalWritten := false
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		if err := s.vols.PushApplication(ctx, vol.ID, entry); err != nil {
			return err
		}
		canonicalWritten = true
		return s.opps.PushApplicant(ctx, opp.ID, mirror)
	})
	if err != nil {
		if canonicalWritten {
			s.undoCanonical(ctx, vol.ID, entry.ID)
		}
		switch {
		case errors.Is(err, volunteerstore.ErrAlreadyApplied), errors.Is(err, opportunitystore.ErrAlreadyApplied):
			return ApplicationView{}, apierr.Conflict(msgAlreadyApplied)
		case errors.Is(err, opportunitystore.ErrNotFound):
			return ApplicationView{}, apierr.NotFound("opportunity not found")
		case errors.Is(err, volunteerstore.ErrNotFound):
			return ApplicationView{}, apierr.NotFound("volunteer profile not found")
		}
		return ApplicationView{}, apierr.Internal("submit application", err)
	}

	metrics.RecordSubmission(string(variant))
	s.audit.ApplicationSubmitted(ctx, caller, entry.ID, opp.ID, vol.ID, string(variant))
	s.log.Info("application submitted", append(s.logFields(entry.ID, opp.ID, vol.ID),
		zap.String("variant", string(variant)))...)

	view := newView(entry)
	prov, err := s.provs.GetByID(ctx, opp.ProviderID)
	if err != nil {
		s.log.Warn("provider lookup failed for submitted application", zap.String("provider_id", opp.ProviderID.Hex()), zap.Error(err))
		return view.withOpportunity(opp, nil), nil
	}
	return view.withOpportunity(opp, &prov), nil
}

// undoCanonical removes a canonical entry whose mirror write failed. Inside a
// transaction the entry was never committed and this finds nothing.
func (s *Service) undoCanonical(ctx context.Context, volunteerID, applicationID primitive.ObjectID) {
	err := s.vols.PullPendingApplication(ctx, volunteerID, applicationID)
	if err == nil {
		s.log.Warn("rolled back canonical entry after mirror write failed",
			zap.String("application_id", applicationID.Hex()),
			zap.String("volunteer_id", volunteerID.Hex()))
		return
	}
	if !errors.Is(err, volunteerstore.ErrStatusChanged) {
		s.log.Error("rollback of canonical entry failed; reconcile will repair",
			zap.String("application_id", applicationID.Hex()),
			zap.Error(err))
	}
}
