package applications

import (
	"context"
	"errors"

	opportunitystore "github.com/dalemusser/greenreach/internal/app/store/opportunities"
	volunteerstore "github.com/dalemusser/greenreach/internal/app/store/volunteers"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/htmlsanitize"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/limits"
	"github.com/dalemusser/greenreach/internal/app/system/metrics"
	"github.com/dalemusser/greenreach/internal/app/system/txn"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	msgChangedConcurrently = "the application was changed by someone else; reload and try again"
	msgOnlyPendingWithdraw = "only pending applications can be withdrawn"
	msgOnlyAcceptedDone    = "only accepted applications can be marked complete"
)

// UpdateStatus moves an application to status on behalf of the provider that
// owns its opportunity. A nil note leaves the existing feedback untouched.
func (s *Service) UpdateStatus(ctx context.Context, caller identity.Identity, applicationID primitive.ObjectID,
	status models.ApplicationStatus, note *string) (ApplicationView, error) {

	if !caller.CanReviewApplications() {
		return ApplicationView{}, apierr.Forbidden("only the owning provider can change application status")
	}
	if !status.Valid() {
		return ApplicationView{}, apierr.Validation("status must be Pending, Accepted, or Rejected")
	}
	if note != nil {
		clean := htmlsanitize.Strip(*note)
		if htmlsanitize.TooLong(clean, limits.MaxFeedbackNote) {
			return ApplicationView{}, apierr.Validation("feedback note must be at most %d characters", limits.MaxFeedbackNote)
		}
		note = &clean
	}

	vol, entry, err := s.application(ctx, applicationID)
	if err != nil {
		return ApplicationView{}, err
	}
	opp, prov, err := s.ownedOpportunity(ctx, caller, entry.OpportunityID)
	if err != nil {
		return ApplicationView{}, err
	}
	from := entry.Status
	if !from.CanTransitionTo(status) {
		return ApplicationView{}, apierr.InvalidState("cannot change status from %s to %s", from, status)
	}

	now := s.now()
	mirrorMissing := false
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		mirrorMissing = false
		if err := s.vols.SetStatus(ctx, vol.ID, entry.ID, from, status, note, now); err != nil {
			return err
		}
		err := s.opps.SetApplicantStatus(ctx, opp.ID, vol.ID, status)
		if errors.Is(err, opportunitystore.ErrApplicantNotFound) {
			mirrorMissing = true
			return nil
		}
		return err
	})
	if errors.Is(err, volunteerstore.ErrStatusChanged) {
		return ApplicationView{}, apierr.Conflict(msgChangedConcurrently)
	}
	if err != nil {
		return ApplicationView{}, apierr.Internal("update application status", err)
	}
	if mirrorMissing {
		s.anomaly(metrics.AnomalyMissingMirror, opp.ID, vol.ID,
			zap.String("application_id", entry.ID.Hex()),
			zap.String("canonical_status", string(status)))
	}

	if status == models.StatusAccepted {
		if err := s.provs.IncrementTotalVolunteers(ctx, prov.ID, 1); err != nil {
			s.log.Error("increment total_volunteers failed",
				zap.String("provider_id", prov.ID.Hex()), zap.Error(err))
		}
	}

	metrics.RecordTransition(string(from), string(status))
	s.audit.StatusChanged(ctx, caller, entry.ID, opp.ID, from, status)
	s.log.Info("application status changed", append(s.logFields(entry.ID, opp.ID, vol.ID),
		zap.String("from", string(from)), zap.String("to", string(status)))...)

	entry.Status = status
	entry.UpdatedAt = now
	if note != nil {
		entry.FeedbackNote = *note
	}
	if status != models.StatusAccepted {
		entry.IsCompleted = false
		entry.CompletionDate = nil
	}
	return newView(entry).withOpportunity(opp, &prov).withVolunteer(vol), nil
}

// UpdateCompletion marks an Accepted application complete or not. The owning
// volunteer and the owning provider may both toggle it.
func (s *Service) UpdateCompletion(ctx context.Context, caller identity.Identity, applicationID primitive.ObjectID, completed bool) (ApplicationView, error) {
	if !caller.CanToggleCompletion() {
		return ApplicationView{}, apierr.Forbidden("you cannot change completion for this application")
	}
	vol, entry, err := s.application(ctx, applicationID)
	if err != nil {
		return ApplicationView{}, err
	}
	if caller.IsVolunteer() && vol.UserID != caller.UserID {
		return ApplicationView{}, apierr.Forbidden("you can only update your own applications")
	}
	if caller.IsProvider() {
		if _, _, err := s.ownedOpportunity(ctx, caller, entry.OpportunityID); err != nil {
			return ApplicationView{}, err
		}
	}
	if entry.Status != models.StatusAccepted {
		return ApplicationView{}, apierr.InvalidState(msgOnlyAcceptedDone)
	}

	now := s.now()
	err = s.vols.SetCompletion(ctx, vol.ID, entry.ID, completed, now)
	if errors.Is(err, volunteerstore.ErrStatusChanged) {
		return ApplicationView{}, apierr.InvalidState(msgOnlyAcceptedDone)
	}
	if err != nil {
		return ApplicationView{}, apierr.Internal("update application completion", err)
	}

	s.audit.CompletionChanged(ctx, caller, entry.ID, completed)
	s.log.Info("application completion changed", append(s.logFields(entry.ID, entry.OpportunityID, vol.ID),
		zap.Bool("completed", completed))...)

	entry.IsCompleted = completed
	entry.CompletionDate = nil
	if completed {
		t := now
		entry.CompletionDate = &t
	}
	entry.UpdatedAt = now
	return newView(entry).withVolunteer(vol), nil
}

// Withdraw removes a Pending application on behalf of its volunteer.
func (s *Service) Withdraw(ctx context.Context, caller identity.Identity, applicationID primitive.ObjectID) error {
	if !caller.CanWithdraw() {
		return apierr.Forbidden("only volunteers can withdraw applications")
	}
	vol, entry, err := s.application(ctx, applicationID)
	if err != nil {
		return err
	}
	if vol.UserID != caller.UserID {
		return apierr.Forbidden("you can only withdraw your own applications")
	}
	if entry.Status != models.StatusPending {
		return apierr.Conflict(msgOnlyPendingWithdraw)
	}

	mirrorMissing := false
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		mirrorMissing = false
		if err := s.vols.PullPendingApplication(ctx, vol.ID, entry.ID); err != nil {
			return err
		}
		err := s.opps.PullApplicant(ctx, entry.OpportunityID, vol.ID)
		if errors.Is(err, opportunitystore.ErrApplicantNotFound) {
			mirrorMissing = true
			return nil
		}
		return err
	})
	if errors.Is(err, volunteerstore.ErrStatusChanged) {
		return apierr.Conflict(msgOnlyPendingWithdraw)
	}
	if err != nil {
		return apierr.Internal("withdraw application", err)
	}
	if mirrorMissing {
		s.anomaly(metrics.AnomalyMissingMirror, entry.OpportunityID, vol.ID,
			zap.String("application_id", entry.ID.Hex()))
	}

	metrics.RecordWithdrawal()
	s.audit.Withdrawn(ctx, caller, entry.ID, entry.OpportunityID)
	s.log.Info("application withdrawn", s.logFields(entry.ID, entry.OpportunityID, vol.ID)...)
	return nil
}
