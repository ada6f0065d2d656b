package opportunities

import (
	"context"
	"errors"

	providerstore "github.com/dalemusser/greenreach/internal/app/store/providers"
	userstore "github.com/dalemusser/greenreach/internal/app/store/users"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const msgHasApplicants = "this opportunity has applicants; confirm the delete to remove their applications too"

var errHasApplicants = errors.New("opportunity has applicants")

// DeleteResult reports what a delete removed. Applications counts the
// volunteers that lost an entry; a volunteer holds at most one per opportunity.
type DeleteResult struct {
	Opportunities int64 `json:"opportunities_deleted"`
	Applications  int64 `json:"applications_removed"`
}

// Delete removes an opportunity. The owning provider and admins follow the
// same rule: an opportunity with applicants is only deleted when confirm is
// set, and then every volunteer entry referencing it is removed with it.
func (s *Service) Delete(ctx context.Context, caller identity.Identity, id primitive.ObjectID, confirm bool) (DeleteResult, error) {
	if !caller.CanDeleteOpportunities() {
		return DeleteResult{}, apierr.Forbidden("only the owning provider or an admin can delete this opportunity")
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	if caller.IsProvider() {
		prov, err := s.callerProvider(ctx, caller)
		if err != nil {
			return DeleteResult{}, err
		}
		if o.ProviderID != prov.ID {
			return DeleteResult{}, apierr.Forbidden("you do not own this opportunity")
		}
	}

	if !confirm {
		applied, err := s.vols.FindByOpportunity(ctx, id)
		if err != nil {
			return DeleteResult{}, apierr.Internal("count applicants", err)
		}
		if len(o.Applicants) > 0 || len(applied) > 0 {
			return DeleteResult{}, apierr.Conflict(msgHasApplicants)
		}
	}
	if s.beforeDelete != nil {
		s.beforeDelete(ctx)
	}

	// Without confirm the delete itself is guarded on an empty applicant
	// list, so a submit that lands after the check above still blocks it.
	var res DeleteResult
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res = DeleteResult{}
		if confirm {
			n, err := s.opps.Delete(ctx, id)
			if err != nil {
				return err
			}
			res.Opportunities = n
		} else {
			ok, err := s.opps.DeleteIfNoApplicants(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				return errHasApplicants
			}
			res.Opportunities = 1
		}
		n, err := s.vols.PullOpportunities(ctx, []primitive.ObjectID{id})
		res.Applications = n
		return err
	})
	if errors.Is(err, errHasApplicants) {
		if _, lerr := s.load(ctx, id); lerr != nil {
			return DeleteResult{}, lerr
		}
		return DeleteResult{}, apierr.Conflict(msgHasApplicants)
	}
	if err != nil {
		return DeleteResult{}, apierr.Internal("delete opportunity", err)
	}

	s.audit.OpportunityDeleted(ctx, caller, id, o.ProviderID, res.Applications)
	s.log.Info("opportunity deleted",
		zap.String("opportunity_id", id.Hex()),
		zap.String("provider_id", o.ProviderID.Hex()),
		zap.Int64("applications_removed", res.Applications))
	return res, nil
}

// DeleteProvider removes a provider, its opportunities, and every volunteer
// entry referencing them. The provider's account is disabled so outstanding
// tokens stop working.
func (s *Service) DeleteProvider(ctx context.Context, caller identity.Identity, providerID primitive.ObjectID) (DeleteResult, error) {
	if !caller.IsAdmin() {
		return DeleteResult{}, apierr.Forbidden("only admins can delete providers")
	}
	prov, err := s.provs.GetByID(ctx, providerID)
	if errors.Is(err, providerstore.ErrNotFound) {
		return DeleteResult{}, apierr.NotFound("provider not found")
	}
	if err != nil {
		return DeleteResult{}, apierr.Internal("load provider", err)
	}

	var res DeleteResult
	err = txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		res = DeleteResult{}
		ids, err := s.opps.IDsByProvider(ctx, providerID)
		if err != nil {
			return err
		}
		if res.Applications, err = s.vols.PullOpportunities(ctx, ids); err != nil {
			return err
		}
		if res.Opportunities, err = s.opps.DeleteByProvider(ctx, providerID); err != nil {
			return err
		}
		_, err = s.provs.Delete(ctx, providerID)
		return err
	})
	if err != nil {
		return DeleteResult{}, apierr.Internal("delete provider", err)
	}

	if err := s.users.SetStatus(ctx, prov.UserID, userstore.StatusDisabled); err != nil && !errors.Is(err, userstore.ErrNotFound) {
		s.log.Error("disable provider account failed",
			zap.String("user_id", prov.UserID.Hex()), zap.Error(err))
	}

	s.audit.ProviderDeleted(ctx, caller, providerID, res.Opportunities, res.Applications)
	s.log.Info("provider deleted",
		zap.String("provider_id", providerID.Hex()),
		zap.Int64("opportunities", res.Opportunities),
		zap.Int64("applications_removed", res.Applications))
	return res, nil
}
