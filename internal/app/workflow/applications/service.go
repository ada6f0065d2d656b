// Package applications implements the application-status workflow: submitting,
// reading, transitioning, completing, and withdrawing applications.
//
// An application lives twice. The entry in volunteers.applied_opportunities is
// canonical and carries the application id; opportunities.applicants holds a
// mirror that must agree with it on presence and status. Every mutation writes
// both sides inside txn.Run, and the reconcile worker repairs whatever a
// deployment without transactions lets drift.
package applications

import (
	"context"
	"errors"
	"time"

	opportunitystore "github.com/dalemusser/greenreach/internal/app/store/opportunities"
	providerstore "github.com/dalemusser/greenreach/internal/app/store/providers"
	volunteerstore "github.com/dalemusser/greenreach/internal/app/store/volunteers"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/auditlog"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/ratelimit"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Service runs the workflow against MongoDB.
type Service struct {
	db    *mongo.Database
	opps  *opportunitystore.Store
	vols  *volunteerstore.Store
	provs *providerstore.Store
	audit *auditlog.Logger
	log   *zap.Logger

	now     func() time.Time
	limiter *ratelimit.Limiter // per-volunteer submission limit; nil disables
}

// New builds a Service. al may be nil.
func New(db *mongo.Database, al *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{
		db:    db,
		opps:  opportunitystore.New(db),
		vols:  volunteerstore.New(db),
		provs: providerstore.New(db),
		audit: al,
		log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Used by tests to move past deadlines.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithSubmitLimiter caps how often one volunteer may submit.
func (s *Service) WithSubmitLimiter(l *ratelimit.Limiter) *Service {
	s.limiter = l
	return s
}

/*─────────────────────────────────────────────────────────────────────────────*
| Loading and ownership                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (s *Service) volunteerFor(ctx context.Context, caller identity.Identity) (models.Volunteer, error) {
	v, err := s.vols.GetByUserID(ctx, caller.UserID)
	if errors.Is(err, volunteerstore.ErrNotFound) {
		return models.Volunteer{}, apierr.NotFound("volunteer profile not found")
	}
	if err != nil {
		return models.Volunteer{}, apierr.Internal("load volunteer profile", err)
	}
	return v, nil
}

func (s *Service) providerFor(ctx context.Context, caller identity.Identity) (models.Provider, error) {
	p, err := s.provs.GetByUserID(ctx, caller.UserID)
	if errors.Is(err, providerstore.ErrNotFound) {
		return models.Provider{}, apierr.NotFound("provider profile not found")
	}
	if err != nil {
		return models.Provider{}, apierr.Internal("load provider profile", err)
	}
	return p, nil
}

func (s *Service) opportunity(ctx context.Context, id primitive.ObjectID) (models.Opportunity, error) {
	o, err := s.opps.GetByID(ctx, id)
	if errors.Is(err, opportunitystore.ErrNotFound) {
		return models.Opportunity{}, apierr.NotFound("opportunity not found")
	}
	if err != nil {
		return models.Opportunity{}, apierr.Internal("load opportunity", err)
	}
	return o, nil
}

// application loads the volunteer owning applicationID and the entry itself.
func (s *Service) application(ctx context.Context, applicationID primitive.ObjectID) (models.Volunteer, models.AppliedOpportunity, error) {
	v, err := s.vols.GetByApplicationID(ctx, applicationID)
	if errors.Is(err, volunteerstore.ErrApplicationNotFound) {
		return models.Volunteer{}, models.AppliedOpportunity{}, apierr.NotFound("application not found")
	}
	if err != nil {
		return models.Volunteer{}, models.AppliedOpportunity{}, apierr.Internal("load application", err)
	}
	a, ok := v.Application(applicationID)
	if !ok {
		return models.Volunteer{}, models.AppliedOpportunity{}, apierr.NotFound("application not found")
	}
	return v, a, nil
}

// ownedOpportunity loads an opportunity and checks the calling provider owns it.
func (s *Service) ownedOpportunity(ctx context.Context, caller identity.Identity, opportunityID primitive.ObjectID) (models.Opportunity, models.Provider, error) {
	prov, err := s.providerFor(ctx, caller)
	if err != nil {
		return models.Opportunity{}, models.Provider{}, err
	}
	opp, err := s.opportunity(ctx, opportunityID)
	if err != nil {
		return models.Opportunity{}, models.Provider{}, err
	}
	if opp.ProviderID != prov.ID {
		return models.Opportunity{}, models.Provider{}, apierr.Forbidden("you do not own this opportunity")
	}
	return opp, prov, nil
}

func (s *Service) logFields(applicationID, opportunityID, volunteerID primitive.ObjectID) []zap.Field {
	return []zap.Field{
		zap.String("application_id", applicationID.Hex()),
		zap.String("opportunity_id", opportunityID.Hex()),
		zap.String("volunteer_id", volunteerID.Hex()),
	}
}
