package applications

import (
	"context"

	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/metrics"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ListForOpportunity returns the applicants of an opportunity. Status and
// completion come from the canonical entries; the mirror only fixes the order.
func (s *Service) ListForOpportunity(ctx context.Context, caller identity.Identity, opportunityID primitive.ObjectID) ([]ApplicantView, error) {
	var opp models.Opportunity
	var err error
	switch {
	case caller.IsAdmin():
		opp, err = s.opportunity(ctx, opportunityID)
	case caller.IsProvider():
		opp, _, err = s.ownedOpportunity(ctx, caller, opportunityID)
	default:
		return nil, apierr.Forbidden("only the owning provider can list applicants")
	}
	if err != nil {
		return nil, err
	}

	vols, err := s.vols.FindByOpportunity(ctx, opp.ID)
	if err != nil {
		return nil, apierr.Internal("load applicants", err)
	}
	byID := make(map[primitive.ObjectID]models.Volunteer, len(vols))
	for _, v := range vols {
		byID[v.ID] = v
	}

	out := make([]ApplicantView, 0, len(opp.Applicants))
	seen := make(map[primitive.ObjectID]bool, len(opp.Applicants))
	for _, m := range opp.Applicants {
		v, ok := byID[m.VolunteerID]
		entry, found := v.ApplicationFor(opp.ID)
		if !ok || !found {
			s.anomaly(metrics.AnomalyOrphanMirror, opp.ID, m.VolunteerID,
				zap.String("mirror_status", string(m.Status)))
			continue
		}
		if entry.Status != m.Status {
			s.anomaly(metrics.AnomalyStatusMismatch, opp.ID, m.VolunteerID,
				zap.String("mirror_status", string(m.Status)),
				zap.String("canonical_status", string(entry.Status)))
		}
		seen[v.ID] = true
		out = append(out, newApplicantView(v, entry))
	}
	for _, v := range vols {
		if seen[v.ID] {
			continue
		}
		entry, _ := v.ApplicationFor(opp.ID)
		s.anomaly(metrics.AnomalyMissingMirror, opp.ID, v.ID,
			zap.String("canonical_status", string(entry.Status)))
		out = append(out, newApplicantView(v, entry))
	}
	return out, nil
}

func (s *Service) anomaly(kind string, opportunityID, volunteerID primitive.ObjectID, fields ...zap.Field) {
	metrics.RecordMirrorAnomaly(kind)
	s.log.Warn("application mirror anomaly", append([]zap.Field{
		zap.String("kind", kind),
		zap.String("opportunity_id", opportunityID.Hex()),
		zap.String("volunteer_id", volunteerID.Hex()),
	}, fields...)...)
}

// ListForCaller returns the calling volunteer's applications. A volunteer
// without a profile yet gets an empty list.
func (s *Service) ListForCaller(ctx context.Context, caller identity.Identity) ([]ApplicationView, error) {
	if !caller.IsVolunteer() {
		return nil, apierr.Forbidden("only volunteers have their own applications")
	}
	vol, err := s.volunteerFor(ctx, caller)
	if apierr.Is(err, apierr.KindNotFound) {
		return []ApplicationView{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, []models.Volunteer{vol}, false)
}

// ListAll returns every application across all volunteers.
func (s *Service) ListAll(ctx context.Context, caller identity.Identity) ([]ApplicationView, error) {
	if !caller.CanSeeAllApplications() {
		return nil, apierr.Forbidden("only admins can list all applications")
	}
	vols, err := s.vols.FindWithApplications(ctx)
	if err != nil {
		return nil, apierr.Internal("load volunteers", err)
	}
	return s.enrich(ctx, vols, true)
}

// enrich flattens the volunteers' entries into views with opportunity and
// provider display fields.
func (s *Service) enrich(ctx context.Context, vols []models.Volunteer, withVolunteer bool) ([]ApplicationView, error) {
	var oppIDs []primitive.ObjectID
	for _, v := range vols {
		for _, a := range v.AppliedOpportunities {
			oppIDs = append(oppIDs, a.OpportunityID)
		}
	}
	opps, err := s.opps.GetByIDs(ctx, oppIDs)
	if err != nil {
		return nil, apierr.Internal("load opportunities", err)
	}
	provIDs := make([]primitive.ObjectID, 0, len(opps))
	for _, o := range opps {
		provIDs = append(provIDs, o.ProviderID)
	}
	provs, err := s.provs.GetByIDs(ctx, provIDs)
	if err != nil {
		return nil, apierr.Internal("load providers", err)
	}

	out := []ApplicationView{}
	for _, v := range vols {
		for _, a := range v.AppliedOpportunities {
			view := newView(a)
			if o, ok := opps[a.OpportunityID]; ok {
				if p, ok := provs[o.ProviderID]; ok {
					view = view.withOpportunity(o, &p)
				} else {
					view = view.withOpportunity(o, nil)
				}
			} else {
				s.anomaly(metrics.AnomalyDangling, a.OpportunityID, v.ID)
			}
			if withVolunteer {
				view = view.withVolunteer(v)
			}
			out = append(out, view)
		}
	}
	return out, nil
}

// GetByID returns one application. Admins see any; providers only those for
// their opportunities; volunteers only their own.
func (s *Service) GetByID(ctx context.Context, caller identity.Identity, applicationID primitive.ObjectID) (ApplicationView, error) {
	vol, entry, err := s.application(ctx, applicationID)
	if err != nil {
		return ApplicationView{}, err
	}

	var opp models.Opportunity
	var prov *models.Provider
	switch {
	case caller.IsAdmin():
		opp, err = s.opportunity(ctx, entry.OpportunityID)
	case caller.IsProvider():
		var p models.Provider
		opp, p, err = s.ownedOpportunity(ctx, caller, entry.OpportunityID)
		prov = &p
	case caller.IsVolunteer():
		if vol.UserID != caller.UserID {
			return ApplicationView{}, apierr.Forbidden("you can only view your own applications")
		}
		opp, err = s.opportunity(ctx, entry.OpportunityID)
	default:
		return ApplicationView{}, apierr.Forbidden("you cannot view this application")
	}
	view := newView(entry).withVolunteer(vol)
	if apierr.Is(err, apierr.KindNotFound) && !caller.IsProvider() {
		// The opportunity is gone; the entry is still readable by its owner and admins.
		return view, nil
	}
	if err != nil {
		return ApplicationView{}, err
	}
	if prov == nil {
		if p, perr := s.provs.GetByID(ctx, opp.ProviderID); perr == nil {
			prov = &p
		}
	}
	return view.withOpportunity(opp, prov), nil
}
