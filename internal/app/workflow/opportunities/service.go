// Package opportunities implements opportunity ownership: posting, editing,
// listing, and the delete cascades that keep volunteer entries consistent.
package opportunities

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/greenreach/internal/app/store/audit"
	opportunitystore "github.com/dalemusser/greenreach/internal/app/store/opportunities"
	providerstore "github.com/dalemusser/greenreach/internal/app/store/providers"
	userstore "github.com/dalemusser/greenreach/internal/app/store/users"
	volunteerstore "github.com/dalemusser/greenreach/internal/app/store/volunteers"
	"github.com/dalemusser/greenreach/internal/app/system/apierr"
	"github.com/dalemusser/greenreach/internal/app/system/auditlog"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/system/paging"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Service struct {
	db    *mongo.Database
	opps  *opportunitystore.Store
	vols  *volunteerstore.Store
	provs *providerstore.Store
	users *userstore.Store
	audit *auditlog.Logger
	log   *zap.Logger

	// beforeDelete runs between the applicant check and the delete write.
	// Tests use it to interleave a submit.
	beforeDelete func(ctx context.Context)
}

// New builds a Service. al may be nil.
func New(db *mongo.Database, al *auditlog.Logger, logger *zap.Logger) *Service {
	return &Service{
		db:    db,
		opps:  opportunitystore.New(db),
		vols:  volunteerstore.New(db),
		provs: providerstore.New(db),
		users: userstore.New(db),
		audit: al,
		log:   logger,
	}
}

// View is an opportunity as shown to any signed-in user. The applicant mirror
// is summarized; the list itself is served by the applications endpoints.
type View struct {
	ID                 primitive.ObjectID `json:"id"`
	ProviderID         primitive.ObjectID `json:"provider_id"`
	ProviderName       string             `json:"provider_name,omitempty"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Type               string             `json:"type"`
	Categories         []string           `json:"categories"`
	VolunteersRequired int                `json:"volunteers_required"`
	IsPaid             bool               `json:"is_paid"`
	Compensation       string             `json:"compensation,omitempty"`
	Schedule           models.Schedule    `json:"schedule"`
	ApplicantCount     int                `json:"applicant_count"`
	AcceptedCount      int                `json:"accepted_count"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

func newView(o models.Opportunity, p *models.Provider) View {
	v := View{
		ID:                 o.ID,
		ProviderID:         o.ProviderID,
		Title:              o.Title,
		Description:        o.Description,
		Type:               o.Type,
		Categories:         o.Categories,
		VolunteersRequired: o.VolunteersRequired,
		IsPaid:             o.IsPaid,
		Compensation:       o.Compensation,
		Schedule:           o.Schedule,
		ApplicantCount:     len(o.Applicants),
		AcceptedCount:      o.AcceptedCount(),
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	if v.Categories == nil {
		v.Categories = []string{}
	}
	if p != nil {
		v.ProviderName = p.OrganizationName
	}
	return v
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (models.Opportunity, error) {
	o, err := s.opps.GetByID(ctx, id)
	if errors.Is(err, opportunitystore.ErrNotFound) {
		return models.Opportunity{}, apierr.NotFound("opportunity not found")
	}
	if err != nil {
		return models.Opportunity{}, apierr.Internal("load opportunity", err)
	}
	return o, nil
}

func (s *Service) callerProvider(ctx context.Context, caller identity.Identity) (models.Provider, error) {
	p, err := s.provs.GetByUserID(ctx, caller.UserID)
	if errors.Is(err, providerstore.ErrNotFound) {
		return models.Provider{}, apierr.NotFound("provider profile not found")
	}
	if err != nil {
		return models.Provider{}, apierr.Internal("load provider profile", err)
	}
	return p, nil
}

// Create posts a new opportunity owned by the calling provider.
func (s *Service) Create(ctx context.Context, caller identity.Identity, in Input) (View, error) {
	if !caller.CanPostOpportunities() {
		return View{}, apierr.Forbidden("only providers can post opportunities")
	}
	if err := in.validate(); err != nil {
		return View{}, err
	}
	prov, err := s.callerProvider(ctx, caller)
	if err != nil {
		return View{}, err
	}

	o := in.model()
	o.ProviderID = prov.ID
	created, err := s.opps.Create(ctx, o)
	if err != nil {
		return View{}, apierr.Internal("create opportunity", err)
	}

	s.audit.OpportunityChanged(ctx, caller, audit.EventOpportunityCreated, created.ID, prov.ID, created.Title)
	s.log.Info("opportunity created",
		zap.String("opportunity_id", created.ID.Hex()),
		zap.String("provider_id", prov.ID.Hex()))
	return newView(created, &prov), nil
}

// Update replaces the editable fields of an opportunity the caller owns.
// Ownership and the applicant mirror are never changed here.
func (s *Service) Update(ctx context.Context, caller identity.Identity, id primitive.ObjectID, in Input) (View, error) {
	if !caller.CanPostOpportunities() {
		return View{}, apierr.Forbidden("only the owning provider can edit this opportunity")
	}
	if err := in.validate(); err != nil {
		return View{}, err
	}
	prov, err := s.callerProvider(ctx, caller)
	if err != nil {
		return View{}, err
	}
	o, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	if o.ProviderID != prov.ID {
		return View{}, apierr.Forbidden("you do not own this opportunity")
	}

	m := in.model()
	err = s.opps.Update(ctx, id, opportunitystore.Update{
		Title:              m.Title,
		Description:        m.Description,
		Type:               m.Type,
		Categories:         m.Categories,
		VolunteersRequired: m.VolunteersRequired,
		IsPaid:             m.IsPaid,
		Compensation:       m.Compensation,
		Schedule:           m.Schedule,
	})
	if errors.Is(err, opportunitystore.ErrNotFound) {
		return View{}, apierr.NotFound("opportunity not found")
	}
	if err != nil {
		return View{}, apierr.Internal("update opportunity", err)
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	s.audit.OpportunityChanged(ctx, caller, audit.EventOpportunityUpdated, id, prov.ID, updated.Title)
	s.log.Info("opportunity updated", zap.String("opportunity_id", id.Hex()))
	return newView(updated, &prov), nil
}

// Get returns one opportunity.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (View, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	var prov *models.Provider
	if p, err := s.provs.GetByID(ctx, o.ProviderID); err == nil {
		prov = &p
	}
	return newView(o, prov), nil
}

// List returns opportunities matching f, newest first.
func (s *Service) List(ctx context.Context, f opportunitystore.Filter) ([]View, error) {
	opps, err := s.opps.Find(ctx, f)
	if err != nil {
		return nil, apierr.Internal("list opportunities", err)
	}
	return s.views(ctx, opps)
}

// Page is one title-ordered browse page.
type Page struct {
	Opportunities []View `json:"opportunities"`
	HasPrev       bool   `json:"has_prev"`
	HasNext       bool   `json:"has_next"`
	PrevCursor    string `json:"prev_cursor,omitempty"`
	NextCursor    string `json:"next_cursor,omitempty"`
}

// Browse returns one page of opportunities matching f ordered by folded title.
// f.Limit is ignored; p.Size controls the page length.
func (s *Service) Browse(ctx context.Context, f opportunitystore.Filter, p paging.Params) (Page, error) {
	f.Limit = 0
	ks := paging.Configure(p)
	opps, err := s.opps.FindPage(ctx, f, ks.Window("title_ci"), ks.FindOptions("title_ci"))
	if err != nil {
		return Page{}, apierr.Internal("browse opportunities", err)
	}
	res := paging.TrimPage(&opps, p)
	if ks.Direction == paging.Backward {
		paging.Reverse(opps)
	}

	views, err := s.views(ctx, opps)
	if err != nil {
		return Page{}, err
	}
	page := Page{Opportunities: views, HasPrev: res.HasPrev, HasNext: res.HasNext}
	prev, next := paging.BuildCursors(opps,
		func(o models.Opportunity) string { return o.TitleCI },
		func(o models.Opportunity) primitive.ObjectID { return o.ID },
	)
	if page.HasPrev {
		page.PrevCursor = prev
	}
	if page.HasNext {
		page.NextCursor = next
	}
	return page, nil
}

// views joins each opportunity with its provider.
func (s *Service) views(ctx context.Context, opps []models.Opportunity) ([]View, error) {
	ids := make([]primitive.ObjectID, 0, len(opps))
	for _, o := range opps {
		ids = append(ids, o.ProviderID)
	}
	provs, err := s.provs.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apierr.Internal("load providers", err)
	}
	out := make([]View, 0, len(opps))
	for _, o := range opps {
		if p, ok := provs[o.ProviderID]; ok {
			out = append(out, newView(o, &p))
		} else {
			out = append(out, newView(o, nil))
		}
	}
	return out, nil
}
