// Package seed loads demo accounts, profiles, and opportunities from YAML.
//
// Applying a file twice is safe: accounts are matched by email and
// opportunities by provider and title, and anything already present is left
// untouched.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	providerstore "github.com/dalemusser/greenreach/internal/app/store/providers"
	opportunitystore "github.com/dalemusser/greenreach/internal/app/store/opportunities"
	userstore "github.com/dalemusser/greenreach/internal/app/store/users"
	volunteerstore "github.com/dalemusser/greenreach/internal/app/store/volunteers"
	"github.com/dalemusser/greenreach/internal/app/system/identity"
	"github.com/dalemusser/greenreach/internal/app/workflow/opportunities"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Account struct {
	FullName string `yaml:"full_name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type Provider struct {
	Account          `yaml:",inline"`
	OrganizationName string        `yaml:"organization_name"`
	Description      string        `yaml:"description"`
	Website          string        `yaml:"website"`
	Opportunities    []Opportunity `yaml:"opportunities"`
}

type Opportunity struct {
	Title              string     `yaml:"title"`
	Description        string     `yaml:"description"`
	Type               string     `yaml:"type"`
	Categories         []string   `yaml:"categories"`
	VolunteersRequired int        `yaml:"volunteers_required"`
	IsPaid             bool       `yaml:"is_paid"`
	Compensation       string     `yaml:"compensation"`
	Location           string     `yaml:"location"`
	StartDate          time.Time  `yaml:"start_date"`
	EndDate            time.Time  `yaml:"end_date"`
	TimeCommitment     string     `yaml:"time_commitment"`
	Deadline           *time.Time `yaml:"application_deadline"`
}

type Volunteer struct {
	Account      `yaml:",inline"`
	Phone        string   `yaml:"phone"`
	Location     string   `yaml:"location"`
	Interests    []string `yaml:"interests"`
	Skills       []string `yaml:"skills"`
	Availability string   `yaml:"availability"`
	Bio          string   `yaml:"bio"`
}

// File is the top-level seed document.
type File struct {
	Admins     []Account   `yaml:"admins"`
	Providers  []Provider  `yaml:"providers"`
	Volunteers []Volunteer `yaml:"volunteers"`
}

// Result counts what Apply created.
type Result struct {
	Users         int
	Providers     int
	Volunteers    int
	Opportunities int
	Skipped       int
}

// Load decodes a seed file. Unknown keys are rejected.
func Load(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, errors.New("seed file is empty")
		}
		return File{}, fmt.Errorf("decode seed file: %w", err)
	}
	return f, nil
}

type seeder struct {
	users *userstore.Store
	provs *providerstore.Store
	vols  *volunteerstore.Store
	opps  *opportunitystore.Store
	svc   *opportunities.Service
	log   *zap.Logger
	res   Result
}

// Apply writes the contents of f to db.
func Apply(ctx context.Context, db *mongo.Database, f File, logger *zap.Logger) (Result, error) {
	s := &seeder{
		users: userstore.New(db),
		provs: providerstore.New(db),
		vols:  volunteerstore.New(db),
		opps:  opportunitystore.New(db),
		svc:   opportunities.New(db, nil, logger),
		log:   logger,
	}
	for _, a := range f.Admins {
		if _, _, err := s.account(ctx, a, identity.RoleAdmin); err != nil {
			return s.res, err
		}
	}
	for _, p := range f.Providers {
		if err := s.provider(ctx, p); err != nil {
			return s.res, err
		}
	}
	for _, v := range f.Volunteers {
		if err := s.volunteer(ctx, v); err != nil {
			return s.res, err
		}
	}
	return s.res, nil
}

// account returns the user for a, creating it when the email is new.
func (s *seeder) account(ctx context.Context, a Account, role identity.Role) (models.User, bool, error) {
	u, err := s.users.Create(ctx, models.User{FullName: a.FullName, Email: a.Email, Role: role.String()}, a.Password)
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		u, err = s.users.GetByEmail(ctx, a.Email)
		if err != nil {
			return models.User{}, false, fmt.Errorf("load existing %s: %w", a.Email, err)
		}
		if u.Role != role.String() {
			return models.User{}, false, fmt.Errorf("%s already exists as %s, not %s", a.Email, u.Role, role)
		}
		s.res.Skipped++
		return u, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("create %s: %w", a.Email, err)
	}
	s.res.Users++
	s.log.Info("seeded user", zap.String("email", u.Email), zap.String("role", u.Role))
	return u, true, nil
}

func (s *seeder) provider(ctx context.Context, p Provider) error {
	u, _, err := s.account(ctx, p.Account, identity.RoleProvider)
	if err != nil {
		return err
	}
	prov, err := s.provs.GetByUserID(ctx, u.ID)
	if errors.Is(err, providerstore.ErrNotFound) {
		prov, err = s.provs.Create(ctx, models.Provider{
			UserID:           u.ID,
			OrganizationName: p.OrganizationName,
			Description:      p.Description,
			Website:          p.Website,
		})
		if err == nil {
			s.res.Providers++
		}
	}
	if err != nil {
		return fmt.Errorf("provider profile for %s: %w", p.Email, err)
	}

	existing, err := s.opps.Find(ctx, opportunitystore.Filter{ProviderID: &prov.ID})
	if err != nil {
		return fmt.Errorf("list opportunities for %s: %w", p.Email, err)
	}
	titles := make(map[string]bool, len(existing))
	for _, o := range existing {
		titles[o.TitleCI] = true
	}

	caller := identity.Identity{UserID: u.ID, Role: identity.RoleProvider, Name: u.FullName}
	for _, o := range p.Opportunities {
		if titles[text.Fold(o.Title)] {
			s.res.Skipped++
			continue
		}
		in := opportunities.Input{
			Title:              o.Title,
			Description:        o.Description,
			Type:               o.Type,
			Categories:         o.Categories,
			VolunteersRequired: o.VolunteersRequired,
			IsPaid:             o.IsPaid,
			Compensation:       o.Compensation,
			Schedule: opportunities.ScheduleInput{
				Location:            o.Location,
				StartDate:           o.StartDate,
				EndDate:             o.EndDate,
				TimeCommitment:      o.TimeCommitment,
				ApplicationDeadline: o.Deadline,
			},
		}
		if _, err := s.svc.Create(ctx, caller, in); err != nil {
			return fmt.Errorf("opportunity %q: %w", o.Title, err)
		}
		s.res.Opportunities++
	}
	return nil
}

func (s *seeder) volunteer(ctx context.Context, v Volunteer) error {
	u, _, err := s.account(ctx, v.Account, identity.RoleVolunteer)
	if err != nil {
		return err
	}
	if _, err := s.vols.GetByUserID(ctx, u.ID); err == nil {
		return nil
	} else if !errors.Is(err, volunteerstore.ErrNotFound) {
		return fmt.Errorf("load volunteer %s: %w", v.Email, err)
	}

	if _, err := s.vols.Create(ctx, models.Volunteer{UserID: u.ID, FullName: u.FullName}); err != nil {
		return fmt.Errorf("create volunteer %s: %w", v.Email, err)
	}
	fields := volunteerstore.StepFields{
		FullName:     u.FullName,
		Phone:        v.Phone,
		Location:     v.Location,
		Interests:    v.Interests,
		Skills:       v.Skills,
		Availability: v.Availability,
		Bio:          v.Bio,
	}
	// Only steps with content are marked done, so a sparse entry leaves an
	// incomplete profile behind.
	steps := []bool{true, len(v.Interests) > 0 || len(v.Skills) > 0, v.Availability != ""}
	for i, ok := range steps {
		if !ok {
			continue
		}
		if err := s.vols.SetStep(ctx, u.ID, i+1, fields); err != nil {
			return fmt.Errorf("volunteer %s step %d: %w", v.Email, i+1, err)
		}
	}
	s.res.Volunteers++
	return nil
}
