// internal/app/system/workers/reconciler.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	opportunitystore "github.com/dalemusser/greenreach/internal/app/store/opportunities"
	volunteerstore "github.com/dalemusser/greenreach/internal/app/store/volunteers"
	"github.com/dalemusser/greenreach/internal/app/system/auditlog"
	"github.com/dalemusser/greenreach/internal/app/system/metrics"
	"github.com/dalemusser/greenreach/internal/domain/models"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Repair actions recorded in metrics and the audit log.
const (
	RepairPushMirror     = "push_mirror"
	RepairSetMirror      = "set_mirror_status"
	RepairPullMirror     = "pull_mirror"
	RepairPullCanonical  = "pull_canonical"
	RepairPullVolunteer  = "pull_volunteer_mirrors"
	DefaultReconcileSpec = "@every 15m"
)

// Report summarizes one reconcile pass.
type Report struct {
	Volunteers    int
	Opportunities int
	Missing       int
	Orphans       int
	Mismatches    int
	Dangling      int
	Repaired      int
	Duration      time.Duration
}

func (r Report) Anomalies() int {
	return r.Missing + r.Orphans + r.Mismatches + r.Dangling
}

// Reconciler brings opportunity applicant mirrors back in line with the
// canonical entries held on volunteers. The volunteer side always wins.
type Reconciler struct {
	vols  *volunteerstore.Store
	opps  *opportunitystore.Store
	audit *auditlog.Logger
	log   *zap.Logger

	spec    string
	timeout time.Duration

	mu   sync.Mutex // serializes passes
	cron *cron.Cron

	afterMirrorPush func(ctx context.Context, oppID, volID primitive.ObjectID)
}

// NewReconciler builds a reconciler over db. spec is a robfig/cron schedule
// ("@every 15m", "0 3 * * *"); empty selects DefaultReconcileSpec.
func NewReconciler(db *mongo.Database, al *auditlog.Logger, logger *zap.Logger, spec string, timeout time.Duration) *Reconciler {
	if spec == "" {
		spec = DefaultReconcileSpec
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Reconciler{
		vols:    volunteerstore.New(db),
		opps:    opportunitystore.New(db),
		audit:   al,
		log:     logger,
		spec:    spec,
		timeout: timeout,
	}
}

// Start schedules periodic passes. It returns an error for an invalid schedule.
func (r *Reconciler) Start() error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{r.log.Sugar()})))
	if _, err := c.AddFunc(r.spec, r.scheduled); err != nil {
		return fmt.Errorf("reconcile schedule %q: %w", r.spec, err)
	}
	r.cron = c
	c.Start()
	r.log.Info("mirror reconciler started", zap.String("schedule", r.spec))
	return nil
}

// Stop halts scheduling and waits for a running pass to finish.
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.cron = nil
	r.log.Info("mirror reconciler stopped")
}

func (r *Reconciler) scheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if _, err := r.RunOnce(ctx); err != nil {
		r.log.Error("mirror reconcile failed", zap.Error(err))
	}
}

type canonicalRef struct {
	volunteerID primitive.ObjectID
	entry       models.AppliedOpportunity
}

// RunOnce performs a single pass.
//
// Every repair re-reads the volunteer first so that submissions, transitions,
// and withdrawals committed during the pass are never undone.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	var rep Report
	err := r.run(ctx, &rep)
	rep.Duration = time.Since(start)
	metrics.RecordReconcile(rep.Duration, err == nil)

	fields := []zap.Field{
		zap.Int("volunteers", rep.Volunteers),
		zap.Int("opportunities", rep.Opportunities),
		zap.Int("anomalies", rep.Anomalies()),
		zap.Int("repaired", rep.Repaired),
		zap.Duration("duration", rep.Duration),
	}
	switch {
	case err != nil:
		r.log.Error("mirror reconcile aborted", append(fields, zap.Error(err))...)
	case rep.Anomalies() > 0:
		r.log.Warn("mirror reconcile repaired anomalies", fields...)
	default:
		r.log.Debug("mirror reconcile clean", fields...)
	}
	return rep, err
}

func (r *Reconciler) run(ctx context.Context, rep *Report) error {
	// opportunity id -> volunteer id -> canonical entry
	canonical := make(map[primitive.ObjectID]map[primitive.ObjectID]canonicalRef)
	err := r.vols.ForEach(ctx, func(v models.Volunteer) error {
		rep.Volunteers++
		for _, a := range v.AppliedOpportunities {
			byVol, ok := canonical[a.OpportunityID]
			if !ok {
				byVol = make(map[primitive.ObjectID]canonicalRef)
				canonical[a.OpportunityID] = byVol
			}
			byVol[v.ID] = canonicalRef{volunteerID: v.ID, entry: a}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan volunteers: %w", err)
	}

	err = r.opps.ForEach(ctx, func(o models.Opportunity) error {
		rep.Opportunities++
		want := canonical[o.ID]
		delete(canonical, o.ID)

		for _, m := range o.Applicants {
			ref, ok := want[m.VolunteerID]
			if !ok {
				rep.Orphans++
				metrics.RecordMirrorAnomaly(metrics.AnomalyOrphanMirror)
				if err := r.fixOrphan(ctx, o.ID, m, rep); err != nil {
					return err
				}
				continue
			}
			delete(want, m.VolunteerID)
			if m.Status != ref.entry.Status {
				rep.Mismatches++
				metrics.RecordMirrorAnomaly(metrics.AnomalyStatusMismatch)
				if err := r.fixStatus(ctx, o.ID, m.VolunteerID, rep); err != nil {
					return err
				}
			}
		}
		for volID := range want {
			rep.Missing++
			metrics.RecordMirrorAnomaly(metrics.AnomalyMissingMirror)
			if err := r.fixMissing(ctx, o.ID, volID, rep); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan opportunities: %w", err)
	}

	// Whatever is left references opportunities the scan never saw.
	return r.fixDangling(ctx, canonical, rep)
}

// fixOrphan removes a mirror entry unless the volunteer now holds a canonical
// entry. When the volunteer profile is gone, its mirrors are removed everywhere.
func (r *Reconciler) fixOrphan(ctx context.Context, oppID primitive.ObjectID, m models.Applicant, rep *Report) error {
	exists, err := r.vols.Exists(ctx, m.VolunteerID)
	if err != nil {
		return fmt.Errorf("reload volunteer: %w", err)
	}
	if !exists {
		n, err := r.opps.PullVolunteerEverywhere(ctx, m.VolunteerID)
		if err != nil {
			return fmt.Errorf("pull volunteer mirrors: %w", err)
		}
		if n > 0 {
			r.repaired(ctx, oppID, m.VolunteerID, RepairPullVolunteer, rep)
		}
		return nil
	}

	entry, found, err := r.currentEntry(ctx, m.VolunteerID, oppID)
	if err != nil {
		return err
	}
	if found {
		if entry.Status == m.Status {
			return nil
		}
		return r.setMirror(ctx, oppID, m.VolunteerID, entry.Status, rep)
	}
	err = r.opps.PullApplicant(ctx, oppID, m.VolunteerID)
	if errors.Is(err, opportunitystore.ErrApplicantNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pull orphan mirror: %w", err)
	}
	r.repaired(ctx, oppID, m.VolunteerID, RepairPullMirror, rep)
	return nil
}

// fixStatus copies the current canonical status onto the mirror.
func (r *Reconciler) fixStatus(ctx context.Context, oppID, volID primitive.ObjectID, rep *Report) error {
	entry, found, err := r.currentEntry(ctx, volID, oppID)
	if err != nil || !found {
		return err
	}
	return r.setMirror(ctx, oppID, volID, entry.Status, rep)
}

func (r *Reconciler) setMirror(ctx context.Context, oppID, volID primitive.ObjectID, st models.ApplicationStatus, rep *Report) error {
	err := r.opps.SetApplicantStatus(ctx, oppID, volID, st)
	if errors.Is(err, opportunitystore.ErrApplicantNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("set mirror status: %w", err)
	}
	r.repaired(ctx, oppID, volID, RepairSetMirror, rep)
	return nil
}

// fixMissing recreates a mirror entry from the canonical one.
func (r *Reconciler) fixMissing(ctx context.Context, oppID, volID primitive.ObjectID, rep *Report) error {
	entry, found, err := r.currentEntry(ctx, volID, oppID)
	if err != nil || !found {
		return err
	}
	err = r.opps.PushApplicant(ctx, oppID, models.Applicant{
		ID:          primitive.NewObjectID(),
		VolunteerID: volID,
		Status:      entry.Status,
		AppliedAt:   entry.AppliedAt,
	})
	switch {
	case errors.Is(err, opportunitystore.ErrAlreadyApplied):
		return nil
	case errors.Is(err, opportunitystore.ErrNotFound):
		return r.pullCanonical(ctx, []primitive.ObjectID{oppID}, volID, rep)
	case err != nil:
		return fmt.Errorf("push missing mirror: %w", err)
	}
	if r.afterMirrorPush != nil {
		r.afterMirrorPush(ctx, oppID, volID)
	}

	// Without transactions a submit that failed half way undoes its canonical
	// entry after our read. Check again so the new mirror is not left orphaned.
	_, found, err = r.currentEntry(ctx, volID, oppID)
	if err != nil {
		return err
	}
	if !found {
		err := r.opps.PullApplicant(ctx, oppID, volID)
		if err != nil && !errors.Is(err, opportunitystore.ErrApplicantNotFound) {
			return fmt.Errorf("pull stale mirror: %w", err)
		}
		return nil
	}
	r.repaired(ctx, oppID, volID, RepairPushMirror, rep)
	return nil
}

// fixDangling removes canonical entries whose opportunity no longer exists.
func (r *Reconciler) fixDangling(ctx context.Context, left map[primitive.ObjectID]map[primitive.ObjectID]canonicalRef, rep *Report) error {
	if len(left) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, 0, len(left))
	for id := range left {
		ids = append(ids, id)
	}
	existing, err := r.opps.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load dangling opportunities: %w", err)
	}
	var gone []primitive.ObjectID
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			gone = append(gone, id)
		}
	}
	if len(gone) == 0 {
		return nil
	}
	if _, err := r.vols.PullOpportunities(ctx, gone); err != nil {
		return fmt.Errorf("pull dangling entries: %w", err)
	}
	for _, id := range gone {
		for volID := range left[id] {
			rep.Dangling++
			metrics.RecordMirrorAnomaly(metrics.AnomalyDangling)
			r.repaired(ctx, id, volID, RepairPullCanonical, rep)
		}
	}
	return nil
}

func (r *Reconciler) pullCanonical(ctx context.Context, oppIDs []primitive.ObjectID, volID primitive.ObjectID, rep *Report) error {
	if _, err := r.vols.PullOpportunities(ctx, oppIDs); err != nil {
		return fmt.Errorf("pull dangling entries: %w", err)
	}
	for _, id := range oppIDs {
		rep.Dangling++
		metrics.RecordMirrorAnomaly(metrics.AnomalyDangling)
		r.repaired(ctx, id, volID, RepairPullCanonical, rep)
	}
	return nil
}

// currentEntry re-reads the volunteer's canonical entry for an opportunity.
func (r *Reconciler) currentEntry(ctx context.Context, volID, oppID primitive.ObjectID) (models.AppliedOpportunity, bool, error) {
	v, err := r.vols.GetByID(ctx, volID)
	if errors.Is(err, volunteerstore.ErrNotFound) {
		return models.AppliedOpportunity{}, false, nil
	}
	if err != nil {
		return models.AppliedOpportunity{}, false, fmt.Errorf("reload volunteer: %w", err)
	}
	a, ok := v.ApplicationFor(oppID)
	return a, ok, nil
}

func (r *Reconciler) repaired(ctx context.Context, oppID, volID primitive.ObjectID, action string, rep *Report) {
	rep.Repaired++
	metrics.RecordMirrorRepair(action)
	r.audit.MirrorRepaired(ctx, oppID, volID, action)
	r.log.Info("mirror repaired",
		zap.String("action", action),
		zap.String("opportunity_id", oppID.Hex()),
		zap.String("volunteer_id", volID.Hex()))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
