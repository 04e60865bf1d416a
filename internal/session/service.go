// Package session implements the Session Manager (SPEC_FULL.md §4.3): the
// session lifecycle state machine, its public operations, and the building
// block ("poll") the Scheduler's monitoring loop drives.
package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/opencode-ai/mcp-gateway/internal/notify"
	"github.com/opencode-ai/mcp-gateway/internal/storage"
	"github.com/opencode-ai/mcp-gateway/internal/upstream"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

const storageKind = "session"

// Service owns the session state machine and its persisted records.
// Record mutation happens under a per-session lock so readers always see a
// consistent snapshot and activity appends are atomic, per SPEC_FULL.md
// §4.3's concurrency contract.
type Service struct {
	store    storage.Backend
	upstream upstream.Client

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewService creates a session service backed by store and upstream.
func NewService(store storage.Backend, upstreamClient upstream.Client) *Service {
	return &Service{
		store:    store,
		upstream: upstreamClient,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockFor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func (s *Service) load(ctx context.Context, id string) (*record, error) {
	var rec record
	if err := s.store.Get(ctx, []string{storageKind, id}, &rec); err != nil {
		if err == storage.ErrNotFound {
			return nil, fmt.Errorf("session %s: %w", id, storage.ErrNotFound)
		}
		return nil, err
	}
	return &rec, nil
}

func (s *Service) save(ctx context.Context, rec *record) error {
	rec.UpdatedAt = time.Now()
	return s.store.Put(ctx, []string{storageKind, rec.ID}, rec)
}

// Create validates cfg and opens a new session with the upstream provider,
// per the create() contract in SPEC_FULL.md §4.3.
func (s *Service) Create(ctx context.Context, cfg types.SessionConfig) (*types.Session, error) {
	if err := validateCreateConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.Branch == "" {
		provider, owner, repo := parseSource(cfg.Source)
		source := types.Source{Raw: cfg.Source, Provider: provider, Owner: owner, Repo: repo}
		branch, err := s.upstream.ResolveDefaultBranch(ctx, source)
		if err != nil {
			return nil, err
		}
		cfg.Branch = branch
	}

	remote, err := s.upstream.CreateSession(ctx, cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &record{
		Session: types.Session{
			ID:         ulid.Make().String(),
			Status:     mapRemoteStatus(remote.Status),
			CreatedAt:  now,
			UpdatedAt:  now,
			Config:     cfg,
			Plan:       remote.Plan,
			Activities: []types.Activity{newActivity("created", "session created")},
		},
		RemoteID: remote.RemoteID,
	}

	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	notify.Publish(notify.Event{Type: notify.SessionCreated, Payload: rec.Session})
	return &rec.Session, nil
}

// Get retrieves a session by ID.
func (s *Service) Get(ctx context.Context, id string) (*types.Session, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rec.Session, nil
}

// List returns sessions matching filter.
func (s *Service) List(ctx context.Context, filter types.SessionFilter) ([]*types.Session, error) {
	ids, err := s.store.List(ctx, []string{storageKind})
	if err != nil {
		return nil, err
	}

	sessions := make([]*types.Session, 0, len(ids))
	for _, id := range ids {
		rec, err := s.load(ctx, id)
		if err != nil {
			continue
		}
		if !matchesState(rec.Status, filter.State) {
			continue
		}
		sessions = append(sessions, &rec.Session)
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].CreatedAt.Before(sessions[j].CreatedAt) })

	if filter.Limit > 0 && len(sessions) > filter.Limit {
		sessions = sessions[:filter.Limit]
	}
	return sessions, nil
}

// SendMessage forwards a follow-up message to the upstream session and
// records it as an activity.
func (s *Service) SendMessage(ctx context.Context, id, message string) (*types.Session, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status.IsTerminal() {
		return nil, fmt.Errorf("session %s is terminal: %w", id, errSessionTerminal)
	}

	if err := s.upstream.SendMessage(ctx, rec.RemoteID, message); err != nil {
		return nil, err
	}

	rec.Activities = append(rec.Activities, newActivity("message", message))
	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	notify.Publish(notify.Event{Type: notify.ActivityAppended, Payload: rec.Session})
	return &rec.Session, nil
}

// ApprovePlan transitions a session from awaiting_approval to executing.
func (s *Service) ApprovePlan(ctx context.Context, id string) (*types.Session, error) {
	return s.transition(ctx, id, types.SessionExecuting, func(rec *record) error {
		return s.upstream.ApprovePlan(ctx, rec.RemoteID)
	}, "plan approved")
}

// Cancel transitions a session to cancelled, regardless of its current
// non-terminal state.
func (s *Service) Cancel(ctx context.Context, id string) (*types.Session, error) {
	return s.transition(ctx, id, types.SessionCancelled, func(rec *record) error {
		return s.upstream.CancelSession(ctx, rec.RemoteID)
	}, "cancelled")
}

// FailTimeout transitions a session to failed with reason "timeout", per
// SPEC_FULL.md §5: the monitoring loop's soft long-poll deadline fails a
// session that shows no observable progress across StuckThreshold, without
// an upstream cancel call (the upstream session may still be running).
func (s *Service) FailTimeout(ctx context.Context, id string) (*types.Session, error) {
	return s.transition(ctx, id, types.SessionFailed, func(rec *record) error {
		rec.Result = &types.Result{Success: false, Error: "timeout"}
		return nil
	}, "failed: timeout")
}

// transition validates the edge, invokes the upstream call, and persists the
// new status plus an activity entry.
func (s *Service) transition(ctx context.Context, id string, to types.SessionStatus, upstreamCall func(*record) error, activityMsg string) (*types.Session, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !types.CanTransition(rec.Status, to) {
		return nil, fmt.Errorf("cannot transition session %s from %s to %s: %w", id, rec.Status, to, errInvalidTransition)
	}

	if err := upstreamCall(rec); err != nil {
		return nil, err
	}

	rec.Status = to
	rec.Activities = append(rec.Activities, newActivity("status", activityMsg))
	if to.IsTerminal() && rec.Result == nil {
		rec.Result = &types.Result{Success: to == types.SessionCompleted}
	}

	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	notify.Publish(notify.Event{Type: notify.SessionUpdated, Payload: rec.Session})
	return &rec.Session, nil
}

// Delete removes a session record. Terminal sessions are normally retained
// for audit; delete is an explicit, deliberate operation.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, []string{storageKind, id}); err != nil {
		return err
	}
	notify.Publish(notify.Event{Type: notify.SessionDeleted, Payload: id})
	return nil
}

// GetActivities returns a session's append-only activity log.
func (s *Service) GetActivities(ctx context.Context, id string) ([]types.Activity, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Activities, nil
}

// TimelineEntry is one activity annotated with the duration since the
// previous activity.
type TimelineEntry struct {
	types.Activity
	SincePrevious time.Duration `json:"sincePrevious"`
}

// Timeline returns activities newest-first with durations between events.
func (s *Service) Timeline(ctx context.Context, id string) ([]TimelineEntry, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	entries := make([]TimelineEntry, len(rec.Activities))
	for i, a := range rec.Activities {
		entry := TimelineEntry{Activity: a}
		if i > 0 {
			entry.SincePrevious = a.Timestamp.Sub(rec.Activities[i-1].Timestamp)
		}
		entries[i] = entry
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })
	return entries, nil
}

// GetDiff renders the unified diff for each file the upstream session
// touched.
func (s *Service) GetDiff(ctx context.Context, id string) ([]types.FileDiff, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	diffs := make([]types.FileDiff, 0, len(rec.RawDiffs))
	for path, d := range rec.RawDiffs {
		diffs = append(diffs, renderDiff(path, d.Before, d.After))
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Path < diffs[j].Path })
	return diffs, nil
}

// Clone creates a new session from an existing one's configuration, with
// optional prompt/title overrides, linked via ParentID.
func (s *Service) Clone(ctx context.Context, id string, promptOverride, titleOverride *string) (*types.Session, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	cfg := rec.Config
	if promptOverride != nil {
		cfg.Prompt = *promptOverride
	}
	if titleOverride != nil {
		cfg.Title = *titleOverride
	}

	cloned, err := s.Create(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cloned.ParentID = id
	clonedRec, err := s.load(ctx, cloned.ID)
	if err != nil {
		return nil, err
	}
	clonedRec.ParentID = id
	if err := s.save(ctx, clonedRec); err != nil {
		return nil, err
	}
	return &clonedRec.Session, nil
}

// Retry re-runs a terminal (completed, failed or cancelled) session's configuration as a new
// session, with an optional prompt override.
func (s *Service) Retry(ctx context.Context, id string, promptOverride *string) (*types.Session, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rec.Status.IsTerminal() {
		return nil, fmt.Errorf("session %s is not terminal: %w", id, errInvalidTransition)
	}
	return s.Clone(ctx, id, promptOverride, nil)
}

// SearchByTitle, SearchByPrompt, and SearchByState implement the fuzzy
// session lookups named in SPEC_FULL.md §4.3.
func (s *Service) SearchByTitle(ctx context.Context, query string, state types.SessionStatus, limit int) ([]*types.Session, error) {
	return s.search(ctx, state, limit, func(rec *record) bool { return matchesQuery(rec.Config.Title, query) })
}

func (s *Service) SearchByPrompt(ctx context.Context, query string, state types.SessionStatus, limit int) ([]*types.Session, error) {
	return s.search(ctx, state, limit, func(rec *record) bool { return matchesQuery(rec.Config.Prompt, query) })
}

func (s *Service) SearchByState(ctx context.Context, state types.SessionStatus, limit int) ([]*types.Session, error) {
	return s.search(ctx, state, limit, func(*record) bool { return true })
}

func (s *Service) search(ctx context.Context, state types.SessionStatus, limit int, match func(*record) bool) ([]*types.Session, error) {
	ids, err := s.store.List(ctx, []string{storageKind})
	if err != nil {
		return nil, err
	}

	var out []*types.Session
	for _, id := range ids {
		rec, err := s.load(ctx, id)
		if err != nil {
			continue
		}
		if !matchesState(rec.Status, state) || !match(rec) {
			continue
		}
		out = append(out, &rec.Session)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// MonitorSnapshot is the aggregate view returned by MonitorAll.
type MonitorSnapshot struct {
	Counts map[types.SessionStatus]int   `json:"counts"`
	IDs    map[types.SessionStatus][]string `json:"ids"`
}

// MonitorAll returns counts per state and the ids in each state.
func (s *Service) MonitorAll(ctx context.Context) (*MonitorSnapshot, error) {
	ids, err := s.store.List(ctx, []string{storageKind})
	if err != nil {
		return nil, err
	}

	snapshot := &MonitorSnapshot{
		Counts: make(map[types.SessionStatus]int),
		IDs:    make(map[types.SessionStatus][]string),
	}
	for _, id := range ids {
		rec, err := s.load(ctx, id)
		if err != nil {
			continue
		}
		snapshot.Counts[rec.Status]++
		snapshot.IDs[rec.Status] = append(snapshot.IDs[rec.Status], rec.ID)
	}
	return snapshot, nil
}

// Poll performs one independent upstream get(id) call and syncs the local
// record, per SPEC_FULL.md §4.3's monitoring loop: "each poll is an
// independent upstream call subject to the Upstream Client's retry/circuit
// rules." The Scheduler drives the polling cadence (P seconds, M attempts);
// this method is the unit of work it calls repeatedly.
func (s *Service) Poll(ctx context.Context, id string) (*types.Session, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status.IsTerminal() {
		return &rec.Session, nil
	}

	remote, err := s.upstream.GetSession(ctx, rec.RemoteID)
	if err != nil {
		return nil, err
	}

	newStatus := mapRemoteStatus(remote.Status)
	changed := newStatus != rec.Status
	rec.Status = newStatus
	if remote.Plan != nil {
		rec.Plan = remote.Plan
	}
	if remote.Result != nil {
		rec.Result = remote.Result
	}
	if remote.PRUrl != "" {
		rec.PRUrl = remote.PRUrl
	}

	if changed {
		rec.Activities = append(rec.Activities, newActivity("status", string(newStatus)))
	}

	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	if changed {
		notify.Publish(notify.Event{Type: notify.SessionUpdated, Payload: rec.Session})
	}
	return &rec.Session, nil
}
