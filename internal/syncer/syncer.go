// Package syncer reconciles the in-memory checklist with the local
// cache and the remote store. All mutations go through the Reconciler
// so every change lands in the cache immediately and reaches the
// remote store on the periodic flush, on completion, or on demand.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/apexestimating/fieldcheck/internal/checklist"
	"github.com/apexestimating/fieldcheck/internal/localcache"
	"github.com/apexestimating/fieldcheck/internal/remotestore"
)

var ErrNoChecklist = errors.New("no active checklist")

// Status is the reconciler's cloud state. Synced is the initial state
// so a fresh process with nothing to flush reports clean.
type Status string

const (
	StatusSynced  Status = "synced"
	StatusSyncing Status = "syncing"
	StatusOffline Status = "offline"
	StatusError   Status = "error"
)

const (
	defaultSyncInterval = 30 * time.Second
	maxErrorSummary     = 120
)

type Logger interface {
	Printf(format string, args ...any)
}

type Options struct {
	Store    remotestore.Store
	Cache    localcache.Cache
	Session  Session
	Template []checklist.Item
	Rules    []checklist.ConditionalRule

	// Interval between periodic flush attempts. Defaults to 30s.
	Interval time.Duration
	Clock    clockwork.Clock
	Logger   Logger
}

type Reconciler struct {
	store    remotestore.Store
	cache    localcache.Cache
	session  Session
	template []checklist.Item
	rules    []checklist.ConditionalRule
	interval time.Duration
	clock    clockwork.Clock
	logger   Logger

	mu        sync.Mutex
	current   *checklist.Checklist
	status    Status
	lastError string
	pending   *checklist.Checklist
	inFlight  bool
}

func NewReconciler(opts Options) (*Reconciler, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("remote store is required")
	}
	if opts.Cache == nil {
		return nil, fmt.Errorf("local cache is required")
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("session is required")
	}
	template := opts.Template
	if len(template) == 0 {
		template = checklist.Template()
	}
	rules := opts.Rules
	if rules == nil {
		rules = checklist.DefaultRules()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reconciler{
		store:    opts.Store,
		cache:    opts.Cache,
		session:  opts.Session,
		template: append([]checklist.Item(nil), template...),
		rules:    rules,
		interval: interval,
		clock:    clock,
		logger:   opts.Logger,
		status:   StatusSynced,
	}, nil
}

// Run drives the periodic flush until ctx is canceled. Sign-in
// transitions trigger an immediate flush so work queued while signed
// out reaches the remote store as soon as auth returns.
func (r *Reconciler) Run(ctx context.Context) error {
	kicks := make(chan struct{}, 1)
	unsubscribe := r.session.OnChange(func(user User, signedIn bool) {
		if signedIn {
			select {
			case kicks <- struct{}{}:
			default:
			}
			return
		}
		r.mu.Lock()
		r.status = StatusOffline
		r.mu.Unlock()
	})
	defer unsubscribe()

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-kicks:
		case <-ticker.Chan():
		}
		if err := r.SyncNow(ctx); err != nil {
			r.logf("sync attempt failed: %v", err)
		}
	}
}

// Load establishes the active checklist. With forceNew the cache is
// cleared and a fresh checklist started. Otherwise the newest cloud
// copy wins, then the local cache, then a fresh checklist.
func (r *Reconciler) Load(ctx context.Context, forceNew bool) (*checklist.Checklist, error) {
	now := r.clock.Now()
	if forceNew {
		if err := r.cache.Clear(); err != nil {
			r.logf("cache clear failed: %v", err)
		}
		fresh := checklist.New(r.template, now, "New checklist started")
		return r.adopt(fresh), nil
	}

	user, signedIn, err := r.session.CurrentUser(ctx)
	if err != nil {
		r.logf("session lookup failed: %v", err)
	}
	if err == nil && signedIn {
		remote, loadErr := r.store.LoadLatest(ctx, user.ID)
		if loadErr == nil && remote != nil {
			loaded := remote.AddNote("Checklist loaded from cloud", now)
			r.mu.Lock()
			r.status = StatusSynced
			r.lastError = ""
			r.mu.Unlock()
			return r.adopt(loaded), nil
		}
		if loadErr != nil {
			r.logf("cloud load failed, falling back to local cache: %v", loadErr)
			r.setFailure(StatusOffline, loadErr)
		}
	}

	cached, cacheErr := r.cache.Load()
	if cacheErr != nil {
		r.logf("cache load failed: %v", cacheErr)
	}
	if cacheErr == nil && cached != nil {
		resumed := cached.AddNote("Checklist resumed from local save", now)
		return r.adopt(resumed), nil
	}

	fresh := checklist.New(r.template, now, "Checklist started")
	return r.adopt(fresh), nil
}

// ReloadFromCache adopts the cache file as the active checklist and
// queues it for the next flush. It serves file-watch setups where an
// external process edits the saved state. Every save made through the
// reconciler stamps LastSaved, so only cache contents stamped strictly
// newer than the in-memory copy are adopted; events raised by the
// reconciler's own writes (or by a stale, already superseded save)
// leave the current state and the pending slot untouched. External
// writers must therefore stamp lastSaved when they rewrite the file.
func (r *Reconciler) ReloadFromCache() (*checklist.Checklist, error) {
	cached, err := r.cache.Load()
	if err != nil {
		return nil, err
	}
	if cached == nil {
		return r.Current(), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil && !stampedAfter(cached.LastSaved, r.current.LastSaved) {
		return r.current, nil
	}
	r.current = cached
	r.pending = cached
	return cached, nil
}

// stampedAfter reports whether a is a strictly newer save stamp than b.
func stampedAfter(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	return b == nil || a.After(*b)
}

// LoadReview replaces the active checklist with a saved review.
func (r *Reconciler) LoadReview(ctx context.Context, id string) (*checklist.Checklist, error) {
	user, signedIn, err := r.session.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !signedIn {
		return nil, remotestore.ErrNotConfigured
	}
	review, err := r.store.LoadByID(ctx, id, user.ID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, nil
	}
	loaded := review.AddNote("Checklist loaded from cloud", r.clock.Now())
	return r.adopt(loaded), nil
}

func (r *Reconciler) ListReviews(ctx context.Context) ([]remotestore.LocationGroup, error) {
	user, signedIn, err := r.session.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if !signedIn {
		return nil, remotestore.ErrNotConfigured
	}
	return r.store.ListSummaries(ctx, user.ID)
}

func (r *Reconciler) DeleteReview(ctx context.Context, id string) error {
	user, signedIn, err := r.session.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !signedIn {
		return remotestore.ErrNotConfigured
	}
	return r.store.Remove(ctx, id, user.ID)
}

// SignOut ends the session. Queued work stays in the pending slot and
// flushes on the next sign-in.
func (r *Reconciler) SignOut(ctx context.Context) error {
	return r.session.SignOut(ctx)
}

func (r *Reconciler) Current() *checklist.Checklist {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// State reports the sync status and, for StatusError, a short
// operator-readable summary of the last failure.
func (r *Reconciler) State() (Status, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status, r.lastError
}

func (r *Reconciler) SetClient(ctx context.Context, client checklist.Client) (*checklist.Checklist, error) {
	return r.mutate(ctx, func(c *checklist.Checklist, now time.Time) (*checklist.Checklist, bool) {
		return c.SetClient(client, now), false
	})
}

func (r *Reconciler) SetLocationNumber(ctx context.Context, value string) (*checklist.Checklist, error) {
	return r.mutate(ctx, func(c *checklist.Checklist, now time.Time) (*checklist.Checklist, bool) {
		return c.SetLocationNumber(value), false
	})
}

func (r *Reconciler) AddNote(ctx context.Context, message string) (*checklist.Checklist, error) {
	return r.mutate(ctx, func(c *checklist.Checklist, now time.Time) (*checklist.Checklist, bool) {
		return c.AddNote(message, now), false
	})
}

func (r *Reconciler) ResetChecklist(ctx context.Context) (*checklist.Checklist, error) {
	return r.mutate(ctx, func(c *checklist.Checklist, now time.Time) (*checklist.Checklist, bool) {
		return c.Reset(r.template, now), false
	})
}

// Answer records an answer. Completing the final visible item flushes
// to the remote store immediately rather than waiting for the ticker.
func (r *Reconciler) Answer(ctx context.Context, itemID string, answer checklist.Answer) (*checklist.Checklist, bool, error) {
	var completed bool
	updated, err := r.mutate(ctx, func(c *checklist.Checklist, now time.Time) (*checklist.Checklist, bool) {
		next, done := c.AnswerItem(itemID, answer, r.rules, now)
		completed = done
		return next, done
	})
	return updated, completed, err
}

type mutationFunc func(c *checklist.Checklist, now time.Time) (next *checklist.Checklist, flushNow bool)

func (r *Reconciler) mutate(ctx context.Context, fn mutationFunc) (*checklist.Checklist, error) {
	r.mu.Lock()
	if r.current == nil {
		r.mu.Unlock()
		return nil, ErrNoChecklist
	}
	now := r.clock.Now()
	next, flushNow := fn(r.current, now)
	next = next.StampSaved(now)
	r.current = next
	r.pending = next
	r.mu.Unlock()

	if err := r.cache.Save(next); err != nil {
		r.logf("cache save failed: %v", err)
	}
	if flushNow {
		if err := r.SyncNow(ctx); err != nil {
			r.logf("completion sync failed: %v", err)
		}
	}
	return next, nil
}

// SyncNow flushes the pending snapshot. Exactly one attempt runs at a
// time; a call that finds one in flight returns immediately and the
// snapshot it would have sent stays in the pending slot for the next
// cycle.
func (r *Reconciler) SyncNow(ctx context.Context) error {
	r.mu.Lock()
	if r.inFlight || r.pending == nil {
		r.mu.Unlock()
		return nil
	}
	snapshot := r.pending
	r.pending = nil
	r.inFlight = true
	r.status = StatusSyncing
	r.mu.Unlock()

	err := r.attempt(ctx, snapshot)

	r.mu.Lock()
	r.inFlight = false
	r.mu.Unlock()
	return err
}

func (r *Reconciler) attempt(ctx context.Context, snapshot *checklist.Checklist) error {
	user, signedIn, err := r.session.CurrentUser(ctx)
	if err != nil {
		r.requeue(snapshot)
		r.setFailure(StatusOffline, err)
		return err
	}
	if !signedIn {
		r.requeue(snapshot)
		r.mu.Lock()
		r.status = StatusOffline
		r.mu.Unlock()
		return nil
	}

	if err := r.store.Ping(ctx); err != nil {
		r.requeue(snapshot)
		if errors.Is(err, remotestore.ErrNotConfigured) {
			r.setFailure(StatusError, err)
		} else {
			r.setFailure(StatusOffline, err)
		}
		return err
	}

	id, err := r.store.Upsert(ctx, snapshot, user.ID)
	if err != nil {
		r.requeue(snapshot)
		r.setFailure(StatusError, err)
		return err
	}

	now := r.clock.Now()
	r.mu.Lock()
	r.status = StatusSynced
	r.lastError = ""
	var stamped *checklist.Checklist
	if r.current != nil {
		stamped = r.current.WithID(id).StampSaved(now)
		r.current = stamped
	}
	r.mu.Unlock()

	if stamped != nil {
		if err := r.cache.Save(stamped); err != nil {
			r.logf("cache save failed: %v", err)
		}
	}
	return nil
}

// requeue puts a failed snapshot back unless a newer one arrived
// while the attempt was running.
func (r *Reconciler) requeue(snapshot *checklist.Checklist) {
	r.mu.Lock()
	if r.pending == nil {
		r.pending = snapshot
	}
	r.mu.Unlock()
}

func (r *Reconciler) adopt(c *checklist.Checklist) *checklist.Checklist {
	r.mu.Lock()
	r.current = c
	r.pending = c
	r.mu.Unlock()
	if err := r.cache.Save(c); err != nil {
		r.logf("cache save failed: %v", err)
	}
	return c
}

func (r *Reconciler) setFailure(status Status, err error) {
	r.mu.Lock()
	r.status = status
	r.lastError = summarizeError(err)
	r.mu.Unlock()
}

func (r *Reconciler) logf(format string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}

func summarizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.TrimSpace(err.Error())
	if len(msg) > maxErrorSummary {
		msg = msg[:maxErrorSummary] + "..."
	}
	return msg
}
