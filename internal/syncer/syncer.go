package syncer

import (
	"context"
	"errors"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"habit21API/internal/auth"
	"habit21API/internal/challenge"
	"habit21API/internal/store"
)

// LocalStore is the device-local slot. Writes never fail from the
// caller's point of view.
type LocalStore interface {
	Put(rec *challenge.Record)
	Get() (*challenge.Record, bool)
	Clear()
}

// RemoteStore is the per-user cloud row. Fetch returns store.ErrNotFound
// for an absent row, anything else is a transport/permission failure.
type RemoteStore interface {
	Upsert(ctx context.Context, userID string, rec *challenge.Record) error
	Fetch(ctx context.Context, userID string) (*challenge.Record, error)
	Delete(ctx context.Context, userID string) error
}

// IdentitySource answers who is signed in right now.
type IdentitySource interface {
	Current() (*auth.Identity, bool)
}

var syncOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "challenge_sync_total",
		Help: "Sync coordinator outcomes by operation and result",
	},
	[]string{"op", "result"},
)

// InitMetrics registers the sync metrics. Call once from main.
func InitMetrics() {
	prometheus.MustRegister(syncOutcomes)
}

// Coordinator decides per operation whether the local slot, the remote
// row, or both are touched, based on the current identity. The local
// slot is the offline source of truth; the remote row becomes
// authoritative the moment a fetch succeeds. Every remote failure
// degrades to local-only, never to a caller-visible error.
type Coordinator struct {
	local    LocalStore
	remote   RemoteStore
	identity IdentitySource
}

func NewCoordinator(local LocalStore, remote RemoteStore, identity IdentitySource) *Coordinator {
	return &Coordinator{local: local, remote: remote, identity: identity}
}

// Load resolves the current record. Anonymous users read the local
// slot. Signed-in users read the remote row; a fetched row overwrites
// the local slot, an absent row triggers a first-sync merge-upload of
// any local record, and a transport error falls back to local data.
func (c *Coordinator) Load(ctx context.Context) (*challenge.Record, bool) {
	id, signedIn := c.currentIdentity()
	if !signedIn {
		rec, ok := c.local.Get()
		return rec, ok
	}

	rec, err := c.remote.Fetch(ctx, id.UserID)
	switch {
	case err == nil:
		// Remote is authoritative once present.
		c.local.Put(rec)
		syncOutcomes.WithLabelValues("load", "remote").Inc()
		return rec, true

	case errors.Is(err, store.ErrNotFound):
		localRec, ok := c.local.Get()
		if !ok {
			syncOutcomes.WithLabelValues("load", "absent").Inc()
			return nil, false
		}
		// First sync after login: push the anonymous progress up.
		if upErr := c.remote.Upsert(ctx, id.UserID, localRec); upErr != nil {
			log.Printf("Coordinator: first-sync upload failed: %v", upErr)
		}
		syncOutcomes.WithLabelValues("load", "merge_upload").Inc()
		return localRec, true

	default:
		log.Printf("Coordinator: remote fetch failed, falling back to local: %v", err)
		syncOutcomes.WithLabelValues("load", "fallback").Inc()
		rec, ok := c.local.Get()
		return rec, ok
	}
}

// Save writes locally first and unconditionally, then mirrors to the
// remote row when signed in. Remote failure is logged only; the caller
// always sees success.
func (c *Coordinator) Save(ctx context.Context, rec *challenge.Record) {
	c.local.Put(rec)

	id, signedIn := c.currentIdentity()
	if !signedIn {
		syncOutcomes.WithLabelValues("save", "local").Inc()
		return
	}

	if err := c.remote.Upsert(ctx, id.UserID, rec); err != nil {
		log.Printf("Coordinator: remote save failed, record kept locally: %v", err)
		syncOutcomes.WithLabelValues("save", "remote_failed").Inc()
		return
	}
	syncOutcomes.WithLabelValues("save", "remote").Inc()
}

// Clear removes the record from every store it was written to. Both
// removals are best effort.
func (c *Coordinator) Clear(ctx context.Context) {
	c.local.Clear()

	id, signedIn := c.currentIdentity()
	if !signedIn {
		return
	}
	if err := c.remote.Delete(ctx, id.UserID); err != nil {
		log.Printf("Coordinator: remote delete failed: %v", err)
	}
}

func (c *Coordinator) currentIdentity() (*auth.Identity, bool) {
	if c.remote == nil {
		// Running local-only (no DATABASE_URL); behave as anonymous.
		return nil, false
	}
	return c.identity.Current()
}
