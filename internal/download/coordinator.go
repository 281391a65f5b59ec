package download

import (
	"context"
	"fmt"
	"sync"

	"github.com/averden/modelget/internal/assemble"
	"github.com/averden/modelget/internal/config"
	"github.com/averden/modelget/internal/fetch"
	"github.com/averden/modelget/internal/logx"
	"github.com/averden/modelget/internal/scheduler"
	"github.com/averden/modelget/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseChecking    Phase = "checking"
	PhaseDownloading Phase = "downloading"
	PhaseAssembling  Phase = "assembling"
	PhaseComplete    Phase = "complete"
	PhaseFailed      Phase = "failed"
)

// Snapshot is an immutable view of the current session, safe to hand to a
// polling UI.
type Snapshot struct {
	SessionID uuid.UUID
	Phase     Phase
	Status    string
	Completed int
	Total     int
	Fraction  float64
	Err       error
}

// Coordinator is the facade the rest of the application talks to. It owns
// the session state; consumers either poll Progress or subscribe to Events,
// they never mutate download state themselves.
type Coordinator struct {
	artifact config.Artifact
	store    *store.Store
	fetcher  scheduler.PartFetcher
	log      zerolog.Logger

	mu     sync.RWMutex
	snap   Snapshot
	cancel context.CancelFunc

	events chan Snapshot
}

// New wires a coordinator from its parts. Pass the store and fetcher in
// explicitly; there is no process-wide instance.
func New(artifact config.Artifact, st *store.Store, fetcher scheduler.PartFetcher) *Coordinator {
	return &Coordinator{
		artifact: artifact,
		store:    st,
		fetcher:  fetcher,
		log:      logx.With("download"),
		snap: Snapshot{
			Phase:  PhaseIdle,
			Status: "idle",
			Total:  artifact.PartCount,
		},
		events: make(chan Snapshot, artifact.PartCount+8),
	}
}

// NewFromArtifact builds the default wiring for an artifact: local store
// plus an HTTP or S3 part source behind the default retry policy.
func NewFromArtifact(ctx context.Context, artifact config.Artifact) (*Coordinator, error) {
	if err := artifact.Validate(); err != nil {
		return nil, err
	}
	st, err := store.New(artifact)
	if err != nil {
		return nil, err
	}
	var source fetch.Source
	if artifact.IsS3() {
		source, err = fetch.NewS3Source(ctx, artifact.Profile)
		if err != nil {
			return nil, err
		}
	} else {
		source = fetch.NewHTTPSource(fetch.NewClient(fetch.ClientConfig{}))
	}
	return New(artifact, st, fetch.NewFetcher(source, fetch.DefaultPolicy())), nil
}

// Available answers the one synchronous question the inference layer asks:
// is the model file present, and if so where.
func (c *Coordinator) Available() (string, bool) {
	if c.store.FinalExists() {
		return c.store.FinalPath(), true
	}
	return "", false
}

// EnsureAvailable returns the final artifact path, downloading and
// assembling whatever is missing. When the artifact already exists it
// returns immediately without touching the network. Re-invoking after a
// failure resumes from the parts already on disk.
func (c *Coordinator) EnsureAvailable(ctx context.Context) (string, error) {
	if path, ok := c.Available(); ok {
		c.update(func(s *Snapshot) {
			s.Phase = PhaseComplete
			s.Status = "model already available"
			s.Completed = c.artifact.PartCount
			s.Fraction = 1.0
		})
		c.log.Info().Str("op", "download/ensure").Msgf("artifact already present at %s", path)
		return path, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.mu.Lock()
	c.cancel = cancel
	c.snap = Snapshot{
		SessionID: uuid.New(),
		Phase:     PhaseChecking,
		Status:    "checking existing parts",
		Total:     c.artifact.PartCount,
	}
	c.mu.Unlock()
	c.emit()

	have, err := c.store.Scan()
	if err != nil {
		return "", c.fail(fmt.Errorf("error scanning parts: %w", err))
	}
	c.update(func(s *Snapshot) {
		s.Phase = PhaseDownloading
		s.Completed = len(have)
		s.Fraction = float64(len(have)) / float64(c.artifact.PartCount)
		s.Status = fmt.Sprintf("downloading %d of %d", len(have), c.artifact.PartCount)
	})

	sched := scheduler.New(c.artifact, c.store, c.fetcher)
	err = sched.Run(ctx, have, func(p scheduler.Progress) {
		c.update(func(s *Snapshot) {
			s.Completed = p.Completed
			s.Fraction = p.Fraction
			s.Status = fmt.Sprintf("downloading %d of %d", p.Completed, p.Total)
		})
	})
	if err != nil {
		return "", c.fail(err)
	}

	c.update(func(s *Snapshot) {
		s.Phase = PhaseAssembling
		s.Status = "assembling"
	})
	path, err := assemble.New(c.artifact, c.store).Assemble()
	if err != nil {
		return "", c.fail(err)
	}

	c.update(func(s *Snapshot) {
		s.Phase = PhaseComplete
		s.Status = "complete"
		s.Completed = c.artifact.PartCount
		s.Fraction = 1.0
	})
	return path, nil
}

// Progress returns the current session snapshot for polling.
func (c *Coordinator) Progress() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Events delivers snapshots as they change. Slow consumers miss
// intermediate updates rather than blocking the session.
func (c *Coordinator) Events() <-chan Snapshot {
	return c.events
}

// Cancel stops scheduling new part fetches. In-flight transfers wind down
// on their own; parts already written stay on disk for the next resume.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Coordinator) update(fn func(*Snapshot)) {
	c.mu.Lock()
	fn(&c.snap)
	c.mu.Unlock()
	c.emit()
}

func (c *Coordinator) fail(err error) error {
	c.update(func(s *Snapshot) {
		s.Phase = PhaseFailed
		s.Status = fmt.Sprintf("failed: %v", err)
		s.Err = err
	})
	c.log.Error().Str("op", "download/ensure").Msgf("session failed: %v", err)
	return err
}

func (c *Coordinator) emit() {
	snap := c.Progress()
	select {
	case c.events <- snap:
	default:
	}
}
