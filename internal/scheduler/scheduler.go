package scheduler

import (
	"context"

	"github.com/averden/modelget/internal/config"
	"github.com/averden/modelget/internal/logx"
	"github.com/averden/modelget/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers caps simultaneous part fetches. Parts come from a single
// origin; more connections mostly buys server-side throttling.
const DefaultWorkers = 3

// PartFetcher is what the scheduler needs from the fetch layer. digest may
// be "" when content verification is not configured.
type PartFetcher interface {
	Fetch(ctx context.Context, url, digest string) ([]byte, error)
}

// Progress is one completion notification. Fraction counts parts already on
// disk at session start, so it is non-decreasing and reaches 1.0 exactly
// when every part is durable.
type Progress struct {
	Index     int
	Completed int
	Total     int
	Fraction  float64
}

// Scheduler drives the missing-part set through a bounded worker pool.
// Fetches run concurrently; all completion handling (persisting bytes,
// counting, progress callbacks) happens on the single supervising loop.
type Scheduler struct {
	artifact config.Artifact
	store    *store.Store
	fetcher  PartFetcher
	workers  int
	log      zerolog.Logger
}

func New(artifact config.Artifact, st *store.Store, fetcher PartFetcher) *Scheduler {
	return &Scheduler{
		artifact: artifact,
		store:    st,
		fetcher:  fetcher,
		workers:  DefaultWorkers,
		log:      logx.With("scheduler"),
	}
}

type result struct {
	index int
	data  []byte
	err   error
}

// Run fetches every part not in have, in ascending-index admission order,
// and persists each as it lands. The first terminal failure (fetch budget
// exhausted or a disk write error) cancels the remaining work and is
// returned; parts already written stay on disk for the next resume.
func (s *Scheduler) Run(ctx context.Context, have map[int]bool, onProgress func(Progress)) error {
	total := s.artifact.PartCount
	completed := 0
	var missing []int
	for i := 0; i < total; i++ {
		if have[i] {
			completed++
		} else {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		s.log.Info().Str("op", "scheduler/run").Msg("all parts already on disk")
		return nil
	}
	s.log.Info().Str("op", "scheduler/run").Msgf("fetching %d of %d parts with %d workers", len(missing), total, s.workers)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	indexCh := make(chan int)
	resultCh := make(chan result, s.workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < s.workers; w++ {
		g.Go(func() error {
			for {
				var index int
				var ok bool
				select {
				case index, ok = <-indexCh:
					if !ok {
						return nil
					}
				case <-gctx.Done():
					return gctx.Err()
				}
				data, err := s.fetcher.Fetch(gctx, s.artifact.PartURL(index), s.artifact.PartDigest(index))
				select {
				case resultCh <- result{index: index, data: data, err: err}:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}
	go func() {
		defer close(indexCh)
		for _, index := range missing {
			select {
			case indexCh <- index:
			case <-gctx.Done():
				return
			}
		}
	}()
	go func() {
		g.Wait()
		close(resultCh)
	}()

	// Supervising loop: the only goroutine that touches the store or the
	// progress counter.
	var firstErr error
	for res := range resultCh {
		if firstErr != nil {
			continue
		}
		if res.err != nil {
			s.log.Error().Str("op", "scheduler/run").Msgf("part %02d failed terminally: %v", res.index+1, res.err)
			firstErr = res.err
			cancel()
			continue
		}
		if err := s.store.Write(res.index, res.data); err != nil {
			s.log.Error().Str("op", "scheduler/run").Msgf("part %02d write failed: %v", res.index+1, err)
			firstErr = err
			cancel()
			continue
		}
		completed++
		if onProgress != nil {
			onProgress(Progress{
				Index:     res.index,
				Completed: completed,
				Total:     total,
				Fraction:  float64(completed) / float64(total),
			})
		}
	}
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
