package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

type FixSlugsResult struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
}

// FixSlugs recomputes every treatment slug from its treatmentName, writing
// only the ones that changed. At most workers updates run at once.
func (s *AdminService) FixSlugs(ctx context.Context, workers int) (FixSlugsResult, error) {
	if workers <= 0 {
		workers = 4
	}
	ts, err := s.repo.ListTreatments(ctx)
	if err != nil {
		return FixSlugsResult{}, err
	}

	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg       sync.WaitGroup
		updated  atomic.Int64
		mu       sync.Mutex
		firstErr error
	)
	for _, t := range ts {
		slug := Slugify(t.TreatmentName)
		if slug == t.Slug {
			continue
		}
		t.Slug = slug

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		t := t
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			if err := s.repo.UpdateTreatment(ctx, t); err != nil {
				log.Warn().Str("id", t.ID).Str("slug", slug).Err(err).Msg("slug update failed")
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("update slug of treatment %s: %w", t.ID, err)
				}
				mu.Unlock()
				return
			}
			updated.Add(1)
		}()
	}
	wg.Wait()

	res := FixSlugsResult{Total: len(ts), Updated: int(updated.Load())}
	if res.Updated > 0 {
		s.invalidate(ctx)
	}
	if firstErr == nil {
		firstErr = ctx.Err()
	}
	return res, firstErr
}
