package pipeline

import (
	"context"
	"sync"

	"github.com/ppiankov/sourcebrief/internal/model"
)

// SourceFetcher retrieves a single URL without failing
type SourceFetcher interface {
	Fetch(ctx context.Context, rawURL string) model.FetchResult
}

// FetchAll fetches every URL concurrently and returns once all are done.
// Result i always belongs to urls[i]. workers bounds concurrency; 0 runs
// one goroutine per URL.
func FetchAll(ctx context.Context, f SourceFetcher, urls []string, workers int) []model.FetchResult {
	results := make([]model.FetchResult, len(urls))
	if len(urls) == 0 {
		return results
	}

	var sem chan struct{}
	if workers > 0 {
		sem = make(chan struct{}, workers)
	}

	var wg sync.WaitGroup
	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			results[idx] = f.Fetch(ctx, rawURL)
		}(i, u)
	}

	wg.Wait()
	return results
}
