package scanner

import (
	"log"
	"sync"
)

// OutcomeKind tells the runner what a single evaluation produced.
type OutcomeKind int

const (
	// OutcomeNoMatch means the symbol was evaluated and did not qualify.
	OutcomeNoMatch OutcomeKind = iota
	// OutcomeMatch carries a result to collect.
	OutcomeMatch
	// OutcomeError means a transient failure (fetch, parse). The runner
	// logs it and treats the symbol as a no-match for this pass.
	OutcomeError
)

// Outcome is the typed result of evaluating one symbol.
type Outcome[T any] struct {
	Kind  OutcomeKind
	Value T
	Err   error
}

// Match wraps a qualifying result.
func Match[T any](v T) Outcome[T] {
	return Outcome[T]{Kind: OutcomeMatch, Value: v}
}

// NoMatch reports a clean non-qualification.
func NoMatch[T any]() Outcome[T] {
	return Outcome[T]{Kind: OutcomeNoMatch}
}

// Failed reports a transient per-symbol failure.
func Failed[T any](err error) Outcome[T] {
	return Outcome[T]{Kind: OutcomeError, Err: err}
}

// Run evaluates every code on a bounded worker pool and collects the
// matches. Collection order is not deterministic; callers sort. A
// symbol whose evaluation errors is logged and skipped, it never aborts
// the batch.
func Run[T any](name string, codes []string, workers int, eval func(code string) Outcome[T]) []T {
	if workers <= 0 {
		workers = 1
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		results   []T
		errCount  int
		semaphore = make(chan struct{}, workers)
	)

	for _, code := range codes {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			out := eval(code)
			switch out.Kind {
			case OutcomeMatch:
				mu.Lock()
				results = append(results, out.Value)
				mu.Unlock()
			case OutcomeError:
				mu.Lock()
				errCount++
				mu.Unlock()
				log.Printf("[%s] %s: %v", name, code, out.Err)
			}
		}(code)
	}
	wg.Wait()

	if errCount > 0 {
		log.Printf("[%s] scanned %d symbols, %d matches, %d errors", name, len(codes), len(results), errCount)
	}
	return results
}
