package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/countryleaders/internal/biography"
	"github.com/jmylchreest/countryleaders/internal/model"
)

type sourceFunc func(ctx context.Context, url string) biography.Outcome

func (f sourceFunc) Lookup(ctx context.Context, url string) biography.Outcome { return f(ctx, url) }

func paragraph(s string) biography.Outcome { return biography.Outcome{Paragraph: &s} }

func fiveLeaders() []model.Leader {
	leaders := make([]model.Leader, 5)
	for i := range leaders {
		leaders[i] = model.Leader{
			ID:           fmt.Sprintf("Q%d", i+1),
			WikipediaURL: fmt.Sprintf("https://en.wikipedia.org/wiki/L%d", i+1),
		}
	}
	return leaders
}

var allModes = []Mode{ModeThreads, ModeProcesses, ModeSequential}

func TestEnrich_PartialFailureContainment(t *testing.T) {
	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			src := sourceFunc(func(_ context.Context, url string) biography.Outcome {
				if url == "https://en.wikipedia.org/wiki/L3" {
					panic("boom")
				}
				return paragraph("bio of " + url)
			})
			exec, err := NewExecutor(mode, 3)
			require.NoError(t, err)

			out, stats := New(src, exec).Enrich(context.Background(), "fr", fiveLeaders())

			require.Len(t, out, 5)
			for i, l := range out {
				assert.Equal(t, fmt.Sprintf("Q%d", i+1), l.ID, "input order kept")
				if i == 2 {
					assert.Nil(t, l.FirstParagraph)
					continue
				}
				require.NotNil(t, l.FirstParagraph, "leader %d", i+1)
				assert.Equal(t, "bio of "+l.WikipediaURL, *l.FirstParagraph)
			}
			assert.Equal(t, 4, stats.Found)
			assert.Equal(t, 1, stats.Failed)
		})
	}
}

func TestEnrich_ErrorOutcomeIsAbsent(t *testing.T) {
	src := sourceFunc(func(_ context.Context, url string) biography.Outcome {
		switch url {
		case "https://en.wikipedia.org/wiki/L2":
			return biography.Outcome{Err: biography.ErrNoParagraph}
		case "https://en.wikipedia.org/wiki/L4":
			return biography.Outcome{Err: errors.New("timeout")}
		}
		return paragraph("ok")
	})
	exec, _ := NewExecutor(ModeThreads, 2)

	out, stats := New(src, exec).Enrich(context.Background(), "be", fiveLeaders())
	require.Len(t, out, 5)
	assert.Nil(t, out[1].FirstParagraph)
	assert.Nil(t, out[3].FirstParagraph)
	assert.Equal(t, 3, stats.Found)
	assert.Equal(t, 1, stats.Missing)
	assert.Equal(t, 1, stats.Failed)
}

func TestEnrich_NoURLSkipsFetch(t *testing.T) {
	var lookups atomic.Int32
	src := sourceFunc(func(_ context.Context, url string) biography.Outcome {
		lookups.Add(1)
		return paragraph("ok")
	})

	stale := "stale paragraph"
	leaders := []model.Leader{
		{ID: "a", WikipediaURL: "https://en.wikipedia.org/wiki/A"},
		{ID: "b", FirstParagraph: &stale},
	}

	out, stats := New(src, nil).Enrich(context.Background(), "us", leaders)
	require.Len(t, out, 2)
	assert.NotNil(t, out[0].FirstParagraph)
	assert.Nil(t, out[1].FirstParagraph, "no URL means absent, whatever came in")
	assert.Equal(t, int32(1), lookups.Load())
	assert.Equal(t, 1, stats.NoURL)

	assert.Equal(t, &stale, leaders[1].FirstParagraph, "input is not mutated")
}

func TestEnrich_CachedCounted(t *testing.T) {
	src := sourceFunc(func(_ context.Context, url string) biography.Outcome {
		s := "cached"
		return biography.Outcome{Paragraph: &s, Cached: true}
	})
	_, stats := New(src, nil).Enrich(context.Background(), "ma", fiveLeaders())
	assert.Equal(t, 5, stats.Found)
	assert.Equal(t, 5, stats.Cached)
}

func TestEnrich_Progress(t *testing.T) {
	src := sourceFunc(func(_ context.Context, url string) biography.Outcome { return paragraph("x") })
	exec, _ := NewExecutor(ModeThreads, 4)

	leaders := append(fiveLeaders(), model.Leader{ID: "no-url"})

	var calls []int
	e := New(src, exec, WithProgress(func(c model.Country, done, total int) {
		assert.Equal(t, model.Country("ru"), c)
		assert.Equal(t, 6, total)
		calls = append(calls, done)
	}))
	e.Enrich(context.Background(), "ru", leaders)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, calls)
}

func TestEnrich_Empty(t *testing.T) {
	src := sourceFunc(func(_ context.Context, url string) biography.Outcome { return paragraph("x") })
	for _, mode := range allModes {
		exec, _ := NewExecutor(mode, 2)
		out, stats := New(src, exec).Enrich(context.Background(), "fr", nil)
		assert.Empty(t, out)
		assert.Zero(t, stats.Leaders)
	}
}

// --- Executor Tests ---

func TestExecutor_RespectsWorkerBound(t *testing.T) {
	for _, mode := range []Mode{ModeThreads, ModeProcesses} {
		t.Run(string(mode), func(t *testing.T) {
			var inFlight, peak atomic.Int32
			tasks := make([]Task, 20)
			for i := range tasks {
				tasks[i] = func(context.Context) error {
					n := inFlight.Add(1)
					for {
						p := peak.Load()
						if n <= p || peak.CompareAndSwap(p, n) {
							break
						}
					}
					time.Sleep(5 * time.Millisecond)
					inFlight.Add(-1)
					return nil
				}
			}

			exec, err := NewExecutor(mode, 3)
			require.NoError(t, err)

			var mu sync.Mutex
			seen := map[int]bool{}
			exec.Execute(context.Background(), tasks, func(i int, err error) {
				mu.Lock()
				defer mu.Unlock()
				assert.False(t, seen[i], "done called twice for %d", i)
				seen[i] = true
				assert.NoError(t, err)
			})

			assert.Len(t, seen, 20)
			assert.LessOrEqual(t, peak.Load(), int32(3))
			assert.Equal(t, mode, exec.Mode())
		})
	}
}

func TestExecutor_CanceledContextReportsEveryTask(t *testing.T) {
	for _, mode := range allModes {
		t.Run(string(mode), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			var ran atomic.Int32
			tasks := make([]Task, 4)
			for i := range tasks {
				tasks[i] = func(context.Context) error {
					ran.Add(1)
					return nil
				}
			}

			exec, _ := NewExecutor(mode, 2)
			var errs []error
			exec.Execute(ctx, tasks, func(i int, err error) {
				errs = append(errs, err)
			})

			require.Len(t, errs, 4)
			for _, err := range errs {
				assert.ErrorIs(t, err, context.Canceled)
			}
			assert.Zero(t, ran.Load())
		})
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":           ModeThreads,
		"threads":    ModeThreads,
		"Processes":  ModeProcesses,
		"sequential": ModeSequential,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseMode("fibers")
	assert.Error(t, err)

	_, err = NewExecutor("fibers", 1)
	assert.Error(t, err)
}
