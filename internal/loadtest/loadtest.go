// Package loadtest drives repeated questions through a live service and
// reports response times.
package loadtest

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"docqa/internal/domain"
	"docqa/internal/perflog"
)

// OpQuery is the performance-log operation name of one load-test query.
const OpQuery = "load_test_query"

// DefaultQuestions are asked when none are configured.
var DefaultQuestions = []string{
	"¿Cuál es la idea principal del artículo?",
	"¿Por qué es importante este tema?",
	"¿Cuáles son los puntos clave?",
}

// Asker is the part of the service a load test needs.
type Asker interface {
	Ask(ctx context.Context, question string) (domain.Answer, error)
}

// Config describes one run.
type Config struct {
	Questions   []string
	Iterations  int
	Concurrency int
	Perf        *perflog.Logger
	Log         logrus.FieldLogger
	// OnResult, if set, is called after every query. Calls may be concurrent.
	OnResult func(Result)
}

// Result is the outcome of a single query.
type Result struct {
	Iteration int
	Question  string
	Elapsed   time.Duration
	Err       error
}

// Report summarizes a run. Mean, Min and Max cover successful queries only.
type Report struct {
	Iterations int
	Queries    int
	Failures   int
	Mean       time.Duration
	Min        time.Duration
	Max        time.Duration
	Results    []Result
}

// Run asks every question Iterations times with at most Concurrency
// queries in flight. Cancelling ctx stops scheduling; the partial report is
// returned together with the context error.
func Run(ctx context.Context, asker Asker, cfg Config) (Report, error) {
	if len(cfg.Questions) == 0 {
		cfg.Questions = DefaultQuestions
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 5
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	log := cfg.Log.WithField("component", "loadtest")

	total := cfg.Iterations * len(cfg.Questions)
	results := make([]Result, total)
	scheduled := 0

	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)
schedule:
	for it := 1; it <= cfg.Iterations; it++ {
		for _, q := range cfg.Questions {
			if ctx.Err() != nil {
				break schedule
			}
			slot := scheduled
			scheduled++
			g.Go(func() error {
				_, elapsed, err := perflog.Measure(cfg.Perf, OpQuery, func() (domain.Answer, error) {
					return asker.Ask(ctx, q)
				})
				r := Result{Iteration: it, Question: q, Elapsed: elapsed, Err: err}
				results[slot] = r
				if err != nil {
					log.WithError(err).WithField("question", q).Warn("query failed")
				}
				if cfg.OnResult != nil {
					cfg.OnResult(r)
				}
				return nil
			})
		}
	}
	_ = g.Wait()

	report := summarize(results[:scheduled])
	report.Iterations = cfg.Iterations
	log.WithFields(logrus.Fields{
		"queries":  report.Queries,
		"failures": report.Failures,
		"mean":     report.Mean,
	}).Info("load test finished")
	return report, ctx.Err()
}

func summarize(results []Result) Report {
	r := Report{Queries: len(results), Results: results}
	var sum time.Duration
	ok := 0
	for _, res := range results {
		if res.Err != nil {
			r.Failures++
			continue
		}
		if ok == 0 || res.Elapsed < r.Min {
			r.Min = res.Elapsed
		}
		r.Max = max(r.Max, res.Elapsed)
		sum += res.Elapsed
		ok++
	}
	if ok > 0 {
		r.Mean = sum / time.Duration(ok)
	}
	return r
}
