package match

import (
	"context"

	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
)

// Outcome is the terminal state a record reaches in one pipeline pass.
type Outcome int

const (
	OutcomeAutoApplied Outcome = iota
	OutcomeManualApplied
	OutcomeSkipped
	OutcomeNotFound
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAutoApplied:
		return "auto_applied"
	case OutcomeManualApplied:
		return "manual_applied"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "error"
	}
}

// Logger abstracts logging so the pipeline works with logrus, stdlib log,
// or a silent stub in tests.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Searcher fetches AniList candidates for a title/year pair. The AniList
// client satisfies this; tests substitute a canned one.
type Searcher interface {
	Search(ctx context.Context, title, year string) ([]catalog.Candidate, error)
}

// Prompter resolves an ambiguous record interactively. Choose returns the
// index of the picked candidate, or -1 to skip the record.
type Prompter interface {
	Choose(rec catalog.Record, cands []catalog.Candidate) (int, error)
}

// Job describes one field-specific sync over a prepared record list. The
// six update commands differ only in these hooks.
type Job struct {
	Name    string
	Records []catalog.Record

	// SearchTitle picks the string sent to AniList for a record. Nil means
	// English title, falling back to Romaji.
	SearchTitle func(catalog.Record) string

	// Current reads the record's present value; Desired derives the value a
	// candidate would write. Equal values transition straight to skipped.
	Current func(catalog.Record) string
	Desired func(catalog.Candidate) string

	// Apply performs the single-field write for a matched candidate.
	Apply func(ctx context.Context, rec catalog.Record, c catalog.Candidate) error

	// Interactive enables the operator prompt for ambiguous results.
	// Without it, ambiguous records are counted as not found.
	Interactive bool
}

// Result records the terminal state of one record for reporting.
type Result struct {
	Record  catalog.Record
	Outcome Outcome
	Applied string // value written, for the updated-records log
	Err     error
}

// Summary aggregates one pipeline pass.
type Summary struct {
	Checked  int
	Updated  int
	Skipped  int
	NotFound int
	Errors   int

	Results []Result
}

// Unmatched returns the records that ended not found, for the
// unmatched-titles report. Skips are excluded: the outcome covers both
// operator skips and already-current values, and the latter are matched.
func (s *Summary) Unmatched() []catalog.Record {
	var out []catalog.Record
	for _, r := range s.Results {
		if r.Outcome == OutcomeNotFound {
			out = append(out, r.Record)
		}
	}
	return out
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeAutoApplied, OutcomeManualApplied:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeNotFound:
		s.NotFound++
	case OutcomeError:
		s.Errors++
	}
}

// Pipeline wires the collaborators a job needs. All fields are injected;
// there are no package-level clients.
type Pipeline struct {
	Search Searcher
	Prompt Prompter
	Log    Logger
}

// Run processes every record exactly once, sequentially. An error on one
// record is recorded and the loop continues; only a nil Searcher or a
// cancelled context stops the pass early.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Summary, error) {
	log := p.Log
	if log == nil {
		log = nopLogger{}
	}

	summary := &Summary{}
	for i, rec := range job.Records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Checked++

		title := searchTitle(job, rec)
		log.Infof("[%s] %d/%d processing: %s", job.Name, i+1, len(job.Records), title)

		cands, err := p.Search.Search(ctx, title, rec.DebutYear)
		if err != nil {
			// Transient API failure after retries: treated as not found,
			// never fatal to the run.
			log.Warnf("[%s] search failed for %q: %v", job.Name, title, err)
			summary.add(Result{Record: rec, Outcome: OutcomeNotFound, Err: err})
			continue
		}
		if len(cands) == 0 {
			log.Debugf("[%s] no candidates for %q", job.Name, title)
			summary.add(Result{Record: rec, Outcome: OutcomeNotFound})
			continue
		}

		if c, ok := Perfect(rec, cands); ok {
			summary.add(p.apply(ctx, job, rec, c, OutcomeAutoApplied, log))
			continue
		}

		if !job.Interactive || p.Prompt == nil {
			summary.add(Result{Record: rec, Outcome: OutcomeNotFound})
			continue
		}

		idx, err := p.Prompt.Choose(rec, cands)
		if err != nil {
			summary.add(Result{Record: rec, Outcome: OutcomeError, Err: err})
			continue
		}
		if idx < 0 || idx >= len(cands) {
			summary.add(Result{Record: rec, Outcome: OutcomeSkipped})
			continue
		}
		summary.add(p.apply(ctx, job, rec, cands[idx], OutcomeManualApplied, log))
	}
	return summary, nil
}

// apply performs the conditional write: unchanged values are skipped, and a
// failed write downgrades the record to an error without aborting the pass.
func (p *Pipeline) apply(ctx context.Context, job Job, rec catalog.Record, c catalog.Candidate, on Outcome, log Logger) Result {
	desired := job.Desired(c)
	if desired == job.Current(rec) {
		log.Debugf("[%s] %q already up to date", job.Name, rec.EnglishTitle)
		return Result{Record: rec, Outcome: OutcomeSkipped}
	}
	if err := job.Apply(ctx, rec, c); err != nil {
		log.Errorf("[%s] write failed for %q: %v", job.Name, rec.EnglishTitle, err)
		return Result{Record: rec, Outcome: OutcomeError, Err: err}
	}
	log.Infof("[%s] %s: %q -> %q", job.Name, on, rec.EnglishTitle, desired)
	return Result{Record: rec, Outcome: on, Applied: desired}
}

func searchTitle(job Job, rec catalog.Record) string {
	if job.SearchTitle != nil {
		return job.SearchTitle(rec)
	}
	if rec.EnglishTitle != "" {
		return rec.EnglishTitle
	}
	return rec.RomajiTitle
}
