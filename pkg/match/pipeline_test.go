package match

import (
	"context"
	"errors"
	"testing"

	"github.com/lorenzo-mcc/ani-sync/pkg/catalog"
)

type cannedSearch struct {
	byTitle map[string][]catalog.Candidate
	err     error
	calls   int
}

func (s *cannedSearch) Search(_ context.Context, title, _ string) ([]catalog.Candidate, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.byTitle[title], nil
}

type cannedPrompt struct {
	pick int
}

func (p cannedPrompt) Choose(catalog.Record, []catalog.Candidate) (int, error) {
	return p.pick, nil
}

func studiosJob(records []catalog.Record, writes *[]string, failWrite bool) Job {
	return Job{
		Name:    "studios",
		Records: records,
		Current: func(r catalog.Record) string { return r.Studios },
		Desired: func(c catalog.Candidate) string { return catalog.JoinStudios(c.AnimationStudios()) },
		Apply: func(_ context.Context, rec catalog.Record, c catalog.Candidate) error {
			if failWrite {
				return errors.New("notion: 500")
			}
			*writes = append(*writes, rec.ID+"="+catalog.JoinStudios(c.AnimationStudios()))
			return nil
		},
	}
}

func TestPipelineAutoApply(t *testing.T) {
	rec := baseRecord()
	c := baseCandidate()
	c.Studios = []catalog.Studio{{Name: "MAPPA", Animation: true}}

	var writes []string
	p := &Pipeline{Search: &cannedSearch{byTitle: map[string][]catalog.Candidate{"foo": {c}}}}
	sum, err := p.Run(context.Background(), studiosJob([]catalog.Record{rec}, &writes, false))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Updated != 1 || len(writes) != 1 || writes[0] != "page-1=MAPPA" {
		t.Fatalf("expected one auto-applied write, got %+v writes=%v", sum, writes)
	}
	if sum.Results[0].Outcome != OutcomeAutoApplied {
		t.Fatalf("expected auto_applied, got %s", sum.Results[0].Outcome)
	}
}

func TestPipelineSkipsUnchangedValue(t *testing.T) {
	rec := baseRecord()
	rec.Studios = "MAPPA"
	c := baseCandidate()
	c.Studios = []catalog.Studio{{Name: "MAPPA", Animation: true}}

	var writes []string
	p := &Pipeline{Search: &cannedSearch{byTitle: map[string][]catalog.Candidate{"foo": {c}}}}
	sum, err := p.Run(context.Background(), studiosJob([]catalog.Record{rec}, &writes, false))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Skipped != 1 || sum.Updated != 0 || len(writes) != 0 {
		t.Fatalf("unchanged value must not be written: %+v", sum)
	}
}

func TestPipelineAmbiguousWithoutPromptIsNotFound(t *testing.T) {
	rec := baseRecord()
	c := baseCandidate()
	cands := []catalog.Candidate{c, c} // two perfect matches

	var writes []string
	p := &Pipeline{Search: &cannedSearch{byTitle: map[string][]catalog.Candidate{"foo": cands}}}
	sum, err := p.Run(context.Background(), studiosJob([]catalog.Record{rec}, &writes, false))
	if err != nil {
		t.Fatal(err)
	}
	if sum.NotFound != 1 || len(writes) != 0 {
		t.Fatalf("ambiguous result must not write: %+v", sum)
	}
	if got := sum.Unmatched(); len(got) != 1 || got[0].ID != "page-1" {
		t.Fatalf("unmatched list should carry the record, got %v", got)
	}
}

func TestPipelineManualChoice(t *testing.T) {
	rec := baseRecord()
	a := baseCandidate()
	a.StartYear = 2019 // imperfect
	b := baseCandidate()
	b.StartYear = 2021 // imperfect
	b.Studios = []catalog.Studio{{Name: "Bones", Animation: true}}

	var writes []string
	job := studiosJob([]catalog.Record{rec}, &writes, false)
	job.Interactive = true
	p := &Pipeline{
		Search: &cannedSearch{byTitle: map[string][]catalog.Candidate{"foo": {a, b}}},
		Prompt: cannedPrompt{pick: 1},
	}
	sum, err := p.Run(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Updated != 1 || writes[0] != "page-1=Bones" {
		t.Fatalf("expected manual apply of candidate 1, got %+v writes=%v", sum, writes)
	}
	if sum.Results[0].Outcome != OutcomeManualApplied {
		t.Fatalf("expected manual_applied, got %s", sum.Results[0].Outcome)
	}
}

func TestPipelineOperatorSkip(t *testing.T) {
	rec := baseRecord()
	a := baseCandidate()
	a.StartYear = 2019

	var writes []string
	job := studiosJob([]catalog.Record{rec}, &writes, false)
	job.Interactive = true
	p := &Pipeline{
		Search: &cannedSearch{byTitle: map[string][]catalog.Candidate{"foo": {a}}},
		Prompt: cannedPrompt{pick: -1},
	}
	sum, err := p.Run(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Skipped != 1 || len(writes) != 0 {
		t.Fatalf("operator skip must not write: %+v", sum)
	}
}

func TestPipelineWriteFailureDoesNotAbortBatch(t *testing.T) {
	recA := baseRecord()
	recB := baseRecord()
	recB.ID = "page-2"
	c := baseCandidate()
	c.Studios = []catalog.Studio{{Name: "MAPPA", Animation: true}}

	var writes []string
	job := studiosJob([]catalog.Record{recA, recB}, &writes, true)
	p := &Pipeline{Search: &cannedSearch{byTitle: map[string][]catalog.Candidate{"foo": {c}}}}
	sum, err := p.Run(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Checked != 2 || sum.Errors != 2 {
		t.Fatalf("both records should be processed despite write failures: %+v", sum)
	}
}

func TestPipelineSearchErrorLogsAndContinues(t *testing.T) {
	recs := []catalog.Record{baseRecord(), baseRecord()}
	var writes []string
	search := &cannedSearch{err: errors.New("anilist: timeout")}
	p := &Pipeline{Search: search}
	sum, err := p.Run(context.Background(), studiosJob(recs, &writes, false))
	if err != nil {
		t.Fatal(err)
	}
	if search.calls != 2 || sum.NotFound != 2 {
		t.Fatalf("search errors must be treated as not found per record: %+v", sum)
	}
}
