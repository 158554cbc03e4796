package ingestrun

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/yungbote/uniprot-graph/internal/data/graph"
	uniprot_ingest "github.com/yungbote/uniprot-graph/internal/jobs/pipeline/uniprot_ingest"
	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
	"github.com/yungbote/uniprot-graph/internal/platform/neo4jdb"
)

const entryXML = `<uniprot>
<entry dataset="Swiss-Prot" version="3">
  <name>P1_TEST</name>
  <protein>
    <recommendedName><fullName>Protein one</fullName><shortName>42</shortName></recommendedName>
  </protein>
  <gene><name type="primary">G1</name></gene>
  <organism>
    <name type="scientific">Homo sapiens</name>
    <name type="common">Human</name>
    <dbReference type="NCBI Taxonomy" id="9606"/>
  </organism>
  <reference key="1">
    <citation type="journal article" date="2001"><title>T</title>
      <authorList><person name="Smith J."/></authorList>
    </citation>
  </reference>
  <feature type="chain" description="Protein one"/>
</entry>
</uniprot>`

type docOpener map[string]string

func (o docOpener) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	doc, ok := o[uri]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(doc)), nil
}

type fakeWriter struct {
	mu    sync.Mutex
	names []string
	fail  map[string]bool
}

func (w *fakeWriter) Write(_ context.Context, stmts ...neo4jdb.Statement) (*neo4jdb.WriteResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	res := &neo4jdb.WriteResult{}
	for _, st := range stmts {
		w.names = append(w.names, st.Name)
		if w.fail[st.Name] {
			return nil, &ingesterr.StoreUnavailableError{Statement: st.Name, Err: errors.New("unavailable")}
		}
		res.Rows = []map[string]any{{"name": st.Params["name"], "id": st.Params["id"]}}
		res.Counters.Add(neo4jdb.Counters{NodesCreated: 1})
	}
	return res, nil
}

func (w *fakeWriter) count(name string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, got := range w.names {
		if got == name {
			n++
		}
	}
	return n
}

func newEnv(t *testing.T, w *fakeWriter, docs docOpener) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	steps := uniprot_ingest.NewSteps(nil, docs, graph.NewProjector(w, nil, graph.ModeCreate))
	Register(env, &Activities{Steps: steps})
	return env
}

func TestWorkflowRunsAllStages(t *testing.T) {
	w := &fakeWriter{}
	env := newEnv(t, w, docOpener{"entry.xml": entryXML})

	env.ExecuteWorkflow(WorkflowName, Params{Input: uniprot_ingest.Input{RunID: "run-1", Source: "entry.xml"}})
	if !env.IsWorkflowCompleted() {
		t.Fatalf("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	var res uniprot_ingest.IngestResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatalf("result: %v", err)
	}
	if res.Name != "P1_TEST" || res.Protein.Name != "P1_TEST" {
		t.Fatalf("unexpected result %+v", res)
	}
	for _, name := range uniprot_ingest.StageOrder() {
		if res.Stages[name].Status != "succeeded" {
			t.Fatalf("stage %s: %+v", name, res.Stages[name])
		}
	}
	for _, name := range []string{"create_protein", "create_gene", "create_organism", "create_reference", "create_author", "create_feature"} {
		if w.count(name) != 1 {
			t.Fatalf("%s: got %d writes", name, w.count(name))
		}
	}
}

func TestWorkflowProjectionFailureFailsRunButNotSiblings(t *testing.T) {
	w := &fakeWriter{fail: map[string]bool{"create_gene": true}}
	env := newEnv(t, w, docOpener{"entry.xml": entryXML})

	env.ExecuteWorkflow(WorkflowName, Params{Input: uniprot_ingest.Input{Source: "entry.xml"}})
	if !env.IsWorkflowCompleted() {
		t.Fatalf("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err == nil {
		t.Fatalf("expected workflow error")
	}
	for _, name := range []string{"create_organism", "create_reference", "create_feature"} {
		if w.count(name) != 1 {
			t.Fatalf("%s should still run, got %d writes", name, w.count(name))
		}
	}
	if w.count("create_gene") != 1 {
		t.Fatalf("gene write must not be retried, got %d", w.count("create_gene"))
	}
}

func TestWorkflowParseFailureWritesNothing(t *testing.T) {
	w := &fakeWriter{}
	env := newEnv(t, w, docOpener{})

	env.ExecuteWorkflow(WorkflowName, Params{Input: uniprot_ingest.Input{Source: "missing.xml"}})
	if err := env.GetWorkflowError(); err == nil {
		t.Fatalf("expected workflow error")
	}
	if len(w.names) != 0 {
		t.Fatalf("expected no writes, got %v", w.names)
	}
}

func TestWorkflowRequiresSource(t *testing.T) {
	env := newEnv(t, &fakeWriter{}, docOpener{})
	env.ExecuteWorkflow(WorkflowName, Params{})
	if err := env.GetWorkflowError(); err == nil {
		t.Fatalf("expected missing source error")
	}
}

func TestToApplicationErrorTagsClass(t *testing.T) {
	cases := map[string]error{
		ErrTypeMalformedEntry:   ingesterr.Malformed("name", "missing"),
		ErrTypeSchemaAssumption: ingesterr.SchemaAssumption("organism", "no common name"),
		ErrTypeStoreUnavailable: &ingesterr.StoreUnavailableError{Statement: "create_gene", Err: errors.New("down")},
	}
	for want, in := range cases {
		var appErr *temporal.ApplicationError
		if !errors.As(toApplicationError(in), &appErr) {
			t.Fatalf("%s: not an application error", want)
		}
		if appErr.Type() != want || !appErr.NonRetryable() {
			t.Fatalf("%s: type=%q nonRetryable=%v", want, appErr.Type(), appErr.NonRetryable())
		}
	}
}
