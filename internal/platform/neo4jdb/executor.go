package neo4jdb

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/uniprot-graph/internal/platform/ctxutil"
	"github.com/yungbote/uniprot-graph/internal/platform/ingesterr"
	"github.com/yungbote/uniprot-graph/internal/platform/logger"
)

// Statement is one parameterized Cypher statement. Values travel only
// through Params; Cypher text is a constant per statement Name.
type Statement struct {
	Name   string
	Cypher string
	Params map[string]any
}

type Counters struct {
	NodesCreated         int
	RelationshipsCreated int
	PropertiesSet        int
}

func (c *Counters) Add(o Counters) {
	c.NodesCreated += o.NodesCreated
	c.RelationshipsCreated += o.RelationshipsCreated
	c.PropertiesSet += o.PropertiesSet
}

// WriteResult holds the rows returned by the last statement of the
// transaction and the summed update counters of all of them.
type WriteResult struct {
	Rows     []map[string]any
	Counters Counters
}

// WriteObserver receives one observation per write transaction.
type WriteObserver interface {
	ObserveWrite(statement string, status string, dur time.Duration)
}

// session is the subset of neo4j.SessionWithContext the executor uses.
type session interface {
	ExecuteWrite(ctx context.Context, work neo4j.ManagedTransactionWork, configurers ...func(*neo4j.TransactionConfig)) (any, error)
	Run(ctx context.Context, cypher string, params map[string]any, configurers ...func(*neo4j.TransactionConfig)) (neo4j.ResultWithContext, error)
	Close(ctx context.Context) error
}

// Executor runs each call as exactly one write transaction in its own
// session against a fixed database. Sessions are closed on every path.
// Failures are logged with the statement and parameters and returned as
// *ingesterr.StoreUnavailableError; nothing is retried.
type Executor struct {
	database   string
	newSession func(ctx context.Context) session
	log        *logger.Logger
	observer   WriteObserver
	tracer     trace.Tracer
}

func NewExecutor(c *Client, log *logger.Logger, observer WriteObserver) *Executor {
	if log == nil {
		log = logger.Nop()
	}
	database := c.Database
	return &Executor{
		database: database,
		newSession: func(ctx context.Context) session {
			return c.Driver.NewSession(ctx, neo4j.SessionConfig{
				AccessMode:   neo4j.AccessModeWrite,
				DatabaseName: database,
			})
		},
		log:      log.With("component", "WriteExecutor", "database", database),
		observer: observer,
		tracer:   otel.Tracer("uniprot-graph/neo4jdb"),
	}
}

func (e *Executor) Database() string { return e.database }

// Write executes stmts, in order, inside a single write transaction.
func (e *Executor) Write(ctx context.Context, stmts ...Statement) (*WriteResult, error) {
	if len(stmts) == 0 {
		return &WriteResult{}, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	name := stmts[0].Name
	ctx, span := e.tracer.Start(ctx, "neo4j.write "+name, trace.WithAttributes(
		attribute.String("db.system", "neo4j"),
		attribute.String("db.name", e.database),
		attribute.Int("db.statement_count", len(stmts)),
	))
	defer span.End()

	start := time.Now()
	sess := e.newSession(ctx)
	defer func() {
		if err := sess.Close(ctx); err != nil {
			e.log.Warn("Closing neo4j session failed", "statement", name, "error", err)
		}
	}()

	failed := -1
	out, err := sess.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res := &WriteResult{}
		for i, st := range stmts {
			r, err := tx.Run(ctx, st.Cypher, st.Params)
			if err != nil {
				failed = i
				return nil, err
			}
			records, err := r.Collect(ctx)
			if err != nil {
				failed = i
				return nil, err
			}
			summary, err := r.Consume(ctx)
			if err != nil {
				failed = i
				return nil, err
			}
			res.Rows = rowsOf(records)
			if summary != nil {
				c := summary.Counters()
				res.Counters.Add(Counters{
					NodesCreated:         c.NodesCreated(),
					RelationshipsCreated: c.RelationshipsCreated(),
					PropertiesSet:        c.PropertiesSet(),
				})
			}
		}
		return res, nil
	})
	dur := time.Since(start)
	if err != nil {
		if failed < 0 {
			failed = 0
		}
		st := stmts[failed]
		e.log.Error("Graph write failed",
			"statement", st.Name,
			"cypher", st.Cypher,
			"params", st.Params,
			"run_id", ctxutil.RunID(ctx),
			"error", err,
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		e.observe(name, "failed", dur)
		return nil, &ingesterr.StoreUnavailableError{Statement: st.Cypher, Params: st.Params, Err: err}
	}

	res, ok := out.(*WriteResult)
	if !ok || res == nil {
		res = &WriteResult{}
	}
	e.observe(name, "succeeded", dur)
	e.log.Debug("Graph write committed",
		"statement", name,
		"nodes_created", res.Counters.NodesCreated,
		"relationships_created", res.Counters.RelationshipsCreated,
		"duration_ms", dur.Milliseconds(),
	)
	return res, nil
}

// RunSchema runs a schema statement in an auto-commit transaction.
// Schema changes cannot share a transaction with data writes.
func (e *Executor) RunSchema(ctx context.Context, cypher string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sess := e.newSession(ctx)
	defer func() { _ = sess.Close(ctx) }()
	res, err := sess.Run(ctx, cypher, nil)
	if err != nil {
		return fmt.Errorf("neo4jdb: schema %q: %w", cypher, err)
	}
	if _, err := res.Consume(ctx); err != nil {
		return fmt.Errorf("neo4jdb: schema %q: %w", cypher, err)
	}
	return nil
}

func (e *Executor) observe(statement, status string, dur time.Duration) {
	if e.observer != nil {
		e.observer.ObserveWrite(statement, status, dur)
	}
}

func rowsOf(records []*neo4j.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		out = append(out, rec.AsMap())
	}
	return out
}
