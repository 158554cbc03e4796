package ingesterr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorsMatchSentinelsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("create_organism: %w", SchemaAssumption("organism", "no %q name", "common"))
	if !errors.Is(err, ErrSchemaAssumption) {
		t.Fatalf("expected ErrSchemaAssumption, got %v", err)
	}
	if errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("schema error must not match store sentinel")
	}
	var sae *SchemaAssumptionError
	if !errors.As(err, &sae) || sae.Projection != "organism" {
		t.Fatalf("errors.As failed: %v", err)
	}
}

func TestStoreUnavailableUnwrapsCause(t *testing.T) {
	err := &StoreUnavailableError{Statement: "MATCH (n) RETURN n", Err: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected cause to unwrap")
	}
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable")
	}
}

func TestMalformedMessage(t *testing.T) {
	err := Malformed("protein", "expected mapping, got %s", "sequence")
	if got := err.Error(); got != `malformed entry field "protein": expected mapping, got sequence` {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, ErrMalformedEntry) {
		t.Fatalf("expected ErrMalformedEntry")
	}
}
