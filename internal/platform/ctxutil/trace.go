package ctxutil

import "context"

type runDataKey struct{}

// RunData identifies the ingestion run a call belongs to, for log fields.
type RunData struct {
	RunID string
	Entry string
}

func WithRunData(ctx context.Context, rd *RunData) context.Context {
	return context.WithValue(ctx, runDataKey{}, rd)
}

func GetRunData(ctx context.Context) *RunData {
	if ctx == nil {
		return nil
	}
	val := ctx.Value(runDataKey{})
	if rd, ok := val.(*RunData); ok {
		return rd
	}
	return nil
}

func RunID(ctx context.Context) string {
	if rd := GetRunData(ctx); rd != nil {
		return rd.RunID
	}
	return ""
}
