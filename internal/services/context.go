package services

import "context"

// Job identity travels on the context so log lines and errors can be tagged
// without threading the values through every call.

type ctxKey int

const (
	runIDKey ctxKey = iota
	stageKey
	stemKey
	partKey
)

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key ctxKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}

// WithRunID tags ctx with the attempt's run id.
func WithRunID(ctx context.Context, id string) context.Context { return withString(ctx, runIDKey, id) }

func RunIDFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, runIDKey) }

// WithStage tags ctx with the job stage (scan, plan, encode or merge).
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, stageKey) }

// WithStem tags ctx with the output stem shared by parts and sidecars.
func WithStem(ctx context.Context, stem string) context.Context { return withString(ctx, stemKey, stem) }

func StemFromContext(ctx context.Context) (string, bool) { return stringFrom(ctx, stemKey) }

// WithPart tags ctx with the ordinal of the part being written. Zero is a
// valid ordinal, so it is always stored.
func WithPart(ctx context.Context, ordinal int) context.Context {
	return context.WithValue(ctx, partKey, ordinal)
}

func PartFromContext(ctx context.Context) (int, bool) {
	v, ok := ctx.Value(partKey).(int)
	return v, ok
}
