package store

import (
	"context"
	"time"

	"github.com/seisgo/pipeline/pkg/log"
)

type queryTimingKey struct{}

// Hooks satisfies sqlhooks.Hooks, logging every query and its elapsed
// time at debug level.
type Hooks struct{}

func (h *Hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("sql query %s %q", query, args)
	return context.WithValue(ctx, queryTimingKey{}, time.Now()), nil
}

func (h *Hooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	begin, _ := ctx.Value(queryTimingKey{}).(time.Time)
	log.Debugf("sql took: %s", time.Since(begin))
	return ctx, nil
}
