package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
)

// chiRouteContext injects a chi route "id" parameter so handlers can be
// called directly, bypassing the router.
func chiRouteContext(id string) func(ctx context.Context) context.Context {
	return func(ctx context.Context) context.Context {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		return context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
}
