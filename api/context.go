package api

import (
	"context"

	"github.com/rpupo63/consulting-site-backend/accounts"
)

type keyType string

const principalKey keyType = "principal"

func ctxWithPrincipal(ctx context.Context, p accounts.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// principalFrom returns nil for anonymous requests.
func principalFrom(ctx context.Context) *accounts.Principal {
	p, ok := ctx.Value(principalKey).(accounts.Principal)
	if !ok {
		return nil
	}
	return &p
}
