package config

import "context"

type ctxKey struct{}

// Into returns a child context carrying the config.
func Into(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// From returns the config carried by the context, or Default when
// none was attached.
func From(ctx context.Context) Config {
	if cfg, ok := ctx.Value(ctxKey{}).(Config); ok {
		return cfg
	}
	return Default()
}
