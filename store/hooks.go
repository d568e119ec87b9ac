package store

import "context"

// Hooks transform entities at the persistence boundary. *shroud.Interceptor
// implements it: BeforeWrite runs on every INSERT and UPDATE argument,
// AfterRead on every scanned result.
type Hooks interface {
	BeforeWrite(ctx context.Context, params any) (any, error)
	AfterRead(ctx context.Context, results any) (any, error)
}
