package ports

import "context"

// ResolveJob resolves the identity of one session.
type ResolveJob interface {
	SessionID() string
	Resolve(ctx context.Context)
}

// ResolveScheduler runs resolution jobs off the request path.
type ResolveScheduler interface {
	Schedule(job ResolveJob)
}
