package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/ports"
)

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(req *http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

// Middleware decorates a Doer.
type Middleware func(next Doer) Doer

// Chain wraps d with mws; the first middleware is the outermost.
func Chain(d Doer, mws ...Middleware) Doer {
	for i := len(mws) - 1; i >= 0; i-- {
		d = mws[i](d)
	}
	return d
}

// Bearer attaches "Authorization: Bearer <token>" to every request for which
// src yields a non-empty token.
func Bearer(src ports.TokenSource) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			if src == nil {
				return next.Do(req)
			}
			if tok := src.Token(); tok != "" {
				req = req.Clone(req.Context())
				req.Header.Set("Authorization", "Bearer "+tok)
			}
			return next.Do(req)
		})
	}
}

// Observer receives one report per finished call. status is 0 on transport failure.
type Observer func(op string, status int, elapsed time.Duration)

// Instrument reports every call to obs, labelled with the operation name.
func Instrument(obs Observer) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.Do(req)
			status := 0
			if err == nil {
				status = resp.StatusCode
			}
			obs(opFrom(req.Context()), status, time.Since(start))
			return resp, err
		})
	}
}

type opKey struct{}

func withOp(ctx context.Context, op string) context.Context {
	return context.WithValue(ctx, opKey{}, op)
}

func opFrom(ctx context.Context) string {
	op, _ := ctx.Value(opKey{}).(string)
	if op == "" {
		return "unknown"
	}
	return op
}
