package main

import (
	"context"
	"net/http"
	"sync"

	"github.com/sushihentaime/quill/internal/userservice"
)

type contextKey string

const (
	claimsContextKey  = contextKey("claims")
	uploadsContextKey = contextKey("uploads")
	authErrContextKey = contextKey("authErr")
)

func (app *application) createClaimsContext(r *http.Request, claims *userservice.Claims) *http.Request {
	ctx := context.WithValue(r.Context(), claimsContextKey, claims)
	return r.WithContext(ctx)
}

// getClaimsContext returns the claims of the signed in user, or nil for an anonymous request.
func (app *application) getClaimsContext(r *http.Request) *userservice.Claims {
	claims, ok := r.Context().Value(claimsContextKey).(*userservice.Claims)
	if !ok {
		return nil
	}
	return claims
}

// createAuthErrContext remembers why the presented token was rejected, so a protected route
// can answer with that error while public routes serve the request anonymously.
func (app *application) createAuthErrContext(r *http.Request, err error) *http.Request {
	ctx := context.WithValue(r.Context(), authErrContextKey, err)
	return r.WithContext(ctx)
}

func (app *application) getAuthErrContext(r *http.Request) error {
	err, _ := r.Context().Value(authErrContextKey).(error)
	return err
}

// uploads records the blobs stored while handling one request.
type uploads struct {
	mu   sync.Mutex
	urls []string
}

func (u *uploads) add(url string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.urls = append(u.urls, url)
}

func (u *uploads) drain() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	urls := u.urls
	u.urls = nil
	return urls
}

func (app *application) createUploadsContext(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), uploadsContextKey, &uploads{})
	return r.WithContext(ctx)
}

func (app *application) getUploadsContext(r *http.Request) *uploads {
	u, ok := r.Context().Value(uploadsContextKey).(*uploads)
	if !ok {
		return nil
	}
	return u
}
