package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/sushihentaime/quill/internal/common"
	"golang.org/x/time/rate"
)

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")
				app.errorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *application) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			ip     = r.RemoteAddr
			method = r.Method
			proto  = r.Proto
			uri    = r.URL.RequestURI()
		)

		app.logger.Info("request from", slog.String("method", method), slog.String("uri", uri), slog.String("remote_addr", ip), slog.String("proto", proto))

		next.ServeHTTP(w, r)
	})
}

func (app *application) trackUploads(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, app.createUploadsContext(r))
	})
}

// cors allows credentialed requests from the trusted origins so the auth cookie travels
// with cross-site calls.
func (app *application) cors(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   app.config.TrustedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	return c.Handler(next)
}

// rateLimit applies a token bucket per client IP. Idle clients are forgotten after three minutes.
func (app *application) rateLimit(next http.Handler) http.Handler {
	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)

	go func() {
		for {
			time.Sleep(time.Minute)

			mu.Lock()
			for ip, c := range clients {
				if time.Since(c.lastSeen) > 3*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.config.RateLimitRPS <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		mu.Lock()
		c, ok := clients[ip]
		if !ok {
			c = &client{limiter: rate.NewLimiter(rate.Limit(app.config.RateLimitRPS), app.config.RateLimitBurst)}
			clients[ip] = c
		}
		c.lastSeen = time.Now()
		allowed := c.limiter.Allow()
		mu.Unlock()

		if !allowed {
			body := errorBody{StatusCode: http.StatusTooManyRequests, Message: "rate limit exceeded"}
			if err := app.send(w, r, http.StatusTooManyRequests, body); err != nil {
				app.logError(r, err)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authenticate reads the access token from the auth cookie, falling back to a bearer
// Authorization header. Requests without a valid token pass through anonymously and
// requireAuthUser rejects them on protected routes.
func (app *application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")
		w.Header().Add("Vary", "Cookie")

		token := app.extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := app.authService.Authenticate(token)
		if err != nil {
			next.ServeHTTP(w, app.createAuthErrContext(r, err))
			return
		}

		next.ServeHTTP(w, app.createClaimsContext(r, claims))
	})
}

func (app *application) extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(authCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" {
		return ""
	}

	return headerParts[1]
}

func (app *application) requireAuthUser(next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.getClaimsContext(r) == nil {
			if err := app.getAuthErrContext(r); err != nil {
				app.errorResponse(w, r, err)
				return
			}
			app.errorResponse(w, r, common.Unauthorized("you must be signed in to access this resource"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
