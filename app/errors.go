package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sushihentaime/quill/internal/common"
	"github.com/sushihentaime/quill/internal/storage"
)

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Stack      string `json:"stack,omitempty"`
}

func (app *application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		url    = r.URL.RequestURI()
	)

	if app.config.development() {
		app.logger.Error(err.Error(), slog.String("method", method), slog.String("url", url), slog.String("stack", fmt.Sprintf("%+v", err)))
		return
	}

	app.logger.Error(err.Error(), slog.String("method", method), slog.String("url", url))
}

// errorResponse is the single exit for failed requests. It releases blobs uploaded during
// the request and clears the auth cookie on 401.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	e := common.AsError(err)
	status := e.StatusCode()

	if status == http.StatusInternalServerError {
		app.logError(r, err)
	}

	if u := app.getUploadsContext(r); u != nil {
		for _, url := range u.drain() {
			storage.Release(r.Context(), app.store, app.logger, &url)
		}
	}

	if status == http.StatusUnauthorized {
		clearAuthCookie(w)
	}

	body := errorBody{StatusCode: status, Message: e.Error()}
	if app.config.development() {
		body.Stack = fmt.Sprintf("%+v", err)
	}

	if err := app.send(w, r, status, body); err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *application) notFoundErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, common.NotFound("resource not found"))
}

func (app *application) methodNotAllowedErrorResponse(w http.ResponseWriter, r *http.Request) {
	body := errorBody{StatusCode: http.StatusMethodNotAllowed, Message: "method not allowed"}
	if err := app.send(w, r, http.StatusMethodNotAllowed, body); err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}
