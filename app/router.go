package main

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/healthcheck", app.healthCheckHandler)

	// auth
	router.HandlerFunc(http.MethodPost, "/auth/signup", app.signupHandler)
	router.HandlerFunc(http.MethodPost, "/auth/signin", app.signinHandler)
	router.HandlerFunc(http.MethodPost, "/auth/signout", app.signoutHandler)
	router.HandlerFunc(http.MethodPost, "/auth/forgot-password", app.forgotPasswordHandler)
	router.HandlerFunc(http.MethodPut, "/auth/reset-password/:token", app.resetPasswordHandler)
	router.HandlerFunc(http.MethodPost, "/auth/refresh-token", app.refreshTokenHandler)

	// users
	router.HandlerFunc(http.MethodGet, "/user", app.listUsersHandler)
	router.HandlerFunc(http.MethodGet, "/user/:id", app.getUserHandler)
	router.HandlerFunc(http.MethodPut, "/user/:id", app.requireAuthUser(app.updateProfileHandler))
	router.HandlerFunc(http.MethodDelete, "/user/:id", app.requireAuthUser(app.deleteUserHandler))
	router.HandlerFunc(http.MethodPut, "/user/:id/:sub", app.nested(map[string]http.HandlerFunc{
		"password":      app.requireAuthUser(app.updatePasswordHandler),
		"profile-image": app.requireAuthUser(app.updateProfileImageHandler),
		"cover-image":   app.requireAuthUser(app.updateCoverImageHandler),
	}))

	// blogs
	router.HandlerFunc(http.MethodGet, "/blog", app.listBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/blog", app.requireAuthUser(app.createBlogHandler))
	router.HandlerFunc(http.MethodGet, "/blog/:id", app.getBlogHandler)
	router.HandlerFunc(http.MethodPut, "/blog/:id", app.requireAuthUser(app.updateBlogHandler))
	router.HandlerFunc(http.MethodDelete, "/blog/:id", app.requireAuthUser(app.deleteBlogHandler))
	router.HandlerFunc(http.MethodGet, "/blog/:id/:sub", app.nested(map[string]http.HandlerFunc{
		"user": app.listUserBlogsHandler,
	}))
	router.HandlerFunc(http.MethodPut, "/blog/:id/:sub", app.nested(map[string]http.HandlerFunc{
		"like": app.requireAuthUser(app.likeBlogHandler),
	}))

	// comments
	router.HandlerFunc(http.MethodPost, "/comment", app.requireAuthUser(app.postCommentHandler))
	router.HandlerFunc(http.MethodGet, "/comment/:id", app.getCommentHandler)
	router.HandlerFunc(http.MethodPut, "/comment/:id", app.requireAuthUser(app.updateCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/comment/:id", app.requireAuthUser(app.deleteCommentHandler))
	router.HandlerFunc(http.MethodGet, "/comment/:id/:sub", app.nested(map[string]http.HandlerFunc{
		"blog":  app.listBlogCommentsHandler,
		"reply": app.listRepliesHandler,
	}))
	router.HandlerFunc(http.MethodPut, "/comment/:id/:sub", app.nested(map[string]http.HandlerFunc{
		"like": app.requireAuthUser(app.likeCommentHandler),
	}))

	// search
	router.HandlerFunc(http.MethodGet, "/search/user/:keyword", app.searchUsersHandler)
	router.HandlerFunc(http.MethodGet, "/search/blog/:keyword", app.searchBlogsHandler)

	return app.recoverPanic(app.logRequest(app.cors(app.rateLimit(app.trackUploads(app.authenticate(router))))))
}

// nested serves routes of the form /resource/<section>/:id, which httprouter cannot register
// next to /resource/:id. The first segment selects the handler and the second is handed on
// as the id parameter.
func (app *application) nested(sections map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := httprouter.ParamsFromContext(r.Context())

		next, ok := sections[params.ByName("id")]
		if !ok {
			app.notFoundErrorResponse(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), httprouter.ParamsKey, httprouter.Params{
			{Key: "id", Value: params.ByName("sub")},
		})
		next(w, r.WithContext(ctx))
	}
}
