package main

import (
	"net/http"

	"github.com/sushihentaime/quill/internal/commentservice"
)

func (app *application) postCommentHandler(w http.ResponseWriter, r *http.Request) {
	var input commentservice.PostCommentRequest

	err := app.parseJSON(w, r, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	claims := app.getClaimsContext(r)

	comment, err := app.commentService.PostComment(r.Context(), claims.UserID, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusCreated, comment)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) getCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	comment, err := app.commentService.GetComment(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, comment)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) updateCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	var input commentservice.UpdateCommentRequest

	err = app.parseJSON(w, r, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	claims := app.getClaimsContext(r)

	comment, err := app.commentService.UpdateComment(r.Context(), claims.UserID, id, &input)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, comment)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	claims := app.getClaimsContext(r)

	err = app.commentService.DeleteComment(r.Context(), claims.UserID, id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, envelope{"message": "comment deleted"})
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) likeCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	claims := app.getClaimsContext(r)

	res, err := app.commentService.ToggleLike(r.Context(), claims.UserID, id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, res)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) listBlogCommentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	comments, err := app.commentService.ListBlogComments(r.Context(), id, page, limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, comments)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) listRepliesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	comments, err := app.commentService.ListReplies(r.Context(), id, page, limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, comments)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}
