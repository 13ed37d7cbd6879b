package main

import (
	"net/http"

	"github.com/sushihentaime/quill/internal/blogservice"
	"github.com/sushihentaime/quill/internal/common"
)

// blogInput is the body of a blog create or update. A cover URL only ever comes from an
// uploaded image file. JSON bodies may send an empty coverImage to clear the cover, and
// multipart bodies send the value "null" for the same.
type blogInput struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	CoverImage *string `json:"coverImage"`
}

func (app *application) readBlogInput(w http.ResponseWriter, r *http.Request) (*blogInput, error) {
	var input blogInput

	if !isMultipart(r) {
		if err := app.parseJSON(w, r, &input); err != nil {
			return nil, err
		}
		if input.CoverImage != nil && *input.CoverImage != "" {
			return nil, common.BadRequest("coverImage must be uploaded as an image file")
		}
		return &input, nil
	}

	if err := app.parseMultipart(w, r); err != nil {
		return nil, err
	}

	input.Title = r.FormValue("title")
	input.Content = r.FormValue("content")
	if r.FormValue("coverImage") == "null" {
		empty := ""
		input.CoverImage = &empty
	}

	url, err := app.storeImage(w, r)
	if err != nil {
		return nil, err
	}
	if url != nil {
		input.CoverImage = url
	}

	return &input, nil
}

func (app *application) createBlogHandler(w http.ResponseWriter, r *http.Request) {
	input, err := app.readBlogInput(w, r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	claims := app.getClaimsContext(r)

	req := &blogservice.CreateBlogRequest{
		Title:      input.Title,
		Content:    input.Content,
		CoverImage: input.CoverImage,
	}

	blog, err := app.blogService.CreateBlog(r.Context(), claims.UserID, req)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusCreated, blog)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) getBlogHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	blog, err := app.blogService.GetBlog(r.Context(), id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, blog)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) listBlogsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	blogs, err := app.blogService.ListBlogs(r.Context(), page, limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, blogs)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) listUserBlogsHandler(w http.ResponseWriter, r *http.Request) {
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

	blogs, err := app.blogService.ListBlogsByUser(r.Context(), id, page, limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, blogs)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) searchBlogsHandler(w http.ResponseWriter, r *http.Request) {
	page, limit, err := app.readPageParams(r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	blogs, err := app.blogService.SearchBlogs(r.Context(), app.readStringParam(r, "keyword"), page, limit)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, blogs)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) updateBlogHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	input, err := app.readBlogInput(w, r)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	claims := app.getClaimsContext(r)

	req := &blogservice.UpdateBlogRequest{
		Title:      input.Title,
		Content:    input.Content,
		CoverImage: input.CoverImage,
	}

	blog, err := app.blogService.UpdateBlog(r.Context(), claims.UserID, id, req)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, blog)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) deleteBlogHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	claims := app.getClaimsContext(r)

	err = app.blogService.DeleteBlog(r.Context(), claims.UserID, id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, envelope{"message": "blog deleted"})
	if err != nil {
		app.errorResponse(w, r, err)
	}
}

func (app *application) likeBlogHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	claims := app.getClaimsContext(r)

	res, err := app.blogService.ToggleLike(r.Context(), claims.UserID, id)
	if err != nil {
		app.errorResponse(w, r, err)
		return
	}

	err = app.send(w, r, http.StatusOK, res)
	if err != nil {
		app.errorResponse(w, r, err)
	}
}
