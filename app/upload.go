package main

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/sushihentaime/quill/internal/common"
)

const (
	imageField     = "image"
	maxUploadBytes = 5 << 20
)

// parseMultipart parses a multipart body once per request.
func (app *application) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			return common.BadRequest("image must not be larger than 5MB")
		}
		return common.BadRequest("request body must be valid multipart form data")
	}

	return nil
}

// storeImage uploads the image field of a multipart request and returns its public URL,
// or nil when the request carries no image. Stored URLs are recorded on the request so
// they can be released again should the request fail.
func (app *application) storeImage(w http.ResponseWriter, r *http.Request) (*string, error) {
	if !isMultipart(r) {
		return nil, nil
	}

	if err := app.parseMultipart(w, r); err != nil {
		return nil, err
	}

	file, _, err := r.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, common.BadRequest("image could not be read")
	}
	defer file.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, common.BadRequest("image could not be read")
	}

	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return nil, common.BadRequest("image must be an image file")
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	url, err := app.store.Store(r.Context(), file, contentType)
	if err != nil {
		return nil, err
	}

	if u := app.getUploadsContext(r); u != nil {
		u.add(url)
	}

	return &url, nil
}
