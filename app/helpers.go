package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/sushihentaime/quill/internal/common"
)

type envelope map[string]any

// send writes payload in the representation named by the Accept header. Only exact
// values are recognised; anything else gets JSON.
func (app *application) send(w http.ResponseWriter, r *http.Request, status int, payload any) error {
	var (
		body        []byte
		contentType string
		err         error
	)

	switch r.Header.Get("Accept") {
	case "application/xml":
		body, err = marshalXML(payload)
		contentType = "application/xml"
	case "text/plain":
		body, err = json.Marshal(payload)
		contentType = "text/plain; charset=utf-8"
	default:
		body, err = json.MarshalIndent(payload, "", "\t")
		contentType = "application/json"
	}
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	w.Write(body)

	return nil
}

func (app *application) parseJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return common.BadRequest(fmt.Sprintf("request body contains badly-formed JSON (at character %d)", syntaxError.Offset))
		case errors.Is(err, io.ErrUnexpectedEOF):
			return common.BadRequest("request body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return common.BadRequest(fmt.Sprintf("request body contains an invalid value for the %q field", unmarshalTypeError.Field))
			}
			return common.BadRequest(fmt.Sprintf("request body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset))
		case errors.Is(err, io.EOF):
			return common.BadRequest("request body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return common.BadRequest(fmt.Sprintf("request body contains unknown field %s", fieldName))
		case errors.As(err, &maxBytesError):
			return common.BadRequest(fmt.Sprintf("request body must not be larger than %d bytes", maxBytesError.Limit))
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = decoder.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return common.BadRequest("request body must only contain a single JSON value")
	}

	return nil
}

func (app *application) readIDParam(r *http.Request, key string) (int, error) {
	params := httprouter.ParamsFromContext(r.Context())

	id, err := strconv.Atoi(params.ByName(key))
	if err != nil || id < 1 {
		return 0, common.BadRequest("invalid ID parameter")
	}

	return id, nil
}

func (app *application) readStringParam(r *http.Request, key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// readPageParams reads the page and limit query values. Absent values are returned as
// zero and resolved to the defaults by common.GetPagination.
func (app *application) readPageParams(r *http.Request) (int, int, error) {
	query := r.URL.Query()

	var page, limit int
	var err error

	if s := query.Get("page"); s != "" {
		page, err = strconv.Atoi(s)
		if err != nil {
			return 0, 0, common.BadRequest("invalid page parameter")
		}
	}

	if s := query.Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil {
			return 0, 0, common.BadRequest("invalid limit parameter")
		}
	}

	return page, limit, nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
