package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"healthdir/internal/app"
	"healthdir/internal/domain"
)

const (
	maxMultipartMemory = 32 << 20
	maxJSONBody        = 4 << 20
	imageField         = "image"
)

// readFields decodes an admin request body into loose fields. JSON objects,
// multipart forms and urlencoded forms are accepted. For multipart requests
// the "image" file, when present, is returned as an upload; the caller must
// call the returned cleanup func.
func readFields(r *http.Request) (app.Fields, *domain.Upload, func(), error) {
	noop := func() {}
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch ct {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, nil, noop, &domain.ValidationError{Msg: "invalid multipart body: " + err.Error()}
		}
		in := formFields(r.MultipartForm.Value)
		f, hdr, err := r.FormFile(imageField)
		if errors.Is(err, http.ErrMissingFile) {
			return in, nil, func() { _ = r.MultipartForm.RemoveAll() }, nil
		}
		if err != nil {
			return nil, nil, noop, &domain.ValidationError{Field: imageField, Msg: err.Error()}
		}
		up := &domain.Upload{
			Filename:    hdr.Filename,
			ContentType: hdr.Header.Get("Content-Type"),
			Size:        hdr.Size,
			Body:        f,
		}
		return in, up, func() { f.Close(); _ = r.MultipartForm.RemoveAll() }, nil

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, nil, noop, &domain.ValidationError{Msg: "invalid form body: " + err.Error()}
		}
		return formFields(r.PostForm), nil, noop, nil
	}

	in := app.Fields{}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, noop, &domain.ValidationError{Msg: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	return in, nil, noop, nil
}

// formFields keeps single values as strings and repeated keys as lists.
func formFields(vals map[string][]string) app.Fields {
	in := make(app.Fields, len(vals))
	for k, v := range vals {
		k = strings.TrimSuffix(k, "[]")
		switch len(v) {
		case 0:
		case 1:
			in[k] = v[0]
		default:
			in[k] = v
		}
	}
	return in
}
