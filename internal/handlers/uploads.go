package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
)

// formFile converts a parsed multipart field into a typed upload descriptor.
// A missing field yields nil (optionality is decided by the caller); more
// than one file per field is rejected at this boundary.
func formFile(r *http.Request, field string) (*auth.FileRef, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File[field]
	switch len(headers) {
	case 0:
		return nil, nil
	case 1:
	default:
		return nil, apperr.E(apperr.KindValidation, fmt.Sprintf("at most one %s file is allowed", field))
	}

	header := headers[0]
	return &auth.FileRef{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}, nil
}
