package validators

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/outbox"
)

const (
	// MaxAttachmentBytes caps uploaded documents at 10 MiB.
	MaxAttachmentBytes = 10 << 20

	pdfContentType = "application/pdf"
)

var pdfMagic = []byte("%PDF-")

// ParsePDFAttachment reads one uploaded PDF from a multipart form field.
// Returns nil when the field is absent and required is false.
func ParsePDFAttachment(r *http.Request, field string, required bool) (*outbox.Attachment, error) {
	if err := r.ParseMultipartForm(MaxAttachmentBytes); err != nil {
		if required {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "multipart form required")
		}
		return nil, nil
	}

	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		if required {
			return nil, pkgerrors.MissingFields("attachment required", []string{field})
		}
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading attachment")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxAttachmentBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading attachment")
	}
	if len(data) > MaxAttachmentBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "attachment too large").
			WithDetails(map[string]any{"field": field, "max_bytes": MaxAttachmentBytes})
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "attachment must be a PDF").
			WithDetails(map[string]any{"field": field})
	}

	filename := strings.TrimSpace(header.Filename)
	if filename == "" {
		filename = field + ".pdf"
	}
	return &outbox.Attachment{
		Filename:    filename,
		ContentType: pdfContentType,
		Data:        data,
	}, nil
}
