package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds JSON request bodies. Code projects and PEM bundles
// are the largest payloads.
const maxBodyBytes = 4 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// Decode parses a JSON body into v and validates it. Use it for bodies
// declared in this package.
func Decode(r *http.Request, v any) error {
	if err := DecodeJSON(r, v); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

// DecodeJSON parses a JSON body into v without validating it. Service
// inputs are validated by the service itself.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("invalid JSON: empty body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("invalid JSON: empty body")
		}
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

type TwoFactorVerify struct {
	Token  string `json:"token" validate:"required,numeric,len=6"`
	Secret string `json:"secret" validate:"required"`
}

type TwoFactorDisable struct {
	Password string `json:"password" validate:"required"`
}

// UploadFile is one entry of a JSON upload request. Browsers normally use
// multipart instead; see the file handler.
type UploadFile struct {
	Name     string `json:"name" validate:"required"`
	Size     int64  `json:"size" validate:"gte=0"`
	MimeType string `json:"mimeType"`
}

type Upload struct {
	Path  string       `json:"path"`
	Files []UploadFile `json:"files" validate:"required,min=1,dive"`
}
