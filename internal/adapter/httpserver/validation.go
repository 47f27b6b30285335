package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/pkg/textx"
)

// maxBodyBytes caps request bodies independently of MaxInputChars so a
// client cannot stream unbounded JSON.
const maxBodyBytes = 1 << 20

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() {
		vld = validator.New()
		vld.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return vld
}

// acceptsJSON rejects clients that explicitly ask for something other than JSON.
func acceptsJSON(w http.ResponseWriter, r *http.Request) bool {
	a := r.Header.Get("Accept")
	if a == "" || strings.Contains(a, "*/*") || strings.Contains(a, "application/json") {
		return true
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusNotAcceptable)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: apiError{
		Code:    "INVALID_ARGUMENT",
		Message: "not acceptable",
		Details: map[string]any{"accept": a},
	}})
	return false
}

// decodeRequest reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether to continue.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !acceptsJSON(w, r) {
		return false
	}
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		writeError(w, r, fmt.Errorf("%w: content-type must be application/json", domain.ErrInvalidArgument), nil)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorEnvelope{Error: apiError{
				Code:    "INVALID_ARGUMENT",
				Message: "payload too large",
				Details: map[string]any{"max_bytes": mbe.Limit},
			}})
			return false
		}
		writeError(w, r, fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidArgument, err), nil)
		return false
	}
	if err := getValidator().Struct(dst); err != nil {
		writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) map[string]string {
	out := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			_, field, _ := strings.Cut(fe.Namespace(), ".")
			out[field] = fe.Tag()
		}
	}
	return out
}

// checkInputLength enforces the configured character cap on free text.
func checkInputLength(w http.ResponseWriter, r *http.Request, limit int, fields map[string]string) bool {
	if limit <= 0 {
		return true
	}
	tag := fmt.Sprintf("max=%d", limit)
	details := map[string]string{}
	for name, v := range fields {
		if err := getValidator().Var(v, tag); err != nil {
			details[name] = tag
		}
	}
	if len(details) == 0 {
		return true
	}
	writeError(w, r, fmt.Errorf("%w: input too long", domain.ErrInvalidArgument), details)
	return false
}

// clean strips control characters from caller text before it reaches a prompt.
func clean(s string) string { return textx.SanitizeText(s) }
