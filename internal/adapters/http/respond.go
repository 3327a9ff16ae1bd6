package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"parky/internal/application/orchestrators"
	"parky/internal/application/projections"
	"parky/internal/domain/vehicle"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// validate checks request DTOs and reports fields by their JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	Partial bool              `json:"partial,omitempty"`
	Applied []string          `json:"applied,omitempty"`
	Failed  []string          `json:"failed,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode_response_failed", "error", err)
	}
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

// decodeJSON decodes a size-capped body, rejecting unknown fields, then validates it.
// It writes the error response itself and reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON"})
		return false
	}
	if err := validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid input"})
			return false
		}
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[jsonFieldPath(fe.Namespace())] = fe.Tag()
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "validation failed", Fields: fields})
		return false
	}
	return true
}

// jsonFieldPath drops the root struct name from a validator namespace.
func jsonFieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// writeError maps application error kinds onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var partial *orchestrators.PartialWriteError
	switch {
	case errors.As(err, &partial):
		slog.Error("partial_write", "op", partial.Op, "applied", partial.Applied, "failed", partial.Failed, "error", partial.Err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   "the change was only partially applied",
			Partial: true,
			Applied: partial.Applied,
			Failed:  partial.Failed,
		})
	case errors.Is(err, orchestrators.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, projections.ErrInvalidQuery):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, orchestrators.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, orchestrators.ErrEmailTaken),
		errors.Is(err, vehicle.ErrMultipleActiveVehicles):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, orchestrators.ErrNotificationFailed):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "credential email could not be sent; nothing was saved"})
	default:
		internalError(w, err)
	}
}
