package utils

import (
	"encoding/json"
	"net/http"

	"github.com/zjoart/go-paystack-logistics/pkg/apperrors"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func BuildSuccessResponse(w http.ResponseWriter, code int, message string, data interface{}) {
	WriteJSON(w, code, Response{Status: "success", Message: message, Data: data})
}

func BuildErrorResponse(w http.ResponseWriter, code int, message string, errs interface{}) {
	WriteJSON(w, code, Response{Status: "error", Message: message, Errors: errs})
}

// BuildWarningResponse reports an outcome where a durable effect happened but a
// dependent one did not. Clients must not treat it as plain success.
func BuildWarningResponse(w http.ResponseWriter, code int, message string, data interface{}) {
	WriteJSON(w, code, Response{Status: "warning", Message: message, Data: data})
}

// BuildAppErrorResponse writes err with the status its kind maps to. Errors
// outside the taxonomy are logged and reported as a generic 500.
func BuildAppErrorResponse(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		logger.Error("Unclassified error", logger.WithError(err))
		BuildErrorResponse(w, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	errs := map[string]interface{}{"kind": appErr.Kind}
	for k, v := range appErr.Details {
		errs[k] = v
	}
	BuildErrorResponse(w, apperrors.HTTPStatus(appErr), appErr.Message, errs)
}

// WriteJSON writes body as the JSON response with the given status.
func WriteJSON(w http.ResponseWriter, code int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", logger.WithError(err))
	}
}
