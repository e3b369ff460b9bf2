package httputil

import (
	"encoding/json"
	"net/http"

	"jmgallery/internal/model"
)

// Envelope is the response shape shared by every JSON endpoint:
// {success, message?, errors?, data?, token?, user?}.
// Validation and not-found failures keep HTTP 200 with success=false;
// only auth failures (401) and unexpected errors (500) carry error statuses.
type Envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Errors  model.ValidationErrors `json:"errors,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
	Token   string                 `json:"token,omitempty"`
	User    interface{}            `json:"user,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// If encoding fails, headers are already sent; nothing to do
			return
		}
	}
}

// WriteSuccess writes a success envelope with a message.
func WriteSuccess(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message})
}

// WriteData writes a success envelope carrying a data payload.
func WriteData(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// WriteFail writes a success=false envelope with HTTP 200. Used for
// validation-adjacent and not-owned/not-found outcomes.
func WriteFail(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: false, Message: message})
}

// WriteValidationErrors writes the structured field errors object.
func WriteValidationErrors(w http.ResponseWriter, errs model.ValidationErrors) {
	WriteJSON(w, http.StatusOK, Envelope{Success: false, Errors: errs})
}

// WriteUnauthorized writes a 401 with the envelope shape.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusUnauthorized, Envelope{Success: false, Message: message})
}

// WriteNotFound writes a 404 with the envelope shape.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusNotFound, Envelope{Success: false, Message: message})
}

// WriteInternalError writes a 500 exposing the underlying message.
// The trust boundary here does not require hiding internal error detail.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusInternalServerError, Envelope{Success: false, Message: message})
}
