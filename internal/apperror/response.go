package apperror

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response is the JSON body of every error the API returns.
type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Body is what a client may see of e. Internal and dependency failures get
// the generic status text.
func (e *Error) Body() Response {
	message := e.Message
	if !e.Public() {
		message = http.StatusText(e.Kind.Status())
	}
	return Response{Code: e.Kind.Code(), Message: message}
}

// Write sends err with the status its kind maps to.
func Write(w http.ResponseWriter, err error) {
	appErr := From(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Kind.Status())
	encodeErr := json.NewEncoder(w).Encode(appErr.Body())
	if encodeErr != nil {
		slog.Error("failed to encode error response", "error", encodeErr)
	}
}
