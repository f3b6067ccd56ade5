// Package reply writes JSON response bodies shared by handlers and middleware.
package reply

import (
	"net/http"

	"github.com/bytedance/sonic"
	restTypes "github.com/mythril-io/mythril/internal/rest/types"
)

// JSON encodes v as the response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return sonic.ConfigDefault.NewEncoder(w).Encode(v)
}

// Error writes message as an error body with the given status.
func Error(w http.ResponseWriter, status int, message string) error {
	return JSON(w, status, restTypes.ErrorResponse{Message: message})
}
