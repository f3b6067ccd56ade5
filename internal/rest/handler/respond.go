package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/mythril-io/mythril/internal/rest/reply"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
)

const (
	msgStorageUnavailable = "reaction storage unavailable"
	msgInternalError      = "internal server error"
)

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	return reply.JSON(w, status, v)
}

// writeError maps an error to its HTTP status and writes it as JSON.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) error {
	status, message := errorStatus(err)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	case status != http.StatusNotFound:
		logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}
	return reply.Error(w, status, message)
}

// errorStatus returns the HTTP status and public message for an error.
func errorStatus(err error) (int, string) {
	var perr *types.PersistenceError
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, types.ErrReactionNotFound),
		errors.Is(err, types.ErrTargetNotFound),
		errors.Is(err, types.ErrReviewNotFound),
		errors.Is(err, types.ErrDiscussionNotFound),
		errors.Is(err, types.ErrPostNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, types.ErrReactionConflict):
		return http.StatusConflict, "reaction changed concurrently, retry the request"
	case errors.As(err, &perr):
		return http.StatusServiceUnavailable, msgStorageUnavailable
	default:
		return http.StatusInternalServerError, msgInternalError
	}
}

// parseID parses a positive numeric identifier.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, types.ErrInvalidIdentifier
	}
	return id, nil
}

// pageOf reads the page from the route, or from the page query parameter
// on routes without a page segment.
func pageOf(req bunrouter.Request) int {
	if raw := req.Param("page"); raw != "" {
		return parsePage(raw)
	}
	return parsePage(req.URL.Query().Get("page"))
}

// parsePage parses a page number, falling back to the first page.
func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
