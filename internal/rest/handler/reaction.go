package handler

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/mythril-io/mythril/internal/database/dbretry"
	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/mythril-io/mythril/internal/database/types/enum"
	"github.com/mythril-io/mythril/internal/rest/convert"
	"github.com/mythril-io/mythril/internal/rest/middleware/bearer"
	restTypes "github.com/mythril-io/mythril/internal/rest/types"
	"github.com/uptrace/bunrouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReactionLedger is the part of the reaction service the handlers use.
type ReactionLedger interface {
	React(ctx context.Context, userID int64, targetType string, targetID int64, value enum.ReactionValue) (types.ReactionOutcome, error)
	Remove(ctx context.Context, userID int64, targetType string, targetID int64) error
	GetCount(ctx context.Context, targetType string, targetID int64) (*types.ReactionCount, error)
	CountMany(ctx context.Context, targetType string, targetIDs []int64) (map[int64]*types.ReactionCount, error)
	GetUserSentiment(ctx context.Context, userID int64, targetType string, targetID int64) (enum.Sentiment, error)
	TargetExists(ctx context.Context, targetType string, targetID int64) (bool, error)
}

// ReactionHandler handles like and dislike endpoints.
type ReactionHandler struct {
	ledger ReactionLedger
	logger *zap.Logger
}

// NewReactionHandler creates a new reaction handler.
func NewReactionHandler(ledger ReactionLedger, logger *zap.Logger) *ReactionHandler {
	return &ReactionHandler{
		ledger: ledger,
		logger: logger.Named("reaction_handler"),
	}
}

// GetCount returns the like and dislike totals of a target.
func (h *ReactionHandler) GetCount(w http.ResponseWriter, req bunrouter.Request) error {
	targetType, targetID, err := parseTarget(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	count, err := dbretry.Operation(req.Context(), func(ctx context.Context) (*types.ReactionCount, error) {
		return h.ledger.GetCount(ctx, targetType, targetID)
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, convert.ReactionCount(count))
}

// GetCounts returns the totals of every target listed in the ids query parameter.
func (h *ReactionHandler) GetCounts(w http.ResponseWriter, req bunrouter.Request) error {
	targetType := types.NormalizeTargetType(req.Param("type"))
	ids, err := parseIDList(req.URL.Query().Get("ids"))
	if err != nil {
		return writeError(w, h.logger, err)
	}

	counts, err := dbretry.Operation(req.Context(), func(ctx context.Context) (map[int64]*types.ReactionCount, error) {
		return h.ledger.CountMany(ctx, targetType, ids)
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, convert.BatchCount(targetType, ids, counts))
}

// GetSentiment returns the caller's current reaction to a target.
func (h *ReactionHandler) GetSentiment(w http.ResponseWriter, req bunrouter.Request) error {
	userID, _ := bearer.UserID(req.Context())
	targetType, targetID, err := parseTarget(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	sentiment, err := dbretry.Operation(req.Context(), func(ctx context.Context) (enum.Sentiment, error) {
		return h.ledger.GetUserSentiment(ctx, userID, targetType, targetID)
	})
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, restTypes.SentimentResponse{UserSentiment: sentiment})
}

// React records a like or dislike and returns the target's new state.
// Sending the current value again removes the reaction.
func (h *ReactionHandler) React(w http.ResponseWriter, req bunrouter.Request) error {
	userID, _ := bearer.UserID(req.Context())
	targetType, targetID, err := parseTarget(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	var body restTypes.ReactRequest
	if err := sonic.ConfigDefault.NewDecoder(req.Body).Decode(&body); err != nil {
		return writeError(w, h.logger, fmt.Errorf("%w: malformed request body", types.ErrInvalidArgument))
	}
	if body.Value == nil || *body.Value < 0 || *body.Value > math.MaxInt16 {
		return writeError(w, h.logger, types.ErrInvalidReactionValue)
	}

	if err := h.ensureTarget(req.Context(), targetType, targetID); err != nil {
		return writeError(w, h.logger, err)
	}

	outcome, err := h.ledger.React(req.Context(), userID, targetType, targetID, enum.ReactionValue(*body.Value))
	if err != nil {
		return writeError(w, h.logger, err)
	}

	return h.writeState(req.Context(), w, outcome, userID, targetType, targetID)
}

// Remove deletes the caller's reaction to a target.
func (h *ReactionHandler) Remove(w http.ResponseWriter, req bunrouter.Request) error {
	userID, _ := bearer.UserID(req.Context())
	targetType, targetID, err := parseTarget(req)
	if err != nil {
		return writeError(w, h.logger, err)
	}

	if err := h.ensureTarget(req.Context(), targetType, targetID); err != nil {
		return writeError(w, h.logger, err)
	}

	if err := h.ledger.Remove(req.Context(), userID, targetType, targetID); err != nil {
		return writeError(w, h.logger, err)
	}

	return h.writeState(req.Context(), w, types.OutcomeRemoved, userID, targetType, targetID)
}

// ensureTarget rejects writes to targets that do not exist.
func (h *ReactionHandler) ensureTarget(ctx context.Context, targetType string, targetID int64) error {
	exists, err := dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		return h.ledger.TargetExists(ctx, targetType, targetID)
	})
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s %d: %w", targetType, targetID, types.ErrTargetNotFound)
	}
	return nil
}

// writeState re-reads the totals and the caller's sentiment after a write.
func (h *ReactionHandler) writeState(
	ctx context.Context, w http.ResponseWriter, outcome types.ReactionOutcome,
	userID int64, targetType string, targetID int64,
) error {
	var (
		count     *types.ReactionCount
		sentiment enum.Sentiment
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		count, err = dbretry.Operation(ctx, func(ctx context.Context) (*types.ReactionCount, error) {
			return h.ledger.GetCount(ctx, targetType, targetID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		sentiment, err = dbretry.Operation(ctx, func(ctx context.Context) (enum.Sentiment, error) {
			return h.ledger.GetUserSentiment(ctx, userID, targetType, targetID)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return writeError(w, h.logger, err)
	}

	return writeJSON(w, http.StatusOK, convert.ReactionState(outcome, count, sentiment))
}

// parseTarget reads the discriminator and identifier from the route.
func parseTarget(req bunrouter.Request) (string, int64, error) {
	targetID, err := parseID(req.Param("id"))
	if err != nil {
		return "", 0, err
	}
	return types.NormalizeTargetType(req.Param("type")), targetID, nil
}

// parseIDList parses a comma separated list of identifiers, dropping duplicates.
func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: ids query parameter is required", types.ErrInvalidArgument)
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	seen := make(map[int64]struct{}, len(parts))
	for _, part := range parts {
		id, err := parseID(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
