package convert

import (
	"github.com/mythril-io/mythril/internal/database/types"
	"github.com/mythril-io/mythril/internal/database/types/enum"
	restTypes "github.com/mythril-io/mythril/internal/rest/types"
)

// ReactionCount converts database totals to REST API totals.
func ReactionCount(count *types.ReactionCount) restTypes.ReactionCount {
	if count == nil {
		return restTypes.ReactionCount{}
	}
	return restTypes.ReactionCount{
		LikeCount:    count.LikeCount,
		DislikeCount: count.DislikeCount,
	}
}

// BatchCount converts batch totals, keeping the order of the requested ids.
func BatchCount(targetType string, ids []int64, counts map[int64]*types.ReactionCount) restTypes.BatchCountResponse {
	result := restTypes.BatchCountResponse{
		TargetType: targetType,
		Counts:     make([]restTypes.TargetCount, 0, len(ids)),
	}
	for _, id := range ids {
		count := ReactionCount(counts[id])
		result.Counts = append(result.Counts, restTypes.TargetCount{
			TargetID:     id,
			LikeCount:    count.LikeCount,
			DislikeCount: count.DislikeCount,
		})
	}
	return result
}

// ReactionState builds the response of a reaction write.
func ReactionState(
	outcome types.ReactionOutcome, count *types.ReactionCount, sentiment enum.Sentiment,
) restTypes.ReactionStateResponse {
	totals := ReactionCount(count)
	return restTypes.ReactionStateResponse{
		Outcome:       string(outcome),
		LikeCount:     totals.LikeCount,
		DislikeCount:  totals.DislikeCount,
		UserSentiment: sentiment,
	}
}
