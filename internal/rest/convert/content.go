package convert

import (
	"github.com/mythril-io/mythril/internal/database/types"
	restTypes "github.com/mythril-io/mythril/internal/rest/types"
)

// Review converts a database review to REST API review.
func Review(review *types.Review) restTypes.Review {
	return restTypes.Review{
		ID:        review.ID,
		Summary:   review.Summary,
		Content:   review.Content,
		Score:     review.Score,
		UserID:    review.UserID,
		GameID:    review.GameID,
		ReleaseID: review.ReleaseID,
		Likes:     review.Likes,
		Dislikes:  review.Dislikes,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}

// Discussion converts a database discussion to REST API discussion.
func Discussion(discussion *types.Discussion) restTypes.Discussion {
	return restTypes.Discussion{
		ID:           discussion.ID,
		Title:        discussion.Title,
		Slug:         discussion.Slug,
		Body:         discussion.Body,
		UserID:       discussion.UserID,
		ViewCount:    discussion.ViewCount,
		PostCount:    discussion.PostCount,
		IsPinned:     discussion.IsPinned,
		IsLocked:     discussion.IsLocked,
		Likes:        discussion.Likes,
		Dislikes:     discussion.Dislikes,
		LastPostedAt: discussion.LastPostedAt,
		CreatedAt:    discussion.CreatedAt,
		UpdatedAt:    discussion.UpdatedAt,
	}
}

// Post converts a database post to REST API post.
func Post(post *types.Post) restTypes.Post {
	return restTypes.Post{
		ID:           post.ID,
		Body:         post.Body,
		UserID:       post.UserID,
		DiscussionID: post.DiscussionID,
		ParentPostID: post.ParentPostID,
		EditCount:    post.EditCount,
		Likes:        post.Likes,
		Dislikes:     post.Dislikes,
		CreatedAt:    post.CreatedAt,
		UpdatedAt:    post.UpdatedAt,
	}
}

// Page converts a database page, mapping every item with fn.
func Page[S, T any](page *types.Page[S], fn func(S) T) restTypes.Page[T] {
	items := make([]T, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, fn(item))
	}

	result := restTypes.Page[T]{
		Items:   items,
		HasNext: page.HasNext(),
		HasPrev: page.HasPrev(),
		Page:    page.Page,
		PerPage: page.PerPage,
		Pages:   page.Pages(),
		Total:   page.Total,
	}
	if result.HasNext {
		next := page.Page + 1
		result.NextNum = &next
	}
	if result.HasPrev {
		prev := page.Page - 1
		result.PrevNum = &prev
	}
	return result
}
