package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/sakif/package-registry/internal/apperror"
	"github.com/sakif/package-registry/internal/model"
	"github.com/sakif/package-registry/internal/repository"
)

// Paging limits shared by every paginated listing.
const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// FeedService assembles the update feed of a user's followed packages.
type FeedService struct {
	feed   repository.FeedRepository
	logger *slog.Logger
}

func NewFeedService(feed repository.FeedRepository, logger *slog.Logger) *FeedService {
	return &FeedService{feed: feed, logger: logger}
}

// Updates returns one page of versions, newest first.
//
// WHY FETCH perPage+1 ROWS?
// The response carries a "more" flag. Counting every followed version on each
// request would cost a second query over the whole feed. Instead one row past
// the page is requested: if it comes back, there is a next page, More is set
// and the extra row is dropped before returning.
//
//	perPage=10, 11 rows back → 10 returned, More=true
//	perPage=10,  7 rows back →  7 returned, More=false
func (s *FeedService) Updates(ctx context.Context, userID int64, page, perPage int) (*model.Feed, error) {
	if userID <= 0 {
		return nil, apperror.AuthRequired()
	}
	offset, err := pageWindow(page, perPage)
	if err != nil {
		return nil, err
	}

	rows, err := s.feed.Updates(ctx, userID, repository.ListOptions{
		Limit:  perPage + 1,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("loading updates for user %d: %w", userID, err)
	}

	more := len(rows) > perPage
	if more {
		rows = rows[:perPage]
	}
	return &model.Feed{Versions: rows, More: more}, nil
}

// pageWindow validates 1-based paging parameters and returns the row offset.
//
// The offset (page-1)*perPage must fit in an int: a page far enough out to
// overflow it is a validation error, not a wrapped-around offset.
func pageWindow(page, perPage int) (int, error) {
	if page < 1 {
		return 0, apperror.ValidationFailed("page", "page must be 1 or greater")
	}
	if perPage < 1 || perPage > MaxPerPage {
		return 0, apperror.ValidationFailed("per_page",
			fmt.Sprintf("per_page must be between 1 and %d", MaxPerPage))
	}
	if page-1 > math.MaxInt/perPage {
		return 0, apperror.ValidationFailed("page", "page is out of range")
	}
	return (page - 1) * perPage, nil
}
