package reading

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
)

var ErrNotFound = errors.New("reading progress not found")

type (
	Repository interface {
		// AdvanceProgress upserts the user's cursor, keeping the greater of
		// the stored and submitted page so progress never regresses.
		AdvanceProgress(ctx context.Context, userID string, globalPage int, at time.Time, exec ...core.DBExecutor) (Progress, error)
		GetProgress(ctx context.Context, userID string, exec ...core.DBExecutor) (Progress, error)
		// AddCompletedChapter adds idx to the completed set; re-adding is a no-op.
		AddCompletedChapter(ctx context.Context, userID string, idx int, at time.Time, exec ...core.DBExecutor) (Progress, error)
		CreateBookmark(ctx context.Context, bm Bookmark, exec ...core.DBExecutor) (Bookmark, error)
		DeleteBookmark(ctx context.Context, userID, id string, exec ...core.DBExecutor) error
		QueryUserBookmarks(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Bookmark, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Advance moves the user's cursor to the given section page. The stored
// global page is monotonic: revisiting an earlier page leaves it unchanged.
func (svc *Service) Advance(ctx context.Context, userID, sectionID string, localPage int) (Progress, error) {
	global, err := GlobalPage(sectionID, localPage)
	if err != nil {
		return Progress{}, core.NewValidationError(err)
	}
	return svc.repo.AdvanceProgress(ctx, userID, global, time.Now().UTC())
}

// Get returns the user's progress; a user who never advanced gets the
// zero cursor rather than an error.
func (svc *Service) Get(ctx context.Context, userID string) (Progress, error) {
	prog, err := svc.repo.GetProgress(ctx, userID)
	if errors.Cause(err) == ErrNotFound {
		return Progress{UserID: userID}, nil
	}
	return prog, err
}

// CompleteChapter records that the reader exited the last page of chapter
// idx moving forward. Set semantics: completing twice changes nothing.
func (svc *Service) CompleteChapter(ctx context.Context, userID string, idx int) (Progress, error) {
	if idx < 0 || idx >= len(Sections) {
		return Progress{}, core.NewValidationError(ErrUnknownSection)
	}
	return svc.repo.AddCompletedChapter(ctx, userID, idx, time.Now().UTC())
}

// HasFinishedBook reports whether every chapter is complete.
func (svc *Service) HasFinishedBook(ctx context.Context, userID string) (bool, error) {
	prog, err := svc.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return len(prog.CompletedChapters) >= len(Sections), nil
}

func (svc *Service) AddBookmark(ctx context.Context, userID, pageID string) (Bookmark, error) {
	return svc.repo.CreateBookmark(ctx, Bookmark{
		UserID:    userID,
		PageID:    pageID,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) RemoveBookmark(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteBookmark(ctx, userID, id)
}

func (svc *Service) Bookmarks(ctx context.Context, userID string) ([]Bookmark, error) {
	return svc.repo.QueryUserBookmarks(ctx, userID)
}
