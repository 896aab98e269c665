package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/reading"
)

type readingRepository struct {
	db *readingTable
}

var _ reading.Repository = (*readingRepository)(nil)

func NewReadingRepository(db *DB) *readingRepository {
	return &readingRepository{db: db.reading}
}

func (repo *readingRepository) AdvanceProgress(_ context.Context, userID string, globalPage int, at time.Time, _ ...core.DBExecutor) (reading.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prog, ok := repo.db.progress[userID]
	if !ok {
		prog = &reading.Progress{UserID: userID, CompletedChapters: []int{}}
		repo.db.progress[userID] = prog
	}
	if globalPage > prog.CurrentGlobalPage {
		prog.CurrentGlobalPage = globalPage
	}
	prog.UpdatedAt = at
	return *prog, nil
}

func (repo *readingRepository) GetProgress(_ context.Context, userID string, _ ...core.DBExecutor) (reading.Progress, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if prog, ok := repo.db.progress[userID]; ok {
		return *prog, nil
	}
	return reading.Progress{}, reading.ErrNotFound
}

func (repo *readingRepository) AddCompletedChapter(_ context.Context, userID string, idx int, at time.Time, _ ...core.DBExecutor) (reading.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	prog, ok := repo.db.progress[userID]
	if !ok {
		prog = &reading.Progress{UserID: userID, CompletedChapters: []int{}}
		repo.db.progress[userID] = prog
	}
	if !prog.HasCompleted(idx) {
		prog.CompletedChapters = append(prog.CompletedChapters, idx)
	}
	prog.UpdatedAt = at
	return *prog, nil
}

func (repo *readingRepository) CreateBookmark(_ context.Context, bm reading.Bookmark, _ ...core.DBExecutor) (reading.Bookmark, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, b := range repo.db.bookmarks {
		if b.UserID == bm.UserID && b.PageID == bm.PageID {
			return *b, nil
		}
	}
	bm.ID = uuid.New().String()
	repo.db.bookmarks[bm.ID] = &bm
	return bm, nil
}

func (repo *readingRepository) DeleteBookmark(_ context.Context, userID, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if bm, ok := repo.db.bookmarks[id]; ok && bm.UserID == userID {
		delete(repo.db.bookmarks, id)
	}
	return nil
}

func (repo *readingRepository) QueryUserBookmarks(_ context.Context, userID string, _ ...core.DBExecutor) ([]reading.Bookmark, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	bookmarks := make([]reading.Bookmark, 0)
	for _, bm := range repo.db.bookmarks {
		if bm.UserID == userID {
			bookmarks = append(bookmarks, *bm)
		}
	}
	sort.Slice(bookmarks, func(i, j int) bool { return bookmarks[i].CreatedAt.After(bookmarks[j].CreatedAt) })
	return bookmarks, nil
}
