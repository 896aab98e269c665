package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/reading"
)

type readingRepository struct {
	repository
}

var _ reading.Repository = (*readingRepository)(nil) // interface compliance check

func NewReadingRepository(exec core.DBExecutor) *readingRepository {
	return &readingRepository{repository{exec: exec}}
}

type progressRow struct {
	UserID            string        `db:"user_id"`
	CurrentGlobalPage int           `db:"current_global_page"`
	CompletedChapters pq.Int64Array `db:"completed_chapters"`
	UpdatedAt         time.Time     `db:"updated_at"`
}

func (r progressRow) toProgress() reading.Progress {
	chapters := make([]int, 0, len(r.CompletedChapters))
	for _, c := range r.CompletedChapters {
		chapters = append(chapters, int(c))
	}
	return reading.Progress{
		UserID:            r.UserID,
		CurrentGlobalPage: r.CurrentGlobalPage,
		CompletedChapters: chapters,
		UpdatedAt:         r.UpdatedAt,
	}
}

const progressColumns = `user_id, current_global_page, completed_chapters, updated_at`

// AdvanceProgress clamps the write with GREATEST so a stored cursor never
// moves backwards, whatever page the client submits.
func (repo readingRepository) AdvanceProgress(ctx context.Context, userID string, globalPage int, at time.Time, exec ...core.DBExecutor) (reading.Progress, error) {
	var row progressRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`INSERT INTO reading_progress (user_id, current_global_page, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id)
		 DO UPDATE SET current_global_page = GREATEST(reading_progress.current_global_page, EXCLUDED.current_global_page),
		               updated_at          = EXCLUDED.updated_at
		 RETURNING `+progressColumns,
		userID, globalPage, at.UTC(),
	)
	if err != nil {
		return reading.Progress{}, errors.Wrap(err, "advancing progress")
	}
	return row.toProgress(), nil
}

func (repo readingRepository) GetProgress(ctx context.Context, userID string, exec ...core.DBExecutor) (reading.Progress, error) {
	var row progressRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`SELECT `+progressColumns+` FROM reading_progress WHERE user_id = $1`, userID)
	if err != nil {
		return reading.Progress{}, trapNoRowsErr(err, reading.ErrNotFound, "getting progress")
	}
	return row.toProgress(), nil
}

func (repo readingRepository) AddCompletedChapter(ctx context.Context, userID string, idx int, at time.Time, exec ...core.DBExecutor) (reading.Progress, error) {
	var row progressRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`INSERT INTO reading_progress (user_id, completed_chapters, updated_at)
		 VALUES ($1, ARRAY[$2::INTEGER], $3)
		 ON CONFLICT (user_id)
		 DO UPDATE SET completed_chapters = CASE
		                   WHEN $2 = ANY (reading_progress.completed_chapters)
		                       THEN reading_progress.completed_chapters
		                   ELSE array_append(reading_progress.completed_chapters, $2)
		               END,
		               updated_at         = EXCLUDED.updated_at
		 RETURNING `+progressColumns,
		userID, idx, at.UTC(),
	)
	if err != nil {
		return reading.Progress{}, errors.Wrap(err, "adding completed chapter")
	}
	return row.toProgress(), nil
}

type bookmarkRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	PageID    string    `db:"page_id"`
	CreatedAt time.Time `db:"created_at"`
}

func (r bookmarkRow) toBookmark() reading.Bookmark {
	return reading.Bookmark{ID: r.ID, UserID: r.UserID, PageID: r.PageID, CreatedAt: r.CreatedAt}
}

func (repo readingRepository) CreateBookmark(ctx context.Context, bm reading.Bookmark, exec ...core.DBExecutor) (reading.Bookmark, error) {
	bm.ID = uuid.New().String()
	var row bookmarkRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`INSERT INTO bookmark (id, user_id, page_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, page_id) DO UPDATE SET page_id = EXCLUDED.page_id
		 RETURNING id, user_id, page_id, created_at`,
		bm.ID, bm.UserID, bm.PageID, bm.CreatedAt.UTC(),
	)
	if err != nil {
		return reading.Bookmark{}, errors.Wrap(err, "creating bookmark")
	}
	return row.toBookmark(), nil
}

func (repo readingRepository) DeleteBookmark(ctx context.Context, userID, id string, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`DELETE FROM bookmark WHERE id = $1 AND user_id = $2`, id, userID)
	return errors.Wrap(err, "deleting bookmark")
}

func (repo readingRepository) QueryUserBookmarks(ctx context.Context, userID string, exec ...core.DBExecutor) ([]reading.Bookmark, error) {
	var rows []bookmarkRow
	err := repo.getExec(exec).SelectContext(ctx, &rows,
		`SELECT id, user_id, page_id, created_at FROM bookmark WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying bookmarks")
	}
	bookmarks := make([]reading.Bookmark, 0, len(rows))
	for _, r := range rows {
		bookmarks = append(bookmarks, r.toBookmark())
	}
	return bookmarks, nil
}
