package reading_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/reading"
	inmemdb "github.com/kitabiapp/kitabi/storage/database/inmem"
)

func newTestService(t *testing.T) *reading.Service {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	return reading.NewService(inmemdb.NewReadingRepository(db))
}

func TestServiceAdvanceIsMonotonic(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	steps := []struct {
		name      string
		sectionID string
		localPage int
		want      int
	}{
		{name: "first advance", sectionID: "section1", localPage: 4, want: 6},
		{name: "forward", sectionID: "section2", localPage: 3, want: 16},
		{name: "revisit an earlier page", sectionID: "intro", localPage: 1, want: 16},
		{name: "same page again", sectionID: "section2", localPage: 3, want: 16},
		{name: "forward again", sectionID: "section3", localPage: 1, want: 24},
	}
	for _, tt := range steps {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := svc.Advance(ctx, "u1", tt.sectionID, tt.localPage)
			if err != nil {
				t.Fatalf("Advance() failed: %v", err)
			}
			if prog.CurrentGlobalPage != tt.want {
				t.Errorf("Advance() CurrentGlobalPage = %d, want %d", prog.CurrentGlobalPage, tt.want)
			}
		})
	}
}

func TestServiceAdvanceRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	tests := []struct {
		name      string
		sectionID string
		localPage int
	}{
		{name: "unknown section", sectionID: "nope", localPage: 1},
		{name: "page out of range", sectionID: "intro", localPage: 99},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Advance(ctx, "u1", tt.sectionID, tt.localPage)
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("Advance() error = %v, want a validation error", err)
			}
		})
	}
}

func TestServiceGetZeroState(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	prog, err := svc.Get(ctx, "newcomer")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if prog.UserID != "newcomer" || prog.CurrentGlobalPage != 0 {
		t.Errorf("Get() = %+v, want the zero cursor", prog)
	}
}

func TestServiceCompleteChapter(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	if _, err := svc.CompleteChapter(ctx, "u1", len(reading.Sections)); err == nil {
		t.Errorf("CompleteChapter() accepted an out-of-range index")
	}

	for _, idx := range []int{1, 1, 0} { // re-completing 1 is a no-op
		if _, err := svc.CompleteChapter(ctx, "u1", idx); err != nil {
			t.Fatalf("CompleteChapter(%d) failed: %v", idx, err)
		}
	}
	prog, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if len(prog.CompletedChapters) != 2 {
		t.Errorf("CompletedChapters = %v, want 2 entries", prog.CompletedChapters)
	}

	done, err := svc.HasFinishedBook(ctx, "u1")
	if err != nil {
		t.Fatalf("HasFinishedBook() failed: %v", err)
	}
	if done {
		t.Errorf("HasFinishedBook() = true with %d/%d chapters", len(prog.CompletedChapters), len(reading.Sections))
	}

	for idx := range reading.Sections {
		if _, err = svc.CompleteChapter(ctx, "u1", idx); err != nil {
			t.Fatalf("CompleteChapter(%d) failed: %v", idx, err)
		}
	}
	if done, err = svc.HasFinishedBook(ctx, "u1"); err != nil || !done {
		t.Errorf("HasFinishedBook() = (%v, %v), want (true, nil)", done, err)
	}
}

func TestServiceBookmarks(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	bm, err := svc.AddBookmark(ctx, "u1", "section1:4")
	if err != nil {
		t.Fatalf("AddBookmark() failed: %v", err)
	}
	dup, err := svc.AddBookmark(ctx, "u1", "section1:4")
	if err != nil {
		t.Fatalf("AddBookmark() failed: %v", err)
	}
	if dup.ID != bm.ID {
		t.Errorf("AddBookmark() duplicated the (user, page) bookmark")
	}

	if _, err = svc.AddBookmark(ctx, "u2", "section1:4"); err != nil {
		t.Fatalf("AddBookmark() failed: %v", err)
	}
	bookmarks, err := svc.Bookmarks(ctx, "u1")
	if err != nil {
		t.Fatalf("Bookmarks() failed: %v", err)
	}
	if len(bookmarks) != 1 {
		t.Fatalf("Bookmarks() returned %d bookmarks, want 1", len(bookmarks))
	}

	// another user cannot delete it
	if err = svc.RemoveBookmark(ctx, "u2", bm.ID); err != nil {
		t.Fatalf("RemoveBookmark() failed: %v", err)
	}
	if bookmarks, _ = svc.Bookmarks(ctx, "u1"); len(bookmarks) != 1 {
		t.Errorf("RemoveBookmark() deleted another user's bookmark")
	}

	if err = svc.RemoveBookmark(ctx, "u1", bm.ID); err != nil {
		t.Fatalf("RemoveBookmark() failed: %v", err)
	}
	if bookmarks, _ = svc.Bookmarks(ctx, "u1"); len(bookmarks) != 0 {
		t.Errorf("RemoveBookmark() left %d bookmarks, want 0", len(bookmarks))
	}
}
