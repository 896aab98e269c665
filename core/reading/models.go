package reading

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// The book layout is static: each section knows its page count and the
// cumulative page count of everything before it. The global page cursor is
// the section offset plus the 1-based local page index, which gives every
// page in the book a single absolute number.
type Section struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Offset int    `json:"offset"` // pages before this section
	Pages  int    `json:"pages"`
}

var Sections = []Section{
	{ID: "intro", Title: "المقدمة", Offset: 0, Pages: 2},
	{ID: "section1", Title: "القسم الأول", Offset: 2, Pages: 11},
	{ID: "section2", Title: "القسم الثاني", Offset: 13, Pages: 10},
	{ID: "section3", Title: "القسم الثالث", Offset: 23, Pages: 12},
	{ID: "section4", Title: "القسم الرابع", Offset: 35, Pages: 8},
	{ID: "conclusion", Title: "الخاتمة", Offset: 43, Pages: 5},
}

var (
	ErrUnknownSection = errors.New("unknown section")
	ErrPageOutOfRange = errors.New("page out of range")
)

// SectionByID looks a section up in the static table.
func SectionByID(id string) (Section, error) {
	for _, s := range Sections {
		if s.ID == id {
			return s, nil
		}
	}
	return Section{}, ErrUnknownSection
}

// GlobalPage maps a 1-based local page of a section to its absolute number.
func GlobalPage(sectionID string, localPage int) (int, error) {
	sec, err := SectionByID(sectionID)
	if err != nil {
		return 0, err
	}
	if localPage < 1 || localPage > sec.Pages {
		return 0, ErrPageOutOfRange
	}
	return sec.Offset + localPage, nil
}

// TotalPages is the number of pages in the whole book.
func TotalPages() int {
	last := Sections[len(Sections)-1]
	return last.Offset + last.Pages
}

// Progress is a user's cursor through the book. CurrentGlobalPage only
// ever advances; a visit to an earlier page never regresses it.
type Progress struct {
	UserID            string    `json:"user_id"`
	CurrentGlobalPage int       `json:"current_global_page"`
	CompletedChapters []int     `json:"completed_chapters"`
	UpdatedAt         time.Time `json:"updated_at"` // UTC
}

// HasCompleted reports whether chapter idx is in the completed set.
func (p Progress) HasCompleted(idx int) bool {
	for _, c := range p.CompletedChapters {
		if c == idx {
			return true
		}
	}
	return false
}

type Bookmark struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PageID    string    `json:"page_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// AdvanceRequest is the payload a page component submits on navigation.
type AdvanceRequest struct {
	SectionID string `json:"section_id" validate:"required"`
	LocalPage int    `json:"local_page" validate:"required,min=1"`
}

func (ar AdvanceRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(ar)
}

type NewBookmark struct {
	PageID string `json:"page_id" validate:"required"`
}

func (nb NewBookmark) Validate(validate *validator.Validate) error {
	return validate.Struct(nb)
}
