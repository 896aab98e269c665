package reading

import "testing"

func TestGlobalPage(t *testing.T) {
	tests := []struct {
		name      string
		sectionID string
		localPage int
		want      int
		wantErr   error
	}{
		{name: "unknown section", sectionID: "appendix", localPage: 1, wantErr: ErrUnknownSection},
		{name: "page below range", sectionID: "intro", localPage: 0, wantErr: ErrPageOutOfRange},
		{name: "page above range", sectionID: "intro", localPage: 3, wantErr: ErrPageOutOfRange},
		{name: "first page of the book", sectionID: "intro", localPage: 1, want: 1},
		{name: "first page of section1", sectionID: "section1", localPage: 1, want: 3},
		{name: "middle of section2", sectionID: "section2", localPage: 3, want: 16},
		{name: "last page of section4", sectionID: "section4", localPage: 8, want: 43},
		{name: "last page of the book", sectionID: "conclusion", localPage: 5, want: 48},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GlobalPage(tt.sectionID, tt.localPage)
			if err != tt.wantErr {
				t.Fatalf("GlobalPage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GlobalPage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSectionOffsetsAreCumulative(t *testing.T) {
	offset := 0
	for _, sec := range Sections {
		if sec.Offset != offset {
			t.Errorf("section %q offset = %d, want %d", sec.ID, sec.Offset, offset)
		}
		offset += sec.Pages
	}
	if got := TotalPages(); got != offset {
		t.Errorf("TotalPages() = %d, want %d", got, offset)
	}
}

func TestProgressHasCompleted(t *testing.T) {
	prog := Progress{CompletedChapters: []int{0, 2}}
	if !prog.HasCompleted(2) {
		t.Errorf("HasCompleted(2) = false, want true")
	}
	if prog.HasCompleted(1) {
		t.Errorf("HasCompleted(1) = true, want false")
	}
}
