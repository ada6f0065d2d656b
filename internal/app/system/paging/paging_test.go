package paging

import (
	"net/http/httptest"
	"testing"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Params
	}{
		{"defaults", "/x", Params{Size: PageSize}},
		{"after", "/x?after=abc", Params{After: "abc", Size: PageSize}},
		{"before and size", "/x?before=abc&size=5", Params{Before: "abc", Size: 5}},
		{"size capped", "/x?size=5000", Params{Size: MaxPageSize}},
		{"size invalid", "/x?size=-2", Params{Size: PageSize}},
		{"size not a number", "/x?size=ten", Params{Size: PageSize}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseParams(httptest.NewRequest("GET", tt.url, nil))
			if got != tt.want {
				t.Errorf("ParseParams(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
			if got.LimitPlusOne() != int64(got.Size+1) {
				t.Errorf("LimitPlusOne() = %d, want %d", got.LimitPlusOne(), got.Size+1)
			}
		})
	}
}

func TestTrimPage(t *testing.T) {
	const size = 3
	tests := []struct {
		name       string
		rows       []int
		before     string
		after      string
		wantRows   []int
		wantResult Result
	}{
		{"first page with no extra", []int{1, 2}, "", "", []int{1, 2}, Result{}},
		{"first page with extra", []int{1, 2, 3, 4}, "", "", []int{1, 2, 3}, Result{HasNext: true}},
		{"forward page with extra", []int{1, 2, 3, 4}, "", "c", []int{1, 2, 3}, Result{HasPrev: true, HasNext: true}},
		{"forward page without extra", []int{1, 2}, "", "c", []int{1, 2}, Result{HasPrev: true}},
		{"backward page with extra", []int{0, 1, 2, 3}, "c", "", []int{1, 2, 3}, Result{HasPrev: true, HasNext: true}},
		{"backward page without extra", []int{1, 2}, "c", "", []int{1, 2}, Result{HasNext: true}},
		{"empty rows", []int{}, "", "", []int{}, Result{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := append([]int(nil), tt.rows...)
			got := TrimPage(&rows, Params{Before: tt.before, After: tt.after, Size: size})
			if got != tt.wantResult {
				t.Errorf("TrimPage() result = %+v, want %+v", got, tt.wantResult)
			}
			if len(rows) != len(tt.wantRows) {
				t.Fatalf("TrimPage() rows = %v, want %v", rows, tt.wantRows)
			}
			for i := range rows {
				if rows[i] != tt.wantRows[i] {
					t.Errorf("TrimPage() rows = %v, want %v", rows, tt.wantRows)
					break
				}
			}
		})
	}
}

func TestConfigure(t *testing.T) {
	valid := wafflemongo.EncodeCursor("dune restoration", primitive.NewObjectID())
	tests := []struct {
		name       string
		before     string
		after      string
		wantDir    Direction
		wantOrder  int
		wantCursor bool
	}{
		{"first page", "", "", Forward, 1, false},
		{"after cursor", "", valid, Forward, 1, true},
		{"before cursor", valid, "", Backward, -1, true},
		{"both cursors, before wins", valid, "other", Backward, -1, true},
		{"undecodable cursor", "", "%%%", Forward, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ks := Configure(Params{Before: tt.before, After: tt.after, Size: PageSize})
			if ks.Direction != tt.wantDir {
				t.Errorf("Direction = %v, want %v", ks.Direction, tt.wantDir)
			}
			if ks.SortOrder != tt.wantOrder {
				t.Errorf("SortOrder = %v, want %v", ks.SortOrder, tt.wantOrder)
			}
			if (ks.Cursor != nil) != tt.wantCursor {
				t.Errorf("Cursor set = %v, want %v", ks.Cursor != nil, tt.wantCursor)
			}
			if (ks.Window("title_ci") != nil) != tt.wantCursor {
				t.Errorf("Window() presence = %v, want %v", ks.Window("title_ci") != nil, tt.wantCursor)
			}
		})
	}
}

func TestFindOptions(t *testing.T) {
	ks := Configure(Params{Before: wafflemongo.EncodeCursor("a", primitive.NewObjectID()), Size: 10})
	opts := ks.FindOptions("title_ci")
	if opts.Limit == nil || *opts.Limit != 11 {
		t.Fatalf("limit = %v, want 11", opts.Limit)
	}
	sort, ok := opts.Sort.(bson.D)
	if !ok || len(sort) != 2 {
		t.Fatalf("sort = %#v, want two keys", opts.Sort)
	}
	if sort[0].Key != "title_ci" || sort[0].Value != -1 || sort[1].Key != "_id" || sort[1].Value != -1 {
		t.Errorf("sort = %v, want title_ci/_id descending", sort)
	}
}

func TestReverse(t *testing.T) {
	tests := []struct {
		name  string
		input []int
		want  []int
	}{
		{"empty", []int{}, []int{}},
		{"single", []int{1}, []int{1}},
		{"two", []int{1, 2}, []int{2, 1}},
		{"three", []int{1, 2, 3}, []int{3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := append([]int(nil), tt.input...)
			Reverse(rows)
			for i, v := range rows {
				if v != tt.want[i] {
					t.Errorf("Reverse() got %v, want %v", rows, tt.want)
					break
				}
			}
		})
	}
}

func TestBuildCursors(t *testing.T) {
	type item struct {
		Key string
		ID  primitive.ObjectID
	}
	key := func(i item) string { return i.Key }
	id := func(i item) primitive.ObjectID { return i.ID }

	prev, next := BuildCursors([]item{}, key, id)
	if prev != "" || next != "" {
		t.Errorf("BuildCursors(empty) = (%q, %q), want empty", prev, next)
	}

	first := item{Key: "alpha", ID: primitive.NewObjectID()}
	last := item{Key: "omega", ID: primitive.NewObjectID()}
	prev, next = BuildCursors([]item{first, last}, key, id)
	if prev == next {
		t.Fatal("BuildCursors() prev and next should differ for distinct rows")
	}
	c, ok := wafflemongo.DecodeCursor(next)
	if !ok || c.CI != "omega" || c.ID != last.ID {
		t.Errorf("next cursor decodes to %+v (ok=%v), want omega/%s", c, ok, last.ID.Hex())
	}
}
