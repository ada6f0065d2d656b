// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PageSize is the default number of rows in a browse page.
const PageSize = 25

// MaxPageSize caps ?size=.
const MaxPageSize = 100

// Params are the cursor query parameters of one page request.
type Params struct {
	Before string
	After  string
	Size   int
}

// ParseParams reads ?before=, ?after= and ?size= from r.
// An invalid or missing size falls back to PageSize.
func ParseParams(r *http.Request) Params {
	p := Params{
		Before: query.Get(r, "before"),
		After:  query.Get(r, "after"),
		Size:   PageSize,
	}
	if s := query.Get(r, "size"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			p.Size = min(n, MaxPageSize)
		}
	}
	return p
}

// LimitPlusOne is the look-ahead limit used to detect a further page.
func (p Params) LimitPlusOne() int64 { return int64(p.Size + 1) }

// Result holds the output of TrimPage.
type Result struct {
	HasPrev bool
	HasNext bool
}

// TrimPage trims rows fetched with LimitPlusOne down to one page.
//
// Going backwards (before != ""), an extra row means an older page exists and
// the first row is dropped; HasNext is always true.
// Otherwise an extra row means a next page exists; HasPrev is true only after
// following an "after" cursor.
func TrimPage[T any](rows *[]T, p Params) Result {
	orig := len(*rows)
	var res Result

	if p.Before != "" {
		if orig > p.Size {
			*rows = (*rows)[1:]
			res.HasPrev = true
		}
		res.HasNext = true
		return res
	}
	if orig > p.Size {
		*rows = (*rows)[:p.Size]
		res.HasNext = true
	}
	res.HasPrev = p.After != ""
	return res
}

// Direction indicates the pagination direction.
type Direction int

const (
	Forward  Direction = iota // ascending, "gt" window
	Backward                  // descending, "lt" window
)

// Keyset is the sort and window configuration for one page query.
type Keyset struct {
	Direction Direction
	SortOrder int
	Cursor    *wafflemongo.Cursor
	limit     int64
}

// Configure decodes the cursor in p. An undecodable cursor starts from the
// beginning in the requested direction.
func Configure(p Params) Keyset {
	ks := Keyset{Direction: Forward, SortOrder: 1, limit: p.LimitPlusOne()}
	switch {
	case p.Before != "":
		ks.Direction = Backward
		ks.SortOrder = -1
		if c, ok := wafflemongo.DecodeCursor(p.Before); ok {
			ks.Cursor = &c
		}
	case p.After != "":
		if c, ok := wafflemongo.DecodeCursor(p.After); ok {
			ks.Cursor = &c
		}
	}
	return ks
}

// FindOptions sorts by sortField then _id and applies the look-ahead limit.
func (ks Keyset) FindOptions(sortField string) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{
			{Key: sortField, Value: ks.SortOrder},
			{Key: "_id", Value: ks.SortOrder},
		}).
		SetLimit(ks.limit)
}

// Window returns the cursor condition for the filter, or nil without a cursor.
func (ks Keyset) Window(sortField string) bson.M {
	if ks.Cursor == nil {
		return nil
	}
	dir := "gt"
	if ks.Direction == Backward {
		dir = "lt"
	}
	return wafflemongo.KeysetWindow(sortField, dir, ks.Cursor.CI, ks.Cursor.ID)
}

// Reverse reverses a slice in place; backward pages are fetched descending.
func Reverse[T any](rows []T) {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

// BuildCursors encodes cursors for the first and last rows.
func BuildCursors[T any](rows []T, keyFn func(T) string, idFn func(T) primitive.ObjectID) (prev, next string) {
	if len(rows) == 0 {
		return "", ""
	}
	first := rows[0]
	last := rows[len(rows)-1]
	return wafflemongo.EncodeCursor(keyFn(first), idFn(first)),
		wafflemongo.EncodeCursor(keyFn(last), idFn(last))
}
