package store

import (
	"slices"
	"time"
)

// table is an insertion-ordered map of rows keyed by id. It is not safe for
// concurrent use; Memory guards every table with its own lock.
type table[T any] struct {
	rows  map[int64]T
	order []int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]T)}
}

func (t *table[T]) insert(id int64, v T) {
	t.rows[id] = v
	t.order = append(t.order, id)
}

func (t *table[T]) get(id int64) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) replace(id int64, v T) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = v
	return true
}

func (t *table[T]) remove(id int64) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// removeWhere deletes every row matching fn and returns how many went.
func (t *table[T]) removeWhere(fn func(T) bool) int {
	kept := t.order[:0]
	n := 0
	for _, id := range t.order {
		if fn(t.rows[id]) {
			delete(t.rows, id)
			n++
			continue
		}
		kept = append(kept, id)
	}
	t.order = kept
	return n
}

// find returns the first row in insertion order matching fn.
func (t *table[T]) find(fn func(T) bool) (T, bool) {
	for _, id := range t.order {
		if v := t.rows[id]; fn(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// all returns matching rows in insertion order. A nil keep matches all.
func (t *table[T]) all(keep func(T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		v := t.rows[id]
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// newest returns matching rows in reverse insertion order (id descending),
// at most limit of them when limit is positive.
func (t *table[T]) newest(keep func(T) bool, limit int) []T {
	out := make([]T, 0)
	for i := len(t.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		v := t.rows[t.order[i]]
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// newestBy is newest ordered by at descending, then by id descending, the
// same order as "ORDER BY <at> DESC, id DESC" in the relational backend.
// Rows may be inserted out of time order, e.g. backfilled samples.
func (t *table[T]) newestBy(keep func(T) bool, at func(T) time.Time, limit int) []T {
	out := t.newest(keep, 0)
	slices.SortStableFunc(out, func(a, b T) int { return at(b).Compare(at(a)) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (t *table[T]) count() int {
	return len(t.order)
}
