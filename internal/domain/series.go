package domain

import (
	"cmp"
	"slices"
)

// Timed pairs a record with the timeDefine it was published under.
type Timed[T any] struct {
	Time   string `json:"time"`
	Record T      `json:"record"`
}

// Series is a timestamp-keyed record set ordered ascending by key.
// Keys are compared as strings; every timeDefine in one feed carries the
// same +09:00 offset, so lexical order is chronological order.
type Series[T any] []Timed[T]

// Get returns the record stored under key.
func (s Series[T]) Get(key string) (T, bool) {
	i, found := slices.BinarySearchFunc(s, key, func(e Timed[T], k string) int {
		return cmp.Compare(e.Time, k)
	})
	if !found {
		var zero T
		return zero, false
	}
	return s[i].Record, true
}

// Keys returns the timestamps in order.
func (s Series[T]) Keys() []string {
	keys := make([]string, len(s))
	for i, e := range s {
		keys[i] = e.Time
	}
	return keys
}

// seriesBuilder accumulates records from several blocks before sorting.
// Blocks that share a timestamp update the same record.
type seriesBuilder[T any] struct {
	records map[string]*T
}

func newSeriesBuilder[T any]() *seriesBuilder[T] {
	return &seriesBuilder[T]{records: make(map[string]*T)}
}

func (b *seriesBuilder[T]) at(key string) *T {
	r, ok := b.records[key]
	if !ok {
		r = new(T)
		b.records[key] = r
	}
	return r
}

func (b *seriesBuilder[T]) build() Series[T] {
	out := make(Series[T], 0, len(b.records))
	for k, r := range b.records {
		out = append(out, Timed[T]{Time: k, Record: *r})
	}
	slices.SortFunc(out, func(a, b Timed[T]) int {
		return cmp.Compare(a.Time, b.Time)
	})
	return out
}
