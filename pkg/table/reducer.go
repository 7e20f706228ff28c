package table

import (
	"container/heap"
	"errors"
)

// ============================================================================
// REDUCERS - PER-GROUP TRANSFORMS
// ============================================================================

// Reducer turns one group of rows into zero or more output rows. The group
// stream is single-pass; rewinding it is undefined. key carries the field
// names the group was formed over, not their values.
type Reducer interface {
	Reduce(key []string, rows RowStream) ([]Row, error)
}

// ReducerFunc adapts a function to the Reducer interface
type ReducerFunc func(key []string, rows RowStream) ([]Row, error)

func (f ReducerFunc) Reduce(key []string, rows RowStream) ([]Row, error) {
	return f(key, rows)
}

// GroupBy wraps a reducer into a stream stage. The input must be grouped by
// keys (equal key tuples contiguous); the reducer is invoked once per
// maximal run and its rows appear in yield order, groups in input order.
// An empty input yields nothing. Rows a reducer leaves unread are skipped
// before the next group starts.
func GroupBy(r Reducer, keys []string) Stage[Row, Row] {
	return func(input RowStream) RowStream {
		cursor := newGroupCursor(input, keys, false)
		var pending []Row
		return func() (Row, error) {
			for len(pending) == 0 {
				_, group, err := cursor.next()
				if err != nil {
					return nil, err
				}
				pending, err = r.Reduce(keys, group)
				if err != nil {
					return nil, err
				}
			}
			row := pending[0]
			pending = pending[1:]
			return row, nil
		}
	}
}

// FirstReducer yields only the first row of each group
type FirstReducer struct{}

// First creates a first-row reducer
func First() *FirstReducer {
	return &FirstReducer{}
}

func (*FirstReducer) Reduce(key []string, rows RowStream) ([]Row, error) {
	first, err := rows()
	if err != nil {
		if errors.Is(err, EOS) {
			return nil, nil
		}
		return nil, err
	}
	if err := Drain(rows); err != nil {
		return nil, err
	}
	return []Row{first}, nil
}

// CountReducer counts the rows of a group into a single row carrying the
// group-key fields of the first row
type CountReducer struct {
	Column string
}

// Count creates a counting reducer writing the group size into column
func Count(column string) *CountReducer {
	return &CountReducer{Column: column}
}

func (r *CountReducer) Reduce(key []string, rows RowStream) ([]Row, error) {
	sample, count, err := drainCounting(rows)
	if err != nil {
		return nil, err
	}
	if sample == nil {
		return nil, nil
	}
	out := make(Row, len(key)+1)
	for _, k := range key {
		out[k] = sample[k]
	}
	out[r.Column] = count
	return []Row{out}, nil
}

// SafeCountReducer is the counting reducer's test/fixture twin: it emits
// the same single-row result once per input row
type SafeCountReducer struct {
	Column string
}

// SafeCount creates the fan-out variant of Count
func SafeCount(column string) *SafeCountReducer {
	return &SafeCountReducer{Column: column}
}

func (r *SafeCountReducer) Reduce(key []string, rows RowStream) ([]Row, error) {
	sample, count, err := drainCounting(rows)
	if err != nil {
		return nil, err
	}
	if sample == nil {
		return nil, nil
	}
	result := make(Row, len(key)+1)
	for _, k := range key {
		result[k] = sample[k]
	}
	result[r.Column] = count
	out := make([]Row, count)
	for i := range out {
		out[i] = result.Clone()
	}
	return out, nil
}

func drainCounting(rows RowStream) (sample Row, count int64, err error) {
	err = ForEach(rows, func(row Row) error {
		if sample == nil {
			sample = row
		}
		count++
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return sample, count, nil
}

// SumReducer sums numeric columns over a group into a single row
type SumReducer struct {
	Columns []string
}

// Sum creates a summing reducer. Integer columns stay integral until a
// float participates.
func Sum(columns ...string) *SumReducer {
	return &SumReducer{Columns: columns}
}

func (r *SumReducer) Reduce(key []string, rows RowStream) ([]Row, error) {
	sums := make(map[string]any, len(r.Columns))
	for _, col := range r.Columns {
		sums[col] = int64(0)
	}
	var sample Row
	err := ForEach(rows, func(row Row) error {
		if sample == nil {
			sample = row
		}
		for _, col := range r.Columns {
			val, ok := row[col]
			if !ok {
				return &FieldError{Field: col, Reason: "missing"}
			}
			next, err := addValues(sums[col], val)
			if err != nil {
				return &FieldError{Field: col, Reason: err.Error()}
			}
			sums[col] = next
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sample == nil {
		return nil, nil
	}
	out := make(Row, len(key)+len(r.Columns))
	for _, k := range key {
		out[k] = sample[k]
	}
	for _, col := range r.Columns {
		out[col] = sums[col]
	}
	return []Row{out}, nil
}

// TermFrequencyReducer computes the relative frequency of each distinct
// value of a column within a group
type TermFrequencyReducer struct {
	WordsColumn  string
	ResultColumn string
}

// TermFrequency creates a term-frequency reducer. One row is emitted per
// distinct word, in first-appearance order, carrying the group-key fields
// of the first group row.
func TermFrequency(wordsColumn, resultColumn string) *TermFrequencyReducer {
	return &TermFrequencyReducer{WordsColumn: wordsColumn, ResultColumn: resultColumn}
}

func (r *TermFrequencyReducer) Reduce(key []string, rows RowStream) ([]Row, error) {
	counts := make(map[string]int64)
	var order []string
	var total int64
	var sample Row
	err := ForEach(rows, func(row Row) error {
		if sample == nil {
			sample = row
		}
		word, err := row.String(r.WordsColumn)
		if err != nil {
			return err
		}
		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
		total++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sample == nil {
		return nil, nil
	}
	out := make([]Row, 0, len(order))
	for _, word := range order {
		result := make(Row, len(key)+2)
		for _, k := range key {
			result[k] = sample[k]
		}
		result[r.WordsColumn] = word
		result[r.ResultColumn] = float64(counts[word]) / float64(total)
		out = append(out, result)
	}
	return out, nil
}

// TopNReducer keeps the n rows with the largest values of a column
type TopNReducer struct {
	Column string
	N      int
}

// TopN creates a top-n reducer. Rows come out in descending column order;
// ties break arbitrarily. A row lacking the column is an error.
func TopN(column string, n int) *TopNReducer {
	return &TopNReducer{Column: column, N: n}
}

func (r *TopNReducer) Reduce(key []string, rows RowStream) ([]Row, error) {
	h := &topNHeap{}
	err := ForEach(rows, func(row Row) error {
		val, err := row.Float(r.Column)
		if err != nil {
			return err
		}
		heap.Push(h, rankedRow{value: val, row: row})
		if h.Len() > r.N {
			heap.Pop(h)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]Row, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(rankedRow).row
	}
	return out, nil
}

type rankedRow struct {
	value float64
	row   Row
}

// topNHeap is a min-heap on the ranking value, so the smallest of the kept
// rows is always the one evicted
type topNHeap []rankedRow

func (h topNHeap) Len() int           { return len(h) }
func (h topNHeap) Less(i, j int) bool { return h[i].value < h[j].value }
func (h topNHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *topNHeap) Push(x any)        { *h = append(*h, x.(rankedRow)) }
func (h *topNHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
