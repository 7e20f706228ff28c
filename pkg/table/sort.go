package table

import (
	"container/heap"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
)

// ============================================================================
// EXTERNAL MERGE SORT
// ============================================================================

// defaultRunSize is the in-memory run budget in rows
const defaultRunSize = 100_000

// SortOption configures a sort stage
type SortOption func(*sortConfig)

type sortConfig struct {
	runSize int
}

// WithRunSize overrides the number of rows one in-memory run may hold
func WithRunSize(n int) SortOption {
	return func(cfg *sortConfig) {
		if n > 0 {
			cfg.runSize = n
		}
	}
}

// SortBy wraps the input in an external merge sort stage: ascending
// lexicographic order over the key tuple, stable for equal keys. Input is
// read in bounded runs; runs beyond the first budget are spilled to disk
// and merged back with a min-heap keyed by (key tuple, run id). A single
// run never touches disk. Spill files live under a per-invocation temp
// directory, are deleted as they drain, and are all deleted on any error;
// a GC cleanup removes the directory if the output stream is abandoned.
func SortBy(keys []string, opts ...SortOption) Stage[Row, Row] {
	cfg := sortConfig{runSize: defaultRunSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(input RowStream) RowStream {
		st := &sortState{input: input, keys: keys, cfg: cfg}
		return st.next
	}
}

type sortState struct {
	input RowStream
	keys  []string
	cfg   sortConfig

	started bool
	failed  error

	// degenerate single-run path
	memory []Row
	pos    int

	// spill path
	dir   string
	merge *mergeHeap
}

func (st *sortState) next() (Row, error) {
	if st.failed != nil {
		return nil, st.failed
	}
	if !st.started {
		if err := st.start(); err != nil {
			return nil, st.fail(err)
		}
	}
	if st.merge == nil {
		if st.pos >= len(st.memory) {
			return nil, EOS
		}
		row := st.memory[st.pos]
		st.pos++
		return row, nil
	}
	row, err := st.merge.pop()
	if err != nil {
		if errors.Is(err, EOS) {
			st.cleanup()
			return nil, EOS
		}
		return nil, st.fail(err)
	}
	return row, nil
}

// start drains the input into sorted runs and prepares either the in-memory
// path or the k-way merge
func (st *sortState) start() error {
	st.started = true

	var spills []string
	run := make([]Row, 0, min(st.cfg.runSize, 1024))
	exhausted := false
	for !exhausted {
		row, err := st.input()
		if err != nil {
			if !errors.Is(err, EOS) {
				return err
			}
			exhausted = true
		} else if len(run) < st.cfg.runSize {
			run = append(run, row)
			continue
		}
		if exhausted && len(spills) == 0 {
			// everything fit in one run: sort in memory, skip the disk
			sorted, err := st.sortRun(run)
			if err != nil {
				return err
			}
			st.memory = sorted
			return nil
		}
		if len(run) == 0 {
			continue
		}
		sorted, err := st.sortRun(run)
		if err != nil {
			return err
		}
		if st.dir == "" {
			dir, err := os.MkdirTemp("", "tableflow-sort-*")
			if err != nil {
				return &SpillError{Path: "tmp", Err: err}
			}
			st.dir = dir
			// backstop: an abandoned output stream still loses its spills
			runtime.AddCleanup(st, func(dir string) { os.RemoveAll(dir) }, dir)
		}
		path := filepath.Join(st.dir, fmt.Sprintf("run-%06d.spill", len(spills)))
		if err := writeSpill(path, sorted); err != nil {
			return err
		}
		spills = append(spills, path)
		run = run[:0]
		if !exhausted {
			// the row that found the run full opens the next one
			run = append(run, row)
		}
	}

	merge := &mergeHeap{keys: st.keys}
	st.merge = merge
	for runID, path := range spills {
		reader, err := openSpill(path)
		if err != nil {
			return err
		}
		if err := merge.add(runID, reader); err != nil {
			return err
		}
	}
	heap.Init(merge)
	if merge.err != nil {
		return merge.err
	}
	return nil
}

// sortRun stably sorts one run by the key tuple
func (st *sortState) sortRun(run []Row) ([]Row, error) {
	type keyed struct {
		key Key
		row Row
	}
	items := make([]keyed, len(run))
	for i, row := range run {
		key, err := keyOf(row, st.keys)
		if err != nil {
			return nil, err
		}
		items[i] = keyed{key: key, row: row}
	}
	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		cmp, err := items[i].key.Compare(items[j].key)
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return cmp < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	out := make([]Row, len(items))
	for i, item := range items {
		out[i] = item.row
	}
	return out, nil
}

func (st *sortState) fail(err error) error {
	st.failed = err
	st.cleanup()
	return err
}

func (st *sortState) cleanup() {
	if st.merge != nil {
		for _, head := range st.merge.items {
			head.reader.discard()
		}
		st.merge.items = nil
	}
	if st.dir != "" {
		os.RemoveAll(st.dir)
		st.dir = ""
	}
	st.memory = nil
}

// ============================================================================
// K-WAY MERGE
// ============================================================================

type mergeItem struct {
	key    Key
	row    Row
	runID  int
	reader *spillReader
}

// mergeHeap orders spill heads by (key tuple, run id); the run id keeps
// equal keys stable across runs since runs were cut in input order
type mergeHeap struct {
	keys  []string
	items []mergeItem
	err   error
}

func (h *mergeHeap) Len() int { return len(h.items) }

func (h *mergeHeap) Less(i, j int) bool {
	cmp, err := h.items[i].key.Compare(h.items[j].key)
	if err != nil {
		if h.err == nil {
			h.err = err
		}
		return false
	}
	if cmp != 0 {
		return cmp < 0
	}
	return h.items[i].runID < h.items[j].runID
}

func (h *mergeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *mergeHeap) Push(x any) { h.items = append(h.items, x.(mergeItem)) }

func (h *mergeHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

// add reads a reader's first row onto the heap (pre-Init)
func (h *mergeHeap) add(runID int, reader *spillReader) error {
	row, err := reader.next()
	if err != nil {
		if errors.Is(err, EOS) {
			return nil
		}
		return err
	}
	key, err := keyOf(row, h.keys)
	if err != nil {
		reader.discard()
		return err
	}
	h.items = append(h.items, mergeItem{key: key, row: row, runID: runID, reader: reader})
	return nil
}

// pop yields the globally smallest head and refills from its run
func (h *mergeHeap) pop() (Row, error) {
	if h.err != nil {
		return nil, h.err
	}
	if len(h.items) == 0 {
		return nil, EOS
	}
	item := heap.Pop(h).(mergeItem)
	if h.err != nil {
		return nil, h.err
	}
	next, err := item.reader.next()
	if err != nil {
		if !errors.Is(err, EOS) {
			return nil, err
		}
		// run drained; its file is already gone
	} else {
		key, err := keyOf(next, h.keys)
		if err != nil {
			item.reader.discard()
			return nil, err
		}
		heap.Push(h, mergeItem{key: key, row: next, runID: item.runID, reader: item.reader})
		if h.err != nil {
			return nil, h.err
		}
	}
	return item.row, nil
}
