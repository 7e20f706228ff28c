package table

import "errors"

// ============================================================================
// SORT-MERGE CO-GROUP JOIN
// ============================================================================

// Joiner turns one co-grouped key's worth of rows into zero or more output
// rows. A nil stream marks a side with no rows for the key. When both sides
// are present the joiner may materialise the left side; the right side is
// streamed once.
type Joiner interface {
	Join(keys []string, left, right RowStream) RowStream
}

// JoinOption configures a joiner
type JoinOption func(*joinConfig)

type joinConfig struct {
	leftSuffix  string
	rightSuffix string
}

// WithSuffixes overrides the suffixes appended to colliding non-key fields
// (default "_1" for the left side, "_2" for the right)
func WithSuffixes(left, right string) JoinOption {
	return func(cfg *joinConfig) {
		cfg.leftSuffix = left
		cfg.rightSuffix = right
	}
}

func newJoinConfig(opts []JoinOption) joinConfig {
	cfg := joinConfig{leftSuffix: "_1", rightSuffix: "_2"}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Join wraps a joiner into a two-input stream stage. Both inputs must be
// sorted by keys with the same ordering; a key regression on either side
// aborts with an OrderingError. Output follows the merge walk: a present
// key always sorts before an exhausted side.
func Join(j Joiner, keys []string) func(left, right RowStream) RowStream {
	return func(left, right RowStream) RowStream {
		lc := newGroupCursor(left, keys, true)
		rc := newGroupCursor(right, keys, true)
		var lKey, rKey Key
		var lGroup, rGroup RowStream
		var lHave, rHave, lDone, rDone bool
		var out RowStream
		return func() (Row, error) {
			for {
				if out != nil {
					row, err := out()
					if err == nil {
						return row, nil
					}
					if !errors.Is(err, EOS) {
						return nil, err
					}
					out = nil
				}
				if !lHave && !lDone {
					key, group, err := lc.next()
					if err != nil {
						if !errors.Is(err, EOS) {
							return nil, err
						}
						lDone = true
					} else {
						lKey, lGroup = key, group
						lHave = true
					}
				}
				if !rHave && !rDone {
					key, group, err := rc.next()
					if err != nil {
						if !errors.Is(err, EOS) {
							return nil, err
						}
						rDone = true
					} else {
						rKey, rGroup = key, group
						rHave = true
					}
				}
				switch {
				case !lHave && !rHave:
					return nil, EOS
				case !rHave:
					out = j.Join(keys, lGroup, nil)
					lHave = false
				case !lHave:
					out = j.Join(keys, nil, rGroup)
					rHave = false
				default:
					cmp, err := lKey.Compare(rKey)
					if err != nil {
						return nil, err
					}
					switch {
					case cmp < 0:
						out = j.Join(keys, lGroup, nil)
						lHave = false
					case cmp > 0:
						out = j.Join(keys, nil, rGroup)
						rHave = false
					default:
						out = j.Join(keys, lGroup, rGroup)
						lHave = false
						rHave = false
					}
				}
			}
		}
	}
}

// mergeRows combines one left/right row pair. Fields present on one side
// pass through; fields present on both get the configured suffixes, except
// the join-key fields, which keep the left value unsuffixed.
func mergeRows(left, right Row, keys []string, cfg joinConfig) Row {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	out := make(Row, len(left)+len(right))
	for field, val := range left {
		if _, shared := right[field]; shared && !isKey[field] {
			out[field+cfg.leftSuffix] = val
		} else {
			out[field] = val
		}
	}
	for field, val := range right {
		if _, shared := left[field]; shared {
			if !isKey[field] {
				out[field+cfg.rightSuffix] = val
			}
			continue
		}
		out[field] = val
	}
	return out
}

// crossMerge emits one merged row per (left, right) pair of the two groups,
// right rows as the outer loop. The left group is buffered in full; the
// right group streams.
func crossMerge(keys []string, left, right RowStream, cfg joinConfig) RowStream {
	var leftRows []Row
	var cur Row
	loaded := false
	i := 0
	return func() (Row, error) {
		if !loaded {
			rows, err := Collect(left)
			if err != nil {
				return nil, err
			}
			leftRows = rows
			loaded = true
		}
		for {
			if cur == nil {
				row, err := right()
				if err != nil {
					return nil, err
				}
				cur = row
				i = 0
			}
			if i < len(leftRows) {
				row := mergeRows(leftRows[i], cur, keys, cfg)
				i++
				return row, nil
			}
			cur = nil
		}
	}
}

// passThrough re-emits one side's rows unchanged
func passThrough(rows RowStream) RowStream {
	return rows
}

// InnerJoiner emits the cross-product merge for keys present on both sides
// and nothing otherwise
type InnerJoiner struct {
	cfg joinConfig
}

// Inner creates an inner-join strategy
func Inner(opts ...JoinOption) *InnerJoiner {
	return &InnerJoiner{cfg: newJoinConfig(opts)}
}

func (j *InnerJoiner) Join(keys []string, left, right RowStream) RowStream {
	if left == nil || right == nil {
		return Empty[Row]()
	}
	return crossMerge(keys, left, right, j.cfg)
}

// OuterJoiner emits the cross-product merge for shared keys and passes
// one-sided groups through unchanged
type OuterJoiner struct {
	cfg joinConfig
}

// Outer creates a full outer-join strategy
func Outer(opts ...JoinOption) *OuterJoiner {
	return &OuterJoiner{cfg: newJoinConfig(opts)}
}

func (j *OuterJoiner) Join(keys []string, left, right RowStream) RowStream {
	switch {
	case left != nil && right != nil:
		return crossMerge(keys, left, right, j.cfg)
	case left != nil:
		return passThrough(left)
	case right != nil:
		return passThrough(right)
	}
	return Fail[Row](ErrEmptyJoinGroups)
}

// LeftJoiner keeps every left row, merged where the right side matches
type LeftJoiner struct {
	cfg joinConfig
}

// Left creates a left-join strategy
func Left(opts ...JoinOption) *LeftJoiner {
	return &LeftJoiner{cfg: newJoinConfig(opts)}
}

func (j *LeftJoiner) Join(keys []string, left, right RowStream) RowStream {
	switch {
	case left != nil && right != nil:
		return crossMerge(keys, left, right, j.cfg)
	case left != nil:
		return passThrough(left)
	}
	return Empty[Row]()
}

// RightJoiner keeps every right row, merged where the left side matches
type RightJoiner struct {
	cfg joinConfig
}

// Right creates a right-join strategy
func Right(opts ...JoinOption) *RightJoiner {
	return &RightJoiner{cfg: newJoinConfig(opts)}
}

func (j *RightJoiner) Join(keys []string, left, right RowStream) RowStream {
	switch {
	case left != nil && right != nil:
		return crossMerge(keys, left, right, j.cfg)
	case right != nil:
		return passThrough(right)
	}
	return Empty[Row]()
}
