package table

import "errors"

// ============================================================================
// GROUP CURSOR - MAXIMAL RUNS OF EQUAL KEYS
// ============================================================================

// groupCursor walks a row stream as maximal runs of consecutive rows with
// equal key tuples. Group boundaries are detected by key inequality only,
// so the weaker grouped precondition is enough; with strict set, a key
// smaller than a previous group's key fails fast with an OrderingError.
type groupCursor struct {
	input   RowStream
	fields  []string
	strict  bool
	peeked  Row
	hasPeek bool
	prevKey Key
	active  *groupState
	done    bool
}

type groupState struct {
	key      Key
	finished bool
}

func newGroupCursor(input RowStream, fields []string, strict bool) *groupCursor {
	return &groupCursor{input: input, fields: fields, strict: strict}
}

// next skips whatever remains of the previous group and opens the next one,
// returning its key and a single-pass stream over its rows.
func (c *groupCursor) next() (Key, RowStream, error) {
	if c.active != nil {
		st := c.active
		for !st.finished {
			if _, err := c.groupRead(st); err != nil && !errors.Is(err, EOS) {
				return nil, nil, err
			}
		}
		c.active = nil
	}
	if c.done {
		return nil, nil, EOS
	}
	if !c.hasPeek {
		row, err := c.input()
		if err != nil {
			if errors.Is(err, EOS) {
				c.done = true
			}
			return nil, nil, err
		}
		c.peeked = row
		c.hasPeek = true
	}
	key, err := keyOf(c.peeked, c.fields)
	if err != nil {
		return nil, nil, err
	}
	if c.strict && c.prevKey != nil {
		cmp, err := key.Compare(c.prevKey)
		if err != nil {
			return nil, nil, err
		}
		if cmp < 0 {
			return nil, nil, &OrderingError{Prev: c.prevKey, Next: key}
		}
	}
	c.prevKey = key
	st := &groupState{key: key}
	c.active = st
	return key, func() (Row, error) { return c.groupRead(st) }, nil
}

// groupRead pulls the next row of one group, ending it (EOS) at the first
// row whose key differs or when the input is exhausted.
func (c *groupCursor) groupRead(st *groupState) (Row, error) {
	if st.finished {
		return nil, EOS
	}
	if !c.hasPeek {
		row, err := c.input()
		if err != nil {
			st.finished = true
			if errors.Is(err, EOS) {
				c.done = true
				return nil, EOS
			}
			return nil, err
		}
		c.peeked = row
		c.hasPeek = true
	}
	key, err := keyOf(c.peeked, c.fields)
	if err != nil {
		st.finished = true
		return nil, err
	}
	same, err := key.Equal(st.key)
	if err != nil {
		st.finished = true
		return nil, err
	}
	if !same {
		st.finished = true
		return nil, EOS
	}
	row := c.peeked
	c.peeked = nil
	c.hasPeek = false
	return row, nil
}
