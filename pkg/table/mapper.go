package table

// ============================================================================
// MAPPERS - PURE PER-ROW TRANSFORMS
// ============================================================================

// Mapper turns one input row into zero or more output rows. A mapper may
// inspect, add, remove or overwrite fields, and must not assume anything
// about the order it is called in.
type Mapper interface {
	Apply(row Row) ([]Row, error)
}

// MapperFunc adapts a function to the Mapper interface
type MapperFunc func(row Row) ([]Row, error)

func (f MapperFunc) Apply(row Row) ([]Row, error) { return f(row) }

// Apply wraps a mapper into a stream stage. Output rows appear in input
// order, rows fanned out from one input row contiguously. A mapper error
// aborts the stream. No buffering beyond one row's fan-out.
func Apply(m Mapper) Stage[Row, Row] {
	return func(input RowStream) RowStream {
		var pending []Row
		return func() (Row, error) {
			for len(pending) == 0 {
				row, err := input()
				if err != nil {
					return nil, err
				}
				pending, err = m.Apply(row)
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

// Identity yields exactly the row passed
type Identity struct{}

func (Identity) Apply(row Row) ([]Row, error) {
	return []Row{row}, nil
}

// Keep removes rows that do not satisfy a predicate
type Keep struct {
	Condition func(Row) bool
}

// Filter creates a predicate mapper
func Filter(condition func(Row) bool) *Keep {
	return &Keep{Condition: condition}
}

func (m *Keep) Apply(row Row) ([]Row, error) {
	if m.Condition(row) {
		return []Row{row}, nil
	}
	return nil, nil
}

// Projection keeps only the named columns
type Projection struct {
	Columns []string
}

// Project creates a projection mapper. Every projected column must be
// present on the row.
func Project(columns ...string) *Projection {
	return &Projection{Columns: columns}
}

func (m *Projection) Apply(row Row) ([]Row, error) {
	out := make(Row, len(m.Columns))
	for _, col := range m.Columns {
		val, ok := row[col]
		if !ok {
			return nil, &FieldError{Field: col, Reason: "missing"}
		}
		out[col] = val
	}
	return []Row{out}, nil
}

// ProductMapper writes the arithmetic product of several columns
type ProductMapper struct {
	Columns      []string
	ResultColumn string
}

// Product creates a mapper multiplying columns into resultColumn. Integer
// inputs keep an integer product; any float input promotes the result.
func Product(columns []string, resultColumn string) *ProductMapper {
	return &ProductMapper{Columns: columns, ResultColumn: resultColumn}
}

func (m *ProductMapper) Apply(row Row) ([]Row, error) {
	var res any = int64(1)
	for _, col := range m.Columns {
		val, ok := row[col]
		if !ok {
			return nil, &FieldError{Field: col, Reason: "missing"}
		}
		var err error
		res, err = mulValues(res, val)
		if err != nil {
			return nil, &FieldError{Field: col, Reason: err.Error()}
		}
	}
	row[m.ResultColumn] = res
	return []Row{row}, nil
}
