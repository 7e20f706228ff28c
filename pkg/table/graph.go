package table

import "errors"

// ============================================================================
// GRAPH - LAZY, REUSABLE PIPELINE DESCRIPTIONS
// ============================================================================

// SourceFactory returns a fresh row stream for one named input. Factories
// for restartable sources should close over whatever state is needed to
// restart; a factory that keeps handing back the same single-use iterator
// makes every run after the first see an exhausted source.
type SourceFactory func() RowStream

// Sources binds input names to factories at execution time
type Sources map[string]SourceFactory

// Graph is an immutable description of a pipeline: a producer from bound
// sources to a lazy row stream. Combinators return new Graphs wrapping the
// upstream producer; nothing runs and nothing is allocated until Run or
// RunIter. A Graph is reusable across executions - each run re-materialises
// every node against the supplied sources.
type Graph struct {
	produce func(Sources) RowStream
}

// FromSource creates a graph reading the named input
func FromSource(name string) *Graph {
	return &Graph{produce: func(sources Sources) RowStream {
		factory, ok := sources[name]
		if !ok {
			return Fail[Row](&SourceError{Name: name, Err: errors.New("not provided")})
		}
		return factory()
	}}
}

// Map extends the graph with a map stage
func (g *Graph) Map(m Mapper) *Graph {
	upstream := g.produce
	return &Graph{produce: func(sources Sources) RowStream {
		return Apply(m)(upstream(sources))
	}}
}

// Reduce extends the graph with a grouped reduce stage over keys. The
// upstream must deliver equal key tuples contiguously (sort first if it
// does not).
func (g *Graph) Reduce(r Reducer, keys []string) *Graph {
	upstream := g.produce
	return &Graph{produce: func(sources Sources) RowStream {
		return GroupBy(r, keys)(upstream(sources))
	}}
}

// Sort extends the graph with an external sort stage over keys
func (g *Graph) Sort(keys []string, opts ...SortOption) *Graph {
	upstream := g.produce
	return &Graph{produce: func(sources Sources) RowStream {
		return SortBy(keys, opts...)(upstream(sources))
	}}
}

// Join extends the graph with a join stage: the receiver is the left side,
// other the right. Both sides are produced independently against the same
// sources and must be sorted by keys.
func (g *Graph) Join(j Joiner, other *Graph, keys []string) *Graph {
	left := g.produce
	right := other.produce
	return &Graph{produce: func(sources Sources) RowStream {
		return Join(j, keys)(left(sources), right(sources))
	}}
}

// Run materialises the graph against sources into a slice
func (g *Graph) Run(sources Sources) ([]Row, error) {
	return Collect(g.produce(sources))
}

// RunIter materialises the graph against sources as a lazy stream
func (g *Graph) RunIter(sources Sources) RowStream {
	return g.produce(sources)
}
