package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsSource(rows []Row) SourceFactory {
	return func() RowStream { return FromRows(rows) }
}

func TestGraphMap(t *testing.T) {
	g := FromSource("docs").
		Map(FilterPunctuation("text")).
		Map(LowerCase("text")).
		Map(Split("text"))

	docs := []Row{
		{"doc_id": 1, "text": "hello, my little WORLD"},
		{"doc_id": 2, "text": "Hello, my little little hell"},
	}
	expected := []Row{
		{"doc_id": 1, "text": "hello"},
		{"doc_id": 1, "text": "my"},
		{"doc_id": 1, "text": "little"},
		{"doc_id": 1, "text": "world"},
		{"doc_id": 2, "text": "hello"},
		{"doc_id": 2, "text": "my"},
		{"doc_id": 2, "text": "little"},
		{"doc_id": 2, "text": "little"},
		{"doc_id": 2, "text": "hell"},
	}

	result, err := g.Run(Sources{"docs": rowsSource(docs)})
	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestGraphSort(t *testing.T) {
	g := FromSource("docs").Sort([]string{"text"})

	docs := []Row{
		{"doc_id": 1, "text": "hello"},
		{"doc_id": 1, "text": "my"},
		{"doc_id": 1, "text": "little"},
		{"doc_id": 1, "text": "world"},
		{"doc_id": 2, "text": "hello"},
		{"doc_id": 2, "text": "my"},
		{"doc_id": 2, "text": "little"},
		{"doc_id": 2, "text": "little"},
		{"doc_id": 2, "text": "hell"},
	}
	expected := []Row{
		{"doc_id": 2, "text": "hell"},
		{"doc_id": 1, "text": "hello"},
		{"doc_id": 2, "text": "hello"},
		{"doc_id": 1, "text": "little"},
		{"doc_id": 2, "text": "little"},
		{"doc_id": 2, "text": "little"},
		{"doc_id": 1, "text": "my"},
		{"doc_id": 2, "text": "my"},
		{"doc_id": 1, "text": "world"},
	}

	result, err := g.Run(Sources{"docs": rowsSource(docs)})
	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestGraphReduce(t *testing.T) {
	g := FromSource("docs").Reduce(Count("count"), []string{"text"})

	docs := []Row{
		{"doc_id": 2, "text": "hell"},
		{"doc_id": 1, "text": "hello"},
		{"doc_id": 2, "text": "hello"},
		{"doc_id": 1, "text": "little"},
		{"doc_id": 2, "text": "little"},
		{"doc_id": 2, "text": "little"},
		{"doc_id": 1, "text": "my"},
		{"doc_id": 2, "text": "my"},
		{"doc_id": 1, "text": "world"},
	}
	expected := []Row{
		{"text": "hell", "count": int64(1)},
		{"text": "hello", "count": int64(2)},
		{"text": "little", "count": int64(3)},
		{"text": "my", "count": int64(2)},
		{"text": "world", "count": int64(1)},
	}

	result, err := g.Run(Sources{"docs": rowsSource(docs)})
	require.NoError(t, err)
	assert.Equal(t, expected, result)
}

func TestWordCountPipeline(t *testing.T) {
	g := FromSource("docs").
		Map(FilterPunctuation("text")).
		Map(LowerCase("text")).
		Map(Split("text")).
		Sort([]string{"text"}).
		Reduce(Count("count"), []string{"text"})

	docs := []Row{
		{"doc_id": 1, "text": "hello, my little WORLD"},
		{"doc_id": 2, "text": "Hello, my little little hell"},
	}
	expected := []Row{
		{"text": "hell", "count": int64(1)},
		{"text": "hello", "count": int64(2)},
		{"text": "little", "count": int64(3)},
		{"text": "my", "count": int64(2)},
		{"text": "world", "count": int64(1)},
	}

	sources := Sources{"docs": rowsSource(docs)}
	result, err := g.Run(sources)
	require.NoError(t, err)
	assert.Equal(t, expected, result)

	t.Run("DeterministicAcrossRuns", func(t *testing.T) {
		docs := []Row{
			{"doc_id": 1, "text": "hello, my little WORLD"},
			{"doc_id": 2, "text": "Hello, my little little hell"},
		}
		again, err := g.Run(Sources{"docs": rowsSource(docs)})
		require.NoError(t, err)
		assert.Equal(t, expected, again)
	})
}

func TestGraphJoin(t *testing.T) {
	// the receiver is the left side, the argument graph the right
	games := FromSource("games").Sort([]string{"player_id"})
	players := FromSource("players").Sort([]string{"player_id"})
	g := games.Join(Inner(), players, []string{"player_id"})

	sources := Sources{
		"games": rowsSource([]Row{
			{"game_id": 1, "player_id": 3, "score": 99},
			{"game_id": 2, "player_id": 1, "score": 17},
			{"game_id": 3, "player_id": 1, "score": 22},
		}),
		"players": rowsSource([]Row{
			{"player_id": 1, "username": "XeroX"},
			{"player_id": 2, "username": "jay"},
			{"player_id": 3, "username": "Destroyer"},
		}),
	}
	result, err := g.Run(sources)
	require.NoError(t, err)
	byGameID(result)
	expected := []Row{
		{"game_id": 1, "player_id": 3, "score": 99, "username": "Destroyer"},
		{"game_id": 2, "player_id": 1, "score": 17, "username": "XeroX"},
		{"game_id": 3, "player_id": 1, "score": 22, "username": "XeroX"},
	}
	assert.Equal(t, expected, result)
}

func TestGraphJoinDAG(t *testing.T) {
	// both join branches re-materialise from the same named source
	totals := FromSource("scores").
		Sort([]string{"player_id"}).
		Reduce(Sum("score"), []string{"player_id"})
	g := FromSource("scores").
		Sort([]string{"player_id"}).
		Join(Inner(WithSuffixes("_one", "_total")), totals, []string{"player_id"})

	sources := Sources{
		"scores": rowsSource([]Row{
			{"player_id": 1, "score": 10},
			{"player_id": 1, "score": 5},
			{"player_id": 2, "score": 7},
		}),
	}
	result, err := g.Run(sources)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, Row{"player_id": 1, "score_one": 10, "score_total": int64(15)}, result[0])
	assert.Equal(t, Row{"player_id": 1, "score_one": 5, "score_total": int64(15)}, result[1])
	assert.Equal(t, Row{"player_id": 2, "score_one": 7, "score_total": int64(7)}, result[2])
}

func TestGraphMissingSource(t *testing.T) {
	g := FromSource("docs")
	_, err := g.Run(Sources{})
	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "docs", srcErr.Name)
}

func TestGraphSingleUseSource(t *testing.T) {
	// a factory handing back one shared iterator exhausts after the first
	// run; restartable factories are the caller's responsibility
	shared := FromRows([]Row{{"n": 1}, {"n": 2}})
	sources := Sources{"nums": func() RowStream { return shared }}

	g := FromSource("nums")
	first, err := g.Run(sources)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := g.Run(sources)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestGraphIsReusableValue(t *testing.T) {
	base := FromSource("docs")
	mapped := base.Map(LowerCase("text"))

	docs := []Row{{"text": "ABC"}}
	sources := Sources{"docs": rowsSource(docs)}

	// deriving mapped did not change base
	baseResult, err := base.Run(Sources{"docs": rowsSource([]Row{{"text": "ABC"}})})
	require.NoError(t, err)
	assert.Equal(t, []Row{{"text": "ABC"}}, baseResult)

	mappedResult, err := mapped.Run(sources)
	require.NoError(t, err)
	assert.Equal(t, []Row{{"text": "abc"}}, mappedResult)
}
