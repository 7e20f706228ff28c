package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyAll(t *testing.T, m Mapper, rows []Row) []Row {
	t.Helper()
	result, err := Collect(Apply(m)(FromRows(rows)))
	require.NoError(t, err)
	return result
}

func TestIdentity(t *testing.T) {
	rows := []Row{
		{"test_id": 1, "text": "one two three"},
		{"test_id": 2, "text": "testing out stuff"},
	}
	assert.Equal(t, rows, applyAll(t, Identity{}, rows))
}

func TestLowerCase(t *testing.T) {
	rows := []Row{
		{"test_id": 1, "text": "camelCaseTest"},
		{"test_id": 2, "text": "UPPER_CASE_TEST"},
		{"test_id": 3, "text": "wEiRdTeSt"},
	}
	expected := []Row{
		{"test_id": 1, "text": "camelcasetest"},
		{"test_id": 2, "text": "upper_case_test"},
		{"test_id": 3, "text": "weirdtest"},
	}
	assert.Equal(t, expected, applyAll(t, LowerCase("text"), rows))
}

func TestFilterPunctuation(t *testing.T) {
	rows := []Row{
		{"test_id": 1, "text": "Hello, world!"},
		{"test_id": 2, "text": "Test. with. a. lot. of. dots."},
		{"test_id": 3, "text": "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"},
	}
	expected := []Row{
		{"test_id": 1, "text": "Hello world"},
		{"test_id": 2, "text": "Test with a lot of dots"},
		{"test_id": 3, "text": ""},
	}
	assert.Equal(t, expected, applyAll(t, FilterPunctuation("text"), rows))
}

func TestSplit(t *testing.T) {
	t.Run("Whitespace", func(t *testing.T) {
		rows := []Row{
			{"test_id": 1, "text": "one two three"},
			{"test_id": 2, "text": "tab\tsplitting\ttest"},
			{"test_id": 3, "text": "more\nlines\ntest"},
			{"test_id": 4, "text": "tricky test"},
		}
		expected := []Row{
			{"test_id": 1, "text": "one"},
			{"test_id": 1, "text": "two"},
			{"test_id": 1, "text": "three"},
			{"test_id": 2, "text": "tab"},
			{"test_id": 2, "text": "splitting"},
			{"test_id": 2, "text": "test"},
			{"test_id": 3, "text": "more"},
			{"test_id": 3, "text": "lines"},
			{"test_id": 3, "text": "test"},
			{"test_id": 4, "text": "tricky"},
			{"test_id": 4, "text": "test"},
		}
		assert.Equal(t, expected, applyAll(t, Split("text"), rows))
	})

	t.Run("Separator", func(t *testing.T) {
		rows := []Row{{"test_id": 1, "text": "a,b,c"}}
		expected := []Row{
			{"test_id": 1, "text": "a"},
			{"test_id": 1, "text": "b"},
			{"test_id": 1, "text": "c"},
		}
		assert.Equal(t, expected, applyAll(t, SplitOn("text", ","), rows))
	})

	t.Run("OtherFieldsSurvive", func(t *testing.T) {
		rows := []Row{{"doc_id": 9, "lang": "en", "text": "x y"}}
		result := applyAll(t, Split("text"), rows)
		require.Len(t, result, 2)
		for _, row := range result {
			assert.Equal(t, 9, row["doc_id"])
			assert.Equal(t, "en", row["lang"])
		}
	})
}

func TestProduct(t *testing.T) {
	rows := []Row{
		{"test_id": 1, "speed": 5, "distance": 10},
		{"test_id": 2, "speed": 60, "distance": 2},
		{"test_id": 3, "speed": 3, "distance": 15},
		{"test_id": 4, "speed": 100, "distance": 0.5},
		{"test_id": 5, "speed": 48, "distance": 15},
	}
	expected := []Row{
		{"test_id": 1, "speed": 5, "distance": 10, "time": int64(50)},
		{"test_id": 2, "speed": 60, "distance": 2, "time": int64(120)},
		{"test_id": 3, "speed": 3, "distance": 15, "time": int64(45)},
		{"test_id": 4, "speed": 100, "distance": 0.5, "time": 50.0},
		{"test_id": 5, "speed": 48, "distance": 15, "time": int64(720)},
	}
	assert.Equal(t, expected, applyAll(t, Product([]string{"speed", "distance"}, "time"), rows))
}

func TestFilter(t *testing.T) {
	rows := []Row{
		{"test_id": 1, "f": 0, "g": 0},
		{"test_id": 2, "f": 0, "g": 1},
		{"test_id": 3, "f": 1, "g": 0},
		{"test_id": 4, "f": 1, "g": 1},
	}
	xor := func(row Row) bool {
		return GetOr(row, "f", 0) != GetOr(row, "g", 0)
	}
	expected := []Row{
		{"test_id": 2, "f": 0, "g": 1},
		{"test_id": 3, "f": 1, "g": 0},
	}
	assert.Equal(t, expected, applyAll(t, Filter(xor), rows))
}

func TestFilterExpr(t *testing.T) {
	t.Run("Predicate", func(t *testing.T) {
		m, err := FilterExpr(`count > 1 && text != "the"`)
		require.NoError(t, err)
		rows := []Row{
			{"text": "the", "count": 5},
			{"text": "fox", "count": 2},
			{"text": "dog", "count": 1},
		}
		expected := []Row{{"text": "fox", "count": 2}}
		assert.Equal(t, expected, applyAll(t, m, rows))
	})

	t.Run("WordLength", func(t *testing.T) {
		m := MustFilterExpr("len(text) >= 4")
		rows := []Row{{"text": "cat"}, {"text": "little"}}
		expected := []Row{{"text": "little"}}
		assert.Equal(t, expected, applyAll(t, m, rows))
	})

	t.Run("CompileError", func(t *testing.T) {
		_, err := FilterExpr("count >")
		assert.Error(t, err)
	})
}

func TestProject(t *testing.T) {
	rows := []Row{
		{"test_id": 1, "junk": "x", "value": 42},
		{"test_id": 2, "junk": "y", "value": 1},
		{"test_id": 3, "junk": "z", "value": 144},
	}
	expected := []Row{
		{"value": 42},
		{"value": 1},
		{"value": 144},
	}
	assert.Equal(t, expected, applyAll(t, Project("value"), rows))

	_, err := Collect(Apply(Project("missing"))(FromRows(rows)))
	var fieldErr *FieldError
	assert.ErrorAs(t, err, &fieldErr)
}

func TestIdf(t *testing.T) {
	rows := []Row{
		{"text": "hello", "doc_count": 6, "num_word_entries": 4},
		{"text": "little", "doc_count": 6, "num_word_entries": 4},
	}
	result := applyAll(t, Idf("doc_count", "num_word_entries", "text", "idf"), rows)
	require.Len(t, result, 2)
	for i, row := range result {
		assert.Equal(t, rows[i]["text"], row["text"])
		assert.InDelta(t, 0.4054651081081644, row["idf"].(float64), 0.001)
		assert.NotContains(t, row, "doc_count")
	}
}

func TestPmi(t *testing.T) {
	rows := []Row{{"text": "fox", "tf_doc": 0.5, "tf_total": 0.25}}
	result := applyAll(t, Pmi("tf_doc", "tf_total", "pmi"), rows)
	require.Len(t, result, 1)
	assert.InDelta(t, 0.6931471805599453, result[0]["pmi"].(float64), 1e-9)
}

func TestMapScenario(t *testing.T) {
	// punctuation strip, lowercase, whitespace split, in order
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
	pipeline := Chain(
		Apply(FilterPunctuation("text")),
		Apply(LowerCase("text")),
		Apply(Split("text")),
	)
	result, err := Collect(pipeline(FromRows(docs)))
	require.NoError(t, err)
	assert.Equal(t, expected, result)
}
