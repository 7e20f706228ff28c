package main

import (
	"github.com/rosscartlidge/tableflow/pkg/table"
)

// The four built-in analytics pipelines. Each builder returns a reusable
// Graph wired to one or two named inputs; callers bind the inputs at run
// time.

// wordCountGraph counts occurrences of each word across all documents
func wordCountGraph(input, textColumn, countColumn string) *table.Graph {
	return table.FromSource(input).
		Map(table.FilterPunctuation(textColumn)).
		Map(table.LowerCase(textColumn)).
		Map(table.Split(textColumn)).
		Sort([]string{textColumn}).
		Reduce(table.Count(countColumn), []string{textColumn})
}

// invertedIndexGraph ranks the top-3 documents per word by tf-idf
func invertedIndexGraph(input, docColumn, textColumn, resultColumn string) *table.Graph {
	splitWords := table.FromSource(input).
		Map(table.FilterPunctuation(textColumn)).
		Map(table.LowerCase(textColumn)).
		Map(table.Split(textColumn))

	docCount := table.FromSource(input).
		Reduce(table.Count("docs_count"), nil)

	// one row per (doc, word), the corpus size attached, then documents
	// counted per word; docs_count rides along in the reduce key since it
	// is constant
	idf := splitWords.
		Sort([]string{docColumn, textColumn}).
		Reduce(table.First(), []string{docColumn, textColumn}).
		Join(table.Inner(), docCount, nil).
		Sort([]string{textColumn}).
		Reduce(table.Count("docs_with_word"), []string{textColumn, "docs_count"}).
		Map(table.Idf("docs_count", "docs_with_word", textColumn, "idf"))

	tf := splitWords.
		Sort([]string{docColumn}).
		Reduce(table.TermFrequency(textColumn, "tf"), []string{docColumn})

	return tf.
		Sort([]string{textColumn}).
		Join(table.Inner(), idf.Sort([]string{textColumn}), []string{textColumn}).
		Map(table.Product([]string{"tf", "idf"}, resultColumn)).
		Map(table.Project(docColumn, textColumn, resultColumn)).
		Sort([]string{textColumn}).
		Reduce(table.TopN(resultColumn, 3), []string{textColumn})
}

// pmiGraph ranks the top-10 words per document by pointwise mutual
// information, over words of at least 4 characters appearing at least
// twice in their document
func pmiGraph(input, docColumn, textColumn, resultColumn string) *table.Graph {
	tokens := table.FromSource(input).
		Map(table.FilterPunctuation(textColumn)).
		Map(table.LowerCase(textColumn)).
		Map(table.Split(textColumn)).
		Map(table.MustFilterExpr("len(" + textColumn + ") >= 4")).
		Sort([]string{docColumn, textColumn}).
		Reduce(table.SafeCount("occurrences"), []string{docColumn, textColumn}).
		Map(table.MustFilterExpr("occurrences >= 2"))

	tfPerDoc := tokens.
		Sort([]string{docColumn}).
		Reduce(table.TermFrequency(textColumn, "tf_doc"), []string{docColumn})

	tfTotal := tokens.
		Reduce(table.TermFrequency(textColumn, "tf_total"), nil).
		Sort([]string{textColumn})

	return tfPerDoc.
		Sort([]string{textColumn}).
		Join(table.Inner(), tfTotal, []string{textColumn}).
		Map(table.Pmi("tf_doc", "tf_total", resultColumn)).
		Map(table.Project(docColumn, textColumn, resultColumn)).
		Sort([]string{docColumn}).
		Reduce(table.TopN(resultColumn, 10), []string{docColumn})
}

// routeSpeedGraph computes the average traffic speed per (weekday, hour)
// from road-edge geometry and observed traversal times
func routeSpeedGraph(timeInput, lengthInput string) *table.Graph {
	lengths := table.FromSource(lengthInput).
		Map(table.ProcessLength("start", "end", "length")).
		Map(table.Project("edge_id", "length")).
		Sort([]string{"edge_id"}).
		Reduce(table.First(), []string{"edge_id"})

	times := table.FromSource(timeInput).
		Map(table.ProcessTime("enter_time", "leave_time", "time", "weekday", "hour")).
		Map(table.Project("edge_id", "weekday", "hour", "time")).
		Sort([]string{"edge_id"})

	return times.
		Join(table.Inner(), lengths, []string{"edge_id"}).
		Sort([]string{"weekday", "hour"}).
		Reduce(table.Sum("time", "length"), []string{"weekday", "hour"}).
		Map(table.ProcessSpeed("length", "time", "speed")).
		Map(table.Project("weekday", "hour", "speed"))
}
