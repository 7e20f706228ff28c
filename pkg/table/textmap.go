package table

import (
	"math"
	"strings"
)

// ============================================================================
// TEXT MAPPERS - TOKENIZATION AND TERM STATISTICS
// ============================================================================

// asciiPunctuation is the character set FilterPunctuation strips
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// PunctuationFilter strips ASCII punctuation from a column
type PunctuationFilter struct {
	Column string
}

// FilterPunctuation creates a mapper removing punctuation from column
func FilterPunctuation(column string) *PunctuationFilter {
	return &PunctuationFilter{Column: column}
}

func (m *PunctuationFilter) Apply(row Row) ([]Row, error) {
	text, err := row.String(m.Column)
	if err != nil {
		return nil, err
	}
	row[m.Column] = strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, text)
	return []Row{row}, nil
}

// LowerCaser lowercases a column
type LowerCaser struct {
	Column string
}

// LowerCase creates a mapper lowercasing column
func LowerCase(column string) *LowerCaser {
	return &LowerCaser{Column: column}
}

func (m *LowerCaser) Apply(row Row) ([]Row, error) {
	text, err := row.String(m.Column)
	if err != nil {
		return nil, err
	}
	row[m.Column] = strings.ToLower(text)
	return []Row{row}, nil
}

// Splitter fans one row out into one row per part of a split column
type Splitter struct {
	Column    string
	Separator string // empty means runs of whitespace
}

// Split creates a whitespace-splitting mapper for column
func Split(column string) *Splitter {
	return &Splitter{Column: column}
}

// SplitOn creates a mapper splitting column by separator
func SplitOn(column, separator string) *Splitter {
	return &Splitter{Column: column, Separator: separator}
}

func (m *Splitter) Apply(row Row) ([]Row, error) {
	text, err := row.String(m.Column)
	if err != nil {
		return nil, err
	}
	var parts []string
	if m.Separator == "" {
		parts = strings.Fields(text)
	} else {
		parts = strings.Split(text, m.Separator)
	}
	out := make([]Row, 0, len(parts))
	for _, part := range parts {
		next := row.Clone()
		next[m.Column] = part
		out = append(out, next)
	}
	return out, nil
}

// IdfMapper computes inverse document frequency from a total document count
// and the count of documents containing the word
type IdfMapper struct {
	DocCountColumn    string
	WordEntriesColumn string
	WordColumn        string
	ResultColumn      string
}

// Idf creates an IDF mapper. The emitted row carries only the word and the
// idf value.
func Idf(docCount, wordEntries, word, result string) *IdfMapper {
	return &IdfMapper{
		DocCountColumn:    docCount,
		WordEntriesColumn: wordEntries,
		WordColumn:        word,
		ResultColumn:      result,
	}
}

func (m *IdfMapper) Apply(row Row) ([]Row, error) {
	total, err := row.Float(m.DocCountColumn)
	if err != nil {
		return nil, err
	}
	entries, err := row.Float(m.WordEntriesColumn)
	if err != nil {
		return nil, err
	}
	word, ok := row[m.WordColumn]
	if !ok {
		return nil, &FieldError{Field: m.WordColumn, Reason: "missing"}
	}
	return []Row{{
		m.WordColumn:   word,
		m.ResultColumn: math.Log(total / entries),
	}}, nil
}

// PmiMapper computes pointwise mutual information from an in-document
// frequency and a corpus-wide frequency
type PmiMapper struct {
	DocFreqColumn   string
	TotalFreqColumn string
	ResultColumn    string
}

// Pmi creates a PMI mapper writing log(docFreq/totalFreq) into result
func Pmi(docFreq, totalFreq, result string) *PmiMapper {
	return &PmiMapper{DocFreqColumn: docFreq, TotalFreqColumn: totalFreq, ResultColumn: result}
}

func (m *PmiMapper) Apply(row Row) ([]Row, error) {
	docFreq, err := row.Float(m.DocFreqColumn)
	if err != nil {
		return nil, err
	}
	totalFreq, err := row.Float(m.TotalFreqColumn)
	if err != nil {
		return nil, err
	}
	row[m.ResultColumn] = math.Log(docFreq / totalFreq)
	return []Row{row}, nil
}
