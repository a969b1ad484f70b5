// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"strings"

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
)

// Candidate column names for question and answer detection, matched
// case-insensitively as substrings against the raw header.
var (
	questionColumns = []string{"query", "question", "q", "queries", "faq_question"}
	answerColumns   = []string{"answer", "response", "a", "ans", "faq_answer", "solution"}
)

// Tabular exports frequently serialize missing cells as these literals.
var nullLiterals = map[string]bool{
	"nan":  true,
	"null": true,
	"none": true,
	"na":   true,
}

// NormalizeText cleans one cell: strip, collapse internal whitespace runs to
// single spaces, map null-ish literals to empty.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	if nullLiterals[strings.ToLower(s)] {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

// DetectQAColumns finds the question and answer column indices in the header.
// Candidates match case-insensitively by equality or substring; if nothing
// matches, the first column is the question and the second the answer.
func DetectQAColumns(columns []string) (qCol, aCol int) {
	qCol, aCol = -1, -1

	lowered := make([]string, len(columns))
	for i, c := range columns {
		lowered[i] = strings.ToLower(c)
	}

	for _, cand := range questionColumns {
		for i, c := range lowered {
			if c == cand || strings.Contains(c, cand) {
				qCol = i
				break
			}
		}
		if qCol >= 0 {
			break
		}
	}
	for _, cand := range answerColumns {
		for i, c := range lowered {
			if c == cand || strings.Contains(c, cand) {
				aCol = i
				break
			}
		}
		if aCol >= 0 {
			break
		}
	}

	if qCol < 0 {
		qCol = 0
	}
	if aCol < 0 {
		aCol = 1
		if len(columns) < 2 {
			aCol = len(columns) - 1
		}
	}
	return qCol, aCol
}

// NormalizeCorpus turns a raw table into the canonical ordered corpus:
// detected columns, cleaned text, empty-sided records dropped, exact
// duplicate (query, answer) pairs dropped with first-seen order preserved.
// Running it on its own output changes nothing.
func NormalizeCorpus(raw entities.RawTable) []entities.CorpusEntry {
	if len(raw.Columns) == 0 {
		return nil
	}

	qCol, aCol := DetectQAColumns(raw.Columns)

	type pair struct{ q, a string }
	seen := make(map[pair]bool)

	entries := make([]entities.CorpusEntry, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		var q, a string
		if qCol < len(row) {
			q = NormalizeText(row[qCol])
		}
		if aCol >= 0 && aCol < len(row) {
			a = NormalizeText(row[aCol])
		}
		if q == "" || a == "" {
			continue
		}
		key := pair{q, a}
		if seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, entities.CorpusEntry{Query: q, Answer: a})
	}
	return entries
}
