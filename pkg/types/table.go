// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// IntentAmbiguous is the classifier label for sentences sent on to
// antecedent generation.
const IntentAmbiguous = "ambiguous"

// IntentError marks a sentence the classifier could not label.
const IntentError = "error"

// IntentRecord pairs a requirement sentence with its classifier label.
type IntentRecord struct {
	Sentence string `json:"sentence" yaml:"sentence"`
	Intent   string `json:"intent" yaml:"intent"`
}

// Context is one distinct input sentence. Index is its rank of first
// appearance in the dataset.
type Context struct {
	Index int    `json:"index" yaml:"index"`
	Text  string `json:"text" yaml:"text"`
}

// CandidateRow is one (pronoun occurrence, candidate antecedent) pair.
// Every candidate for the same occurrence shares the ID.
type CandidateRow struct {
	ID         string `json:"id" yaml:"id"`
	Context    string `json:"context" yaml:"context"`
	Pronoun    string `json:"pronoun" yaml:"pronoun"`
	Position   int    `json:"position" yaml:"position"`
	Antecedent string `json:"candidate_antecedent" yaml:"candidate_antecedent"`
}

// CandidateColumns is the header of the candidate table, in column order.
var CandidateColumns = []string{"Id", "Context", "Pronoun", "Position", "Candidate Antecedent"}

// IntentColumns is the header of the intent tables, in column order.
var IntentColumns = []string{"Sentence", "Intent"}
