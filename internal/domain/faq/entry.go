package faq

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Unknown is the placeholder for a category or source missing from index metadata.
const Unknown = "unknown"

// MaxAnswerSize is the maximum answer size in bytes.
const MaxAnswerSize = 16384

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Entry is a knowledge base entry (immutable value object).
type Entry struct {
	id       string
	question string
	answer   string
	category string
	source   string
}

// New validates and creates an Entry.
// ID: ^[a-zA-Z0-9_-]+$, 1-128 chars. Question and answer are required.
// Empty category and source become Unknown.
func New(id, question, answer, category, source string) (Entry, error) {
	if id == "" {
		return Entry{}, fmt.Errorf("entry ID is required")
	}
	if len(id) > 128 {
		return Entry{}, fmt.Errorf("entry ID too long (max 128)")
	}
	if !idRegex.MatchString(id) {
		return Entry{}, fmt.Errorf("entry ID must be alphanumeric with underscores and hyphens")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return Entry{}, fmt.Errorf("question is required")
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Entry{}, fmt.Errorf("answer is required")
	}
	if len(answer) > MaxAnswerSize {
		return Entry{}, fmt.Errorf("answer too large (max %d bytes)", MaxAnswerSize)
	}

	return Entry{
		id:       id,
		question: question,
		answer:   answer,
		category: orUnknown(category),
		source:   orUnknown(source),
	}, nil
}

// ID derives a stable entry identifier from the question text.
func ID(question string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(question))))
	return "faq-" + hex.EncodeToString(h[:8])
}

// ID returns the entry identifier.
func (e Entry) ID() string { return e.id }

// Question returns the question text. It is the embedded part of the entry.
func (e Entry) Question() string { return e.question }

// Answer returns the answer text.
func (e Entry) Answer() string { return e.answer }

// Category returns the category label.
func (e Entry) Category() string { return e.category }

// Source returns the provenance label.
func (e Entry) Source() string { return e.source }

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	return s
}
