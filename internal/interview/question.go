// Package interview drives one interview session: recording answers,
// analysing them, and moving through the sampled questions.
package interview

import "math/rand/v2"

// Question is identified by its text.
type Question string

// DefaultQuestionBank is the built-in set questions are sampled from.
var DefaultQuestionBank = []Question{
	"What is a linked list and how does it work?",
	"What is a binary tree and how does it work?",
	"What is a hash table and how does it work?",
	"What is dynamic programming?",
	"Explain the concept of multi-threading in Java",
	"What is the difference between a stack and a queue?",
	"What is the difference between a linked list and an array?",
}

// DefaultQuestionCount is how many questions a session asks.
const DefaultQuestionCount = 3

// Sample picks n distinct questions from bank in random order. n is clamped
// to the bank size. A nil rng uses the global source.
func Sample(bank []Question, n int, rng *rand.Rand) []Question {
	if n > len(bank) {
		n = len(bank)
	}
	if n <= 0 {
		return nil
	}

	var perm []int
	if rng != nil {
		perm = rng.Perm(len(bank))
	} else {
		perm = rand.Perm(len(bank))
	}

	out := make([]Question, n)
	for i := 0; i < n; i++ {
		out[i] = bank[perm[i]]
	}
	return out
}

// Bank converts configured question texts, falling back to the default
// bank when none are configured.
func Bank(texts []string) []Question {
	if len(texts) == 0 {
		return DefaultQuestionBank
	}
	out := make([]Question, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			out = append(out, Question(t))
		}
	}
	if len(out) == 0 {
		return DefaultQuestionBank
	}
	return out
}
