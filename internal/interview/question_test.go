package interview

import (
	"math/rand/v2"
	"testing"
)

func TestSampleDistinct(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 50; i++ {
		got := Sample(DefaultQuestionBank, 3, rng)
		if len(got) != 3 {
			t.Fatalf("Sample returned %d questions, want 3", len(got))
		}
		seen := map[Question]bool{}
		for _, q := range got {
			if seen[q] {
				t.Fatalf("duplicate question %q in %v", q, got)
			}
			seen[q] = true
		}
	}
}

func TestSampleClampsToBank(t *testing.T) {
	bank := []Question{"a", "b"}
	if got := Sample(bank, 5, nil); len(got) != 2 {
		t.Errorf("Sample = %v, want both questions", got)
	}
	if got := Sample(bank, 0, nil); len(got) != 0 {
		t.Errorf("Sample(0) = %v, want none", got)
	}
}

func TestBankFallsBackToDefault(t *testing.T) {
	if got := Bank(nil); len(got) != len(DefaultQuestionBank) {
		t.Errorf("Bank(nil) = %d questions, want %d", len(got), len(DefaultQuestionBank))
	}
	if got := Bank([]string{"", ""}); len(got) != len(DefaultQuestionBank) {
		t.Errorf("Bank of blanks = %d questions, want default", len(got))
	}
	if got := Bank([]string{"Tell me about yourself."}); len(got) != 1 || got[0] != "Tell me about yourself." {
		t.Errorf("Bank = %v", got)
	}
}

func TestSessionReset(t *testing.T) {
	s := NewSession("one", []Question{"a", "b"})
	s.Index = 2
	s.Entries = []Entry{{Question: "a"}, {Question: "b"}}
	s.Complete = true

	s.Reset("two", []Question{"c"})

	if s.ID != "two" || s.Index != 0 || len(s.Entries) != 0 || s.Complete {
		t.Errorf("Reset left %+v", s)
	}
	if q, ok := s.Current(); !ok || q != "c" {
		t.Errorf("Current = %q, %v, want c", q, ok)
	}
}
