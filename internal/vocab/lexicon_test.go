package vocab

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWordsKeepInsertionOrder(t *testing.T) {
	lex := loadTestLexicon(t)

	want := []string{"八个", "八月", "分钟", "十分", "中国", "妈妈", "好吗", "马上", "你好", "吗"}
	if diff := cmp.Diff(want, lex.Words()); diff != "" {
		t.Errorf("word order mismatch (-want +got):\n%s", diff)
	}
}

func TestCharAnalysisWordsInOrder(t *testing.T) {
	lex := loadTestLexicon(t)

	a := lex.CharAnalysis("分")
	if diff := cmp.Diff([]string{"分钟", "十分"}, a.Words); diff != "" {
		t.Errorf("words mismatch (-want +got):\n%s", diff)
	}
	if len(a.Homophones) != 0 {
		t.Errorf("single-character row must record no homophones, got %v", a.Homophones)
	}
}

func TestCharAnalysisHomophonesFromRow(t *testing.T) {
	lex := loadTestLexicon(t)

	tests := []struct {
		char string
		want []string
	}{
		{"妈", []string{"吗", "马"}},
		{"吗", []string{"妈", "马"}},
		{"马", []string{"妈", "吗"}},
		{"钟", []string{"中"}},
		{"中", []string{"钟"}},
	}
	for _, tt := range tests {
		got := lex.CharAnalysis(tt.char).Homophones
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("homophones of %s mismatch (-want +got):\n%s", tt.char, diff)
		}
	}
}

func TestCharAnalysisUnknownChar(t *testing.T) {
	lex := loadTestLexicon(t)

	a := lex.CharAnalysis("龙")
	if len(a.Words) != 0 || len(a.Homophones) != 0 {
		t.Errorf("expected empty analysis, got %+v", a)
	}
}

func TestWordHomophones(t *testing.T) {
	csv := strings.Join([]string{
		"是;shì;гл: быть",
		"事;shì;сущ: дело",
		"市;shì;сущ: город",
		"大;dà;прил: большой",
	}, "\n")

	lex := NewLexicon()
	if err := lex.LoadWords(strings.NewReader(csv)); err != nil {
		t.Fatalf("LoadWords: %v", err)
	}

	if diff := cmp.Diff([]string{"事", "市"}, lex.WordHomophones("是")); diff != "" {
		t.Errorf("homophones of 是 mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"是", "市"}, lex.WordHomophones("事")); diff != "" {
		t.Errorf("homophones of 事 mismatch (-want +got):\n%s", diff)
	}
	if got := lex.WordHomophones("大"); len(got) != 0 {
		t.Errorf("expected no homophones for 大, got %v", got)
	}
	if got := lex.WordHomophones("没有"); got != nil {
		t.Errorf("unknown word must yield nil, got %v", got)
	}
}

func TestWordHomophonesEmptyPronunciationNeverMatches(t *testing.T) {
	csv := strings.Join([]string{
		"吗;;частица: вопрос",
		"呢;;частица: а",
	}, "\n")

	lex := NewLexicon()
	if err := lex.LoadWords(strings.NewReader(csv)); err != nil {
		t.Fatalf("LoadWords: %v", err)
	}
	if got := lex.WordHomophones("吗"); got != nil {
		t.Errorf("empty pronunciations must not match each other, got %v", got)
	}
}

func TestStats(t *testing.T) {
	lex := loadTestLexicon(t)

	s := lex.Stats()
	if s.Words != 10 {
		t.Errorf("Words = %d, want 10", s.Words)
	}
	// 分钟, 妈妈, 你好 and 吗 carry translations from the word file.
	if s.Translated != 4 {
		t.Errorf("Translated = %d, want 4", s.Translated)
	}
	if s.Characters == 0 {
		t.Error("Characters must be counted")
	}
}

func TestLexiconEmpty(t *testing.T) {
	lex := NewLexicon()
	if lex.Len() != 0 {
		t.Errorf("Len = %d, want 0", lex.Len())
	}
	if got := lex.Words(); len(got) != 0 {
		t.Errorf("Words = %v, want empty", got)
	}
	if _, ok := lex.Word("分钟"); ok {
		t.Error("lookup on empty lexicon must miss")
	}
}
