package vocab

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTranslations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string][]string
	}{
		{
			name: "single type single meaning",
			raw:  "сущ: минута",
			want: map[string][]string{"сущ": {"минута"}},
		},
		{
			name: "single type multiple meanings",
			raw:  "сущ: минута, мин",
			want: map[string][]string{"сущ": {"минута", "мин"}},
		},
		{
			name: "multiple types",
			raw:  "гл: быть, являться | сущ: бытие",
			want: map[string][]string{"гл": {"быть", "являться"}, "сущ": {"бытие"}},
		},
		{
			name: "repeated type accumulates",
			raw:  "сущ: дом | сущ: дверь",
			want: map[string][]string{"сущ": {"дом", "дверь"}},
		},
		{
			name: "part without colon dropped",
			raw:  "просто текст | сущ: дом",
			want: map[string][]string{"сущ": {"дом"}},
		},
		{
			name: "empty type dropped",
			raw:  ": значение",
			want: map[string][]string{},
		},
		{
			name: "empty meanings dropped",
			raw:  "сущ: ,,,",
			want: map[string][]string{},
		},
		{
			name: "meaning keeps inner colon",
			raw:  "прим: см. также: раздел 3",
			want: map[string][]string{"прим": {"см. также: раздел 3"}},
		},
		{
			name: "empty input",
			raw:  "",
			want: map[string][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := ParseTranslations(tt.raw)

			got := make(map[string][]string)
			for _, typ := range tr.Types() {
				got[typ] = tr.Meanings(typ)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("translations mismatch (-want +got):\n%s", diff)
			}
			wantEmpty := true
			for _, meanings := range tt.want {
				if len(meanings) > 0 {
					wantEmpty = false
				}
			}
			if tr.Empty() != wantEmpty {
				t.Errorf("Empty() = %v, want %v", tr.Empty(), wantEmpty)
			}
		})
	}
}

func TestTranslationsTypeOrder(t *testing.T) {
	tr := ParseTranslations("гл: идти | сущ: ход | гл: ехать")
	if diff := cmp.Diff([]string{"гл", "сущ"}, tr.Types()); diff != "" {
		t.Errorf("type order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"идти", "ехать"}, tr.Meanings("гл")); diff != "" {
		t.Errorf("accumulated meanings mismatch (-want +got):\n%s", diff)
	}
}
