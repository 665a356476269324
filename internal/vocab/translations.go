package vocab

import "strings"

// ParseTranslations parses a raw translation cell of the form
//
//	"тип1: значение1, значение2 | тип2: значение3"
//
// Parts without a colon, empty types and empty meanings are dropped. A
// type repeated across parts accumulates its meanings.
func ParseTranslations(raw string) Translations {
	var tr Translations
	for _, part := range strings.Split(raw, "|") {
		part = strings.TrimSpace(part)
		split := strings.SplitN(part, ":", 2)
		if len(split) != 2 {
			continue
		}
		typ := strings.TrimSpace(split[0])
		rest := strings.TrimSpace(split[1])
		if typ == "" || rest == "" {
			continue
		}
		var meanings []string
		for _, m := range strings.Split(rest, ",") {
			if m = strings.TrimSpace(m); m != "" {
				meanings = append(meanings, m)
			}
		}
		if len(meanings) > 0 {
			tr.Add(typ, meanings...)
		}
	}
	return tr
}
