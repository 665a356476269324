// Package vocab builds an in-memory lexicon from the two vocabulary CSV
// inventories: the character file (pronunciation rows linking characters
// to example words) and the word file (per-word translations grouped by
// word type). The lexicon answers the queries card rendering needs:
// word lookup, per-character usage and homophones, and word homophones.
package vocab
