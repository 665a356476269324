// Package anki writes Anki .apkg deck packages: a zip archive holding a
// schema-version-11 collection.anki2 SQLite database, a media manifest
// and numbered media entries. The SQLite layout and the collection JSON
// blobs follow what Anki 2.0/2.1 accepts on import.
package anki
