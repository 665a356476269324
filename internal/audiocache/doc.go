// Package audiocache persists fetched pronunciation clips so repeated
// deck builds do not hit the TTS endpoint for words already spoken.
//
// Clips are keyed by the MD5 of the word text, which doubles as the
// media file name inside generated decks. Three backends are provided:
// a plain directory of .mp3 files, an embedded Badger database, and
// Redis for deployments that share a cache across hosts.
package audiocache
