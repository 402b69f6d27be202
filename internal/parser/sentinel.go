package parser

import "strings"

// errorLabel is one recognized backend error message. The backend streams
// these as plain text chunks in place of (or in the middle of) a generated
// response, so they must be distinguishable from ordinary prose.
type errorLabel struct {
	message     string
	rateLimited bool
}

// Known error messages, English and Indonesian, exactly as emitted by the
// backend's error translation layer. Matching requires the chunk to begin
// with the complete message: a response that merely mentions rate limits
// must not trip the failure path.
var errorLabels = []errorLabel{
	{message: "rate limit exceeded. please try again later.", rateLimited: true},
	{message: "batas permintaan tercapai. silakan coba lagi nanti.", rateLimited: true},
	{message: "server configuration error: the api key is not valid."},
	{message: "kesalahan konfigurasi server: kunci api tidak valid."},
	{message: "an unexpected error occurred on the server."},
	{message: "terjadi kesalahan tak terduga di server."},
	{message: "error: could not connect to the backend server."},
	{message: "kesalahan: tidak dapat terhubung ke server backend."},
}

// MatchSentinel tests whether chunk begins with a recognized error message.
// Returns the original chunk text (for display), whether the sentinel
// indicates rate limiting, and whether it matched at all.
func MatchSentinel(chunk string) (label string, rateLimited bool, ok bool) {
	trimmed := strings.TrimSpace(chunk)
	lower := strings.ToLower(trimmed)
	for _, l := range errorLabels {
		if strings.HasPrefix(lower, l.message) {
			return trimmed, l.rateLimited, true
		}
	}
	return "", false, false
}
