package model

import "strings"

// Message content is plain text unless it carries one of these
// prefixes, in which case the remainder names an asset in the session
// media directory. The prefix decides rendering and enrichment
// eligibility.
const (
	ImagePrefix = "image:"
	AudioPrefix = "audio:"

	// StegoSuffix marks image assets produced by the steganographic
	// encoder; only these are candidates for lazy decode.
	StegoSuffix = "_stego.png"
)

// ImageRef extracts the asset name from an image message.
func ImageRef(content string) (string, bool) {
	if ref, ok := strings.CutPrefix(content, ImagePrefix); ok {
		return ref, true
	}
	return "", false
}

// AudioRef extracts the asset name from an audio message.
func AudioRef(content string) (string, bool) {
	if ref, ok := strings.CutPrefix(content, AudioPrefix); ok {
		return ref, true
	}
	return "", false
}

// IsStegoImage reports whether content references a stego-named image.
func IsStegoImage(content string) bool {
	ref, ok := ImageRef(content)
	return ok && strings.HasSuffix(ref, StegoSuffix)
}
