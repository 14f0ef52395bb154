// Package capability declares the optional device-facing services the
// engine can use: speech recognition, steganographic image codecs and
// audio capture. Every capability is asynchronous and best-effort; an
// absent one degrades the feature silently instead of failing sends.
package capability

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by a capability that cannot start its
// work at all (missing binary, closed device). In-flight failures are
// reported by never invoking the completion callback.
var ErrUnavailable = errors.New("capability unavailable")

// Transcriber turns a recorded audio asset into text. done is invoked
// at most once, from an arbitrary goroutine, with the recognized text
// (empty when recognition produced nothing). No retries, no timeout.
type Transcriber interface {
	Recognize(ctx context.Context, audioRef string, done func(text string)) error
}

// StegoCodec hides text inside images and recovers it.
//
// Decode reads the asset named by imageRef and calls done at most once
// with the recovered text, empty when the image carries none. Encode
// embeds text into the image given as a base64 data URL, stores the
// result in the session media directory and reports the stored asset
// name through done.
type StegoCodec interface {
	Decode(ctx context.Context, imageRef string, done func(text string)) error
	Encode(ctx context.Context, contactRef, imageDataURL, text string, done func(resultRef string)) error
}

// Recorder captures audio from the local device. Finished recordings
// are delivered to the engine out of band (the engine's
// RecordingFinished entry point), mirroring how capture hardware
// reports completion on its own schedule.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Set bundles whichever capabilities the host wired in. Nil fields
// mean the capability is absent.
type Set struct {
	Transcriber Transcriber
	Stego       StegoCodec
	Recorder    Recorder
}
