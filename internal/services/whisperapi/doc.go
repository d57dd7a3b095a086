// Package whisperapi implements the language classifier against an
// OpenAI-compatible transcription endpoint. The verbose JSON response carries
// the detected language plus per-segment quality signals; the endpoint never
// reports a full probability distribution, so each clip yields a single
// language vote.
package whisperapi
