package lid

import "context"

// ErrorKind classifies recoverable failures inside the detection pipeline.
// Every kind is non-fatal: a failed segment contributes no evidence and a
// failed track never blocks other tracks.
type ErrorKind string

const (
	ErrorNone                 ErrorKind = ""
	ErrorDetectorUnavailable  ErrorKind = "detector_unavailable"
	ErrorSegmentExtractFailed ErrorKind = "segment_extract_failed"
	ErrorClassificationFailed ErrorKind = "classification_failed"
	ErrorNoSpeechDetected     ErrorKind = "no_speech_detected"
)

// Quality carries the secondary signals reported by the inference backend for
// one segment.
type Quality struct {
	AvgLogProb      float64
	AvgNoSpeechProb float64
}

// Inference is the normalized output of one classification call. Exactly one
// of two shapes is useful: a populated Language (optionally with a full
// Distribution), or an Err describing why the segment yielded no evidence.
// The Distribution, when present, need not be pre-normalized.
type Inference struct {
	Language     string
	Distribution Distribution
	Quality      Quality
	Err          ErrorKind
	Detail       string
}

// Failed reports whether the segment produced no usable evidence.
func (r Inference) Failed() bool {
	return r.Err != ErrorNone
}

// ClassifyFunc materializes one selected segment's audio and runs language
// inference on it. Implementations never return transport errors; failures are
// carried on the Inference so the aggregator can record and skip them.
type ClassifyFunc func(ctx context.Context, segment Selected) Inference

// Classifier is the injected language-inference capability: a bounded-length
// mono audio sample in, a language code plus optional probability distribution
// and quality scalars out.
type Classifier interface {
	// Classify infers the spoken language of the audio file at path.
	Classify(ctx context.Context, path string) Inference
	// Name identifies the backend in logs and sidecar parameters.
	Name() string
}
