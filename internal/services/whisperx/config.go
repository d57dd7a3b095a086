package whisperx

import "time"

// Config captures runtime settings for the language probe.
type Config struct {
	// PythonBinary is the interpreter inside the environment carrying
	// faster-whisper; empty means "python3" on PATH.
	PythonBinary string
	// Model is the Whisper model to load (e.g. "large-v3-turbo").
	Model string
	// ComputeType selects the CTranslate2 compute type ("int8", "float32").
	ComputeType string
	// Timeout bounds one probe invocation. Zero means 120s.
	Timeout time.Duration
}

const (
	DefaultModel       = "large-v3-turbo"
	DefaultComputeType = "int8"

	defaultTimeout = 120 * time.Second
)
