package whisperx

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"lingua/internal/lid"
)

func TestParseProbeOutputFullDistribution(t *testing.T) {
	payload := []byte(`{
		"language": "ja",
		"language_probability": 0.92,
		"language_probs": {"ja": 0.92, "en": 0.05, "ko": 0.03},
		"avg_logprob": -0.31,
		"no_speech_prob": 0.04,
		"segment_count": 3
	}`)
	inference := parseProbeOutput(payload)
	if inference.Failed() {
		t.Fatalf("unexpected failure: %s %s", inference.Err, inference.Detail)
	}
	if inference.Language != "ja" {
		t.Fatalf("language = %q", inference.Language)
	}
	if inference.Distribution["ja"] != 0.92 || len(inference.Distribution) != 3 {
		t.Fatalf("distribution = %v", inference.Distribution)
	}
	if inference.Quality.AvgLogProb != -0.31 || inference.Quality.AvgNoSpeechProb != 0.04 {
		t.Fatalf("quality = %+v", inference.Quality)
	}
}

func TestParseProbeOutputDegenerateDistribution(t *testing.T) {
	payload := []byte(`{"language": "de", "language_probability": 0.88, "segment_count": 1}`)
	inference := parseProbeOutput(payload)
	if inference.Failed() {
		t.Fatalf("unexpected failure: %s", inference.Err)
	}
	if inference.Distribution["de"] != 0.88 || len(inference.Distribution) != 1 {
		t.Fatalf("distribution = %v", inference.Distribution)
	}
}

func TestParseProbeOutputNoSpeech(t *testing.T) {
	payload := []byte(`{"language": "en", "segment_count": 0}`)
	inference := parseProbeOutput(payload)
	if inference.Err != lid.ErrorNoSpeechDetected {
		t.Fatalf("err = %q, want no_speech_detected", inference.Err)
	}
}

func TestParseProbeOutputMalformed(t *testing.T) {
	inference := parseProbeOutput([]byte("traceback: boom"))
	if inference.Err != lid.ErrorClassificationFailed {
		t.Fatalf("err = %q, want classification_failed", inference.Err)
	}
}

func TestClassifyPassesArguments(t *testing.T) {
	svc := NewService(Config{PythonBinary: "python3.12", Model: "small", ComputeType: "float32"})
	var gotName string
	var gotArgs []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName = name
		gotArgs = args
		return []byte(`{"language": "en", "language_probability": 0.9, "segment_count": 1}`), nil
	})

	inference := svc.Classify(context.Background(), "/tmp/clip.wav")
	if inference.Failed() {
		t.Fatalf("unexpected failure: %s", inference.Err)
	}
	if gotName != "python3.12" {
		t.Fatalf("binary = %q", gotName)
	}
	// argv: -c <script> <wav> <model> <compute_type>
	if len(gotArgs) != 5 || gotArgs[2] != "/tmp/clip.wav" || gotArgs[3] != "small" || gotArgs[4] != "float32" {
		t.Fatalf("args = %v", gotArgs)
	}
}

func TestClassifyReportsMissingInterpreter(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, &exec.Error{Name: "python3", Err: exec.ErrNotFound}
	})

	inference := svc.Classify(context.Background(), "/tmp/clip.wav")
	if inference.Err != lid.ErrorDetectorUnavailable {
		t.Fatalf("err = %q, want detector_unavailable", inference.Err)
	}
}

func TestClassifyReportsRuntimeFailure(t *testing.T) {
	svc := NewService(Config{})
	svc.WithCommandRunner(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("CUDA out of memory")
	})

	inference := svc.Classify(context.Background(), "/tmp/clip.wav")
	if inference.Err != lid.ErrorClassificationFailed {
		t.Fatalf("err = %q, want classification_failed", inference.Err)
	}
}
