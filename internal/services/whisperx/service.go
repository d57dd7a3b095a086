package whisperx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"lingua/internal/lid"
)

// probeScript identifies the spoken language in one WAV clip. The clip path
// and model settings come from argv, so no shell interpolation touches
// user-controlled paths. Output is a single JSON object on stdout.
const probeScript = `
import json, sys
from faster_whisper import WhisperModel

wav_path = sys.argv[1]
model_name = sys.argv[2]
compute_type = sys.argv[3]

model = WhisperModel(model_name, device="cpu", compute_type=compute_type)
segments, info = model.transcribe(wav_path, beam_size=1, vad_filter=False)

logprobs = []
no_speech = []
for seg in segments:
    logprobs.append(seg.avg_logprob)
    no_speech.append(seg.no_speech_prob)

probs = {}
if info.all_language_probs:
    for code, prob in info.all_language_probs[:10]:
        if prob > 0:
            probs[code] = prob

print(json.dumps({
    "language": info.language,
    "language_probability": info.language_probability,
    "language_probs": probs,
    "avg_logprob": sum(logprobs) / len(logprobs) if logprobs else None,
    "no_speech_prob": sum(no_speech) / len(no_speech) if no_speech else None,
    "segment_count": len(logprobs),
}))
`

// Service implements the language classifier against a local Whisper model.
type Service struct {
	cfg Config

	// commandRunner overrides probe execution for tests. It receives the
	// interpreter name and full argument list and returns stdout.
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewService creates a probe service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ComputeType == "" {
		cfg.ComputeType = DefaultComputeType
	}
	if cfg.PythonBinary == "" {
		cfg.PythonBinary = "python3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.commandRunner = runner
}

// Name implements lid.Classifier.
func (s *Service) Name() string {
	return "whisperx"
}

// Classify implements lid.Classifier. Failures are reported through the
// inference error kind rather than an error return so the aggregator can
// record them per segment and keep going.
func (s *Service) Classify(ctx context.Context, wavPath string) lid.Inference {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	args := []string{"-c", probeScript, wavPath, s.cfg.Model, s.cfg.ComputeType}
	output, err := s.run(ctx, s.cfg.PythonBinary, args...)
	if err != nil {
		kind := lid.ErrorClassificationFailed
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			kind = lid.ErrorDetectorUnavailable
		}
		return lid.Inference{Err: kind, Detail: err.Error()}
	}

	return parseProbeOutput(output)
}

func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

type probePayload struct {
	Language            string             `json:"language"`
	LanguageProbability float64            `json:"language_probability"`
	LanguageProbs       map[string]float64 `json:"language_probs"`
	AvgLogProb          *float64           `json:"avg_logprob"`
	NoSpeechProb        *float64           `json:"no_speech_prob"`
	SegmentCount        int                `json:"segment_count"`
}

func parseProbeOutput(output []byte) lid.Inference {
	var payload probePayload
	if err := json.Unmarshal(bytes.TrimSpace(output), &payload); err != nil {
		return lid.Inference{Err: lid.ErrorClassificationFailed, Detail: fmt.Sprintf("parse probe output: %v", err)}
	}
	if payload.Language == "" || payload.SegmentCount == 0 {
		return lid.Inference{Err: lid.ErrorNoSpeechDetected, Detail: "no transcribable speech in clip"}
	}

	inference := lid.Inference{Language: payload.Language}
	if len(payload.LanguageProbs) > 0 {
		inference.Distribution = lid.Distribution(payload.LanguageProbs)
	} else if payload.LanguageProbability > 0 {
		inference.Distribution = lid.Distribution{payload.Language: payload.LanguageProbability}
	}
	if payload.AvgLogProb != nil {
		inference.Quality.AvgLogProb = *payload.AvgLogProb
	}
	if payload.NoSpeechProb != nil {
		inference.Quality.AvgNoSpeechProb = *payload.NoSpeechProb
	}
	return inference
}
