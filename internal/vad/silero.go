package vad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// SileroDetector runs Silero VAD through a Python interpreter that has the
// silero-vad package installed. The script reads the WAV path and parameters
// from argv, so no shell interpolation touches user-controlled paths.
type SileroDetector struct {
	// PythonBinary is the interpreter inside the environment carrying
	// silero-vad; empty means "python3" on PATH.
	PythonBinary string
	// Threshold is the speech probability cutoff, 0.1-0.9.
	Threshold float64
	// MinSpeechSeconds and MaxSpeechSeconds bound the spans the model reports.
	MinSpeechSeconds float64
	MaxSpeechSeconds float64
	// Timeout bounds one detection pass. Zero means 60s.
	Timeout time.Duration
}

const sileroScript = `
import json, sys
from silero_vad import load_silero_vad, read_audio, get_speech_timestamps

wav_path = sys.argv[1]
threshold = float(sys.argv[2])
min_speech_ms = int(float(sys.argv[3]) * 1000)
max_speech_s = float(sys.argv[4])

model = load_silero_vad()
wav = read_audio(wav_path, sampling_rate=16000)
stamps = get_speech_timestamps(
    wav, model,
    threshold=threshold,
    min_speech_duration_ms=min_speech_ms,
    max_speech_duration_s=max_speech_s,
)
print(json.dumps([
    {"start": s["start"] / 16000, "end": s["end"] / 16000} for s in stamps
]))
`

// DetectSpeech implements Detector.
func (d *SileroDetector) DetectSpeech(ctx context.Context, wavPath string) ([]Interval, error) {
	binary := strings.TrimSpace(d.PythonBinary)
	if binary == "" {
		binary = "python3"
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "-c", sileroScript,
		wavPath,
		fmt.Sprintf("%g", d.Threshold),
		fmt.Sprintf("%g", d.MinSpeechSeconds),
		fmt.Sprintf("%g", d.MaxSpeechSeconds),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("silero vad: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	var intervals []Interval
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &intervals); err != nil {
		return nil, fmt.Errorf("silero vad parse: %w", err)
	}
	return intervals, nil
}

// Name implements Detector.
func (d *SileroDetector) Name() string {
	return "silero"
}
