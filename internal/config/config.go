package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir  string `toml:"staging_dir"`
	LogDir      string `toml:"log_dir"`
	CatalogPath string `toml:"catalog_path"`
}

// Detection contains the segment selection and aggregation settings.
type Detection struct {
	TargetSpeechDuration      float64 `toml:"target_speech_duration"`
	MinSegmentLength          float64 `toml:"min_segment_length"`
	MaxSegmentLength          float64 `toml:"max_segment_length"`
	VADThreshold              float64 `toml:"vad_threshold"`
	ConfidenceHighThreshold   float64 `toml:"confidence_high_threshold"`
	ConfidenceMediumThreshold float64 `toml:"confidence_medium_threshold"`
	EarlyExitThreshold        float64 `toml:"early_exit_threshold"`
	MinDurationBeforeExit     float64 `toml:"min_duration_before_exit"`
	PreferCenterChannel       bool    `toml:"prefer_center_channel"`
	UseSubtitlePriors         bool    `toml:"use_subtitle_priors"`
	CleanupIntermediate       bool    `toml:"cleanup_intermediate"`
	MaxProcessingTime         int     `toml:"max_processing_time"`
	TrackWorkers              int     `toml:"track_workers"`
}

// Classifier contains backend selection and per-backend settings. Backend is
// "whisperx" (local model via the Python helper) or "api" (OpenAI-compatible
// transcription endpoint).
type Classifier struct {
	Backend             string `toml:"backend"`
	WhisperXModel       string `toml:"whisperx_model"`
	WhisperXComputeType string `toml:"whisperx_compute_type"`
	PythonBinary        string `toml:"python_binary"`
	APIKey              string `toml:"api_key"`
	APIBaseURL          string `toml:"api_base_url"`
	APIModel            string `toml:"api_model"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
}

// Correction contains the tag correction policy settings.
type Correction struct {
	MinConfidenceThreshold  float64 `toml:"min_confidence_threshold"`
	RequireHighConfidence   bool    `toml:"require_high_confidence"`
	PreferSubtitleValidated bool    `toml:"prefer_subtitle_validated"`
	AmbiguousLowThreshold   float64 `toml:"ambiguous_low_threshold"`
	AmbiguousHighThreshold  float64 `toml:"ambiguous_high_threshold"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lingua.
//
// Configuration sections by subsystem:
//   - Paths: staging, log, and catalog locations
//   - Detection: VAD, segment selection, and confidence aggregation
//   - Classifier: language identification backend selection
//   - Correction: tag correction policy thresholds
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Detection  Detection  `toml:"detection"`
	Classifier Classifier `toml:"classifier"`
	Correction Correction `toml:"correction"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lingua/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and numeric settings clamped.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lingua.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StagingDir, c.Paths.LogDir, filepath.Dir(c.Paths.CatalogPath)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for audio extraction
// and tag rewriting.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for stream inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
