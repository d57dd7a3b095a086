package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	"lingua/internal/catalog"
	"lingua/internal/config"
	"lingua/internal/lid"
	"lingua/internal/logging"
	"lingua/internal/services"
	"lingua/internal/services/whisperapi"
	"lingua/internal/services/whisperx"
	"lingua/internal/vad"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) buildLogger(cfg *config.Config) (*slog.Logger, error) {
	outputs := []string{"stderr"}
	if cfg.Paths.LogDir != "" {
		outputs = append(outputs, filepath.Join(cfg.Paths.LogDir, "lingua.log"))
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      resolveLogFormat(cfg.Logging.Format),
		OutputPaths: outputs,
	})
}

// resolveLogFormat maps "auto" to console on an interactive terminal and JSON
// everywhere else.
func resolveLogFormat(format string) string {
	if format != "auto" {
		return format
	}
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return "console"
	}
	return "json"
}

func (c *commandContext) openCatalog(cfg *config.Config) (*catalog.Store, error) {
	store, err := catalog.Open(cfg.Paths.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return store, nil
}

// newClassifier selects the inference backend from configuration.
func newClassifier(cfg *config.Config) (lid.Classifier, error) {
	timeout := time.Duration(cfg.Classifier.TimeoutSeconds) * time.Second
	switch cfg.Classifier.Backend {
	case "whisperx":
		return whisperx.NewService(whisperx.Config{
			PythonBinary: cfg.Classifier.PythonBinary,
			Model:        cfg.Classifier.WhisperXModel,
			ComputeType:  cfg.Classifier.WhisperXComputeType,
			Timeout:      timeout,
		}), nil
	case "api":
		return whisperapi.NewService(whisperapi.Config{
			APIKey:  cfg.Classifier.APIKey,
			BaseURL: cfg.Classifier.APIBaseURL,
			Model:   cfg.Classifier.APIModel,
			Timeout: timeout,
		}), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "classifier", "select backend",
			fmt.Sprintf("unknown classifier backend %q", cfg.Classifier.Backend), nil)
	}
}

func newDetector(cfg *config.Config) vad.Detector {
	return &vad.SileroDetector{
		PythonBinary:     cfg.Classifier.PythonBinary,
		Threshold:        cfg.Detection.VADThreshold,
		MinSpeechSeconds: cfg.Detection.MinSegmentLength,
		MaxSpeechSeconds: cfg.Detection.MaxSegmentLength,
	}
}
