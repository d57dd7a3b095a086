package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDetection()
	c.normalizeClassifier()
	c.normalizeCorrection()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CatalogPath) == "" {
		c.Paths.CatalogPath = defaultCatalogPath
	}
	if c.Paths.CatalogPath, err = expandPath(c.Paths.CatalogPath); err != nil {
		return fmt.Errorf("paths.catalog_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeDetection() {
	d := &c.Detection
	d.TargetSpeechDuration = clamp(d.TargetSpeechDuration, 30, 300, defaultTargetSpeechDuration)
	d.MinSegmentLength = clamp(d.MinSegmentLength, 0.5, 30, defaultMinSegmentLength)
	d.MaxSegmentLength = clamp(d.MaxSegmentLength, d.MinSegmentLength, 60, defaultMaxSegmentLength)
	d.VADThreshold = clamp(d.VADThreshold, 0.1, 0.9, defaultVADThreshold)
	d.ConfidenceHighThreshold = clamp(d.ConfidenceHighThreshold, 0, 1, defaultConfidenceHighThreshold)
	d.ConfidenceMediumThreshold = clamp(d.ConfidenceMediumThreshold, 0, 1, defaultConfidenceMediumThreshold)
	d.EarlyExitThreshold = clamp(d.EarlyExitThreshold, 0, 1, defaultEarlyExitThreshold)
	if d.MinDurationBeforeExit <= 0 {
		d.MinDurationBeforeExit = defaultMinDurationBeforeExit
	}
	if d.MaxProcessingTime <= 0 {
		d.MaxProcessingTime = defaultMaxProcessingTime
	}
	if d.TrackWorkers <= 0 {
		d.TrackWorkers = defaultTrackWorkers
	}
}

func (c *Config) normalizeClassifier() {
	cl := &c.Classifier
	cl.Backend = strings.ToLower(strings.TrimSpace(cl.Backend))
	if cl.Backend == "" {
		cl.Backend = defaultClassifierBackend
	}
	cl.WhisperXModel = strings.TrimSpace(cl.WhisperXModel)
	if cl.WhisperXModel == "" {
		cl.WhisperXModel = defaultWhisperXModel
	}
	cl.WhisperXComputeType = strings.TrimSpace(cl.WhisperXComputeType)
	if cl.WhisperXComputeType == "" {
		cl.WhisperXComputeType = defaultWhisperXComputeType
	}
	cl.PythonBinary = strings.TrimSpace(cl.PythonBinary)
	if cl.PythonBinary == "" {
		cl.PythonBinary = defaultPythonBinary
	}
	cl.APIKey = strings.TrimSpace(cl.APIKey)
	if cl.APIKey == "" {
		if value, ok := os.LookupEnv("LINGUA_API_KEY"); ok {
			cl.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			cl.APIKey = strings.TrimSpace(value)
		}
	}
	cl.APIBaseURL = strings.TrimSpace(cl.APIBaseURL)
	if cl.APIBaseURL == "" {
		cl.APIBaseURL = defaultAPIBaseURL
	}
	cl.APIModel = strings.TrimSpace(cl.APIModel)
	if cl.APIModel == "" {
		cl.APIModel = defaultAPIModel
	}
	if cl.TimeoutSeconds <= 0 {
		cl.TimeoutSeconds = defaultClassifierTimeout
	}
}

func (c *Config) normalizeCorrection() {
	cr := &c.Correction
	cr.MinConfidenceThreshold = clamp(cr.MinConfidenceThreshold, 0, 1, defaultMinConfidence)
	cr.AmbiguousLowThreshold = clamp(cr.AmbiguousLowThreshold, 0, 1, defaultAmbiguousLowThreshold)
	cr.AmbiguousHighThreshold = clamp(cr.AmbiguousHighThreshold, 0, 1, defaultAmbiguousHighBound)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json", "auto":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// clamp pins value into [low, high]; a zero value means unset and takes the
// default instead.
func clamp(value, low, high, fallback float64) float64 {
	if value == 0 {
		return fallback
	}
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
