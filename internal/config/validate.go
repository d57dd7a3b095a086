package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateCorrection(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDetection() error {
	d := c.Detection
	if d.ConfidenceHighThreshold <= d.ConfidenceMediumThreshold {
		return errors.New("detection.confidence_high_threshold must be greater than detection.confidence_medium_threshold")
	}
	if d.MaxSegmentLength < d.MinSegmentLength {
		return errors.New("detection.max_segment_length must be at least detection.min_segment_length")
	}
	if d.TrackWorkers <= 0 {
		return errors.New("detection.track_workers must be positive")
	}
	if d.MaxProcessingTime <= 0 {
		return errors.New("detection.max_processing_time must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	switch c.Classifier.Backend {
	case "whisperx":
	case "api":
		if c.Classifier.APIKey == "" {
			return errors.New("classifier.api_key must be set when classifier.backend is \"api\" (or set LINGUA_API_KEY)")
		}
	default:
		return fmt.Errorf("classifier.backend must be \"whisperx\" or \"api\", got %q", c.Classifier.Backend)
	}
	return nil
}

func (c *Config) validateCorrection() error {
	if c.Correction.AmbiguousHighThreshold <= c.Correction.AmbiguousLowThreshold {
		return errors.New("correction.ambiguous_high_threshold must be greater than correction.ambiguous_low_threshold")
	}
	return nil
}
