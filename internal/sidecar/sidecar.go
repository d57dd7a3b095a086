// Package sidecar reads and writes the per-file detection sidecar. The current
// schema is version 2.0; legacy v1 sidecars (results at the top level, only a
// language per track) are still accepted on read and marked so the correction
// pass can apply them without a confidence gate.
package sidecar

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"lingua/internal/lid"
)

// Version is the detection schema version written by this build.
const Version = "2.0"

// Suffix is appended to the media file name to form the sidecar path.
const Suffix = ".lingua.json"

var (
	// ErrMissing indicates no sidecar exists for the media file.
	ErrMissing = errors.New("sidecar missing")
	// ErrParse indicates the sidecar exists but could not be decoded.
	ErrParse = errors.New("sidecar parse failed")
)

// StreamIndex is a container stream index: the absolute position of the track
// among all streams. Sidecar results are keyed by it.
type StreamIndex int

// AudioOrdinal is a track's 0-based position among audio streams only. Tag
// edits address tracks by ordinal, never by stream index; the two must not be
// conflated.
type AudioOrdinal int

// Parameters snapshots the detection configuration a sidecar was produced
// with.
type Parameters struct {
	TargetSpeechDuration float64              `json:"target_speech_duration"`
	VADThreshold         float64              `json:"vad_threshold"`
	ConfidenceThresholds ConfidenceThresholds `json:"confidence_thresholds"`
	SubtitlePriors       []string             `json:"subtitle_priors"`
}

// ConfidenceThresholds mirrors the tiering configuration.
type ConfidenceThresholds struct {
	High      float64 `json:"high"`
	Medium    float64 `json:"medium"`
	EarlyExit float64 `json:"early_exit"`
}

// Validation persists the subtitle cross-check outcome.
type Validation struct {
	MatchingSubtitleFound bool     `json:"matching_subtitle_found"`
	SubtitleLanguages     []string `json:"subtitle_languages"`
}

// Detection is one persisted per-track decision.
type Detection struct {
	Language               string               `json:"language"`
	Confidence             float64              `json:"confidence"`
	Tier                   string               `json:"confidence_tier"`
	Distribution           map[string]float64   `json:"language_distribution,omitempty"`
	SpeechSegmentsFound    int                  `json:"speech_segments_found"`
	SegmentsAnalyzed       int                  `json:"segments_analyzed"`
	TotalSpeechDuration    float64              `json:"total_speech_duration"`
	SpeechAnalyzedDuration float64              `json:"speech_analyzed_duration"`
	EarlyExit              bool                 `json:"early_exit"`
	SegmentSource          string               `json:"segment_source,omitempty"`
	SubtitleValidation     *Validation          `json:"subtitle_validation,omitempty"`
	Failures               []lid.SegmentFailure `json:"failures,omitempty"`
}

// TrackRecord is one entry under "results": a detection, a skip, or an error.
// Legacy marks entries read from a v1 sidecar, which carry only a language and
// are treated as always-apply by the correction pass.
type TrackRecord struct {
	Detection  *Detection
	Skipped    bool
	SkipReason string
	Error      string
	Legacy     bool
}

// Document is a parsed sidecar.
type Document struct {
	File        string
	ProcessedAt time.Time
	Version     string
	Parameters  *Parameters
	Results     map[StreamIndex]TrackRecord
}

// PathFor returns the sidecar path for a media file.
func PathFor(mediaPath string) string {
	return mediaPath + Suffix
}

type wireDocument struct {
	File                string                     `json:"file"`
	ProcessingTimestamp string                     `json:"processing_timestamp"`
	DetectionVersion    string                     `json:"detection_version"`
	Parameters          *Parameters                `json:"parameters,omitempty"`
	Results             map[string]json.RawMessage `json:"results"`
}

type wireRecord struct {
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
	*Detection
}

// Write persists the document next to the media file, atomically via a rename.
func Write(doc Document) error {
	wire := wireDocument{
		File:                doc.File,
		ProcessingTimestamp: doc.ProcessedAt.UTC().Format(time.RFC3339),
		DetectionVersion:    Version,
		Parameters:          doc.Parameters,
		Results:             make(map[string]json.RawMessage, len(doc.Results)),
	}
	for index, record := range doc.Results {
		payload, err := json.Marshal(wireRecord{
			Skipped:   record.Skipped,
			Reason:    record.SkipReason,
			Error:     record.Error,
			Detection: record.Detection,
		})
		if err != nil {
			return fmt.Errorf("sidecar encode track %d: %w", index, err)
		}
		wire.Results[strconv.Itoa(int(index))] = payload
	}

	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("sidecar encode: %w", err)
	}

	path := PathFor(doc.File)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("sidecar write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("sidecar write: %w", err)
	}
	return nil
}

// Load reads the sidecar for a media file, accepting both schema versions.
func Load(mediaPath string) (Document, error) {
	return LoadPath(PathFor(mediaPath))
}

// LoadPath reads a sidecar from an explicit path.
func LoadPath(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, fmt.Errorf("%w: %s", ErrMissing, path)
		}
		return Document{}, fmt.Errorf("sidecar read: %w", err)
	}

	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrParse, filepath.Base(path), err)
	}
	if wire.DetectionVersion != "" {
		return decodeV2(wire, path)
	}
	return decodeV1(data, path)
}

func decodeV2(wire wireDocument, path string) (Document, error) {
	doc := Document{
		File:       wire.File,
		Version:    wire.DetectionVersion,
		Parameters: wire.Parameters,
		Results:    make(map[StreamIndex]TrackRecord, len(wire.Results)),
	}
	if ts, err := time.Parse(time.RFC3339, wire.ProcessingTimestamp); err == nil {
		doc.ProcessedAt = ts
	}
	for key, payload := range wire.Results {
		index, err := strconv.Atoi(key)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %s: non-numeric track key %q", ErrParse, filepath.Base(path), key)
		}
		var record wireRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return Document{}, fmt.Errorf("%w: %s: track %s: %v", ErrParse, filepath.Base(path), key, err)
		}
		entry := TrackRecord{
			Skipped:    record.Skipped,
			SkipReason: record.Reason,
			Error:      record.Error,
		}
		if !record.Skipped && record.Error == "" && record.Detection != nil && record.Detection.Language != "" {
			entry.Detection = record.Detection
		}
		doc.Results[StreamIndex(index)] = entry
	}
	return doc, nil
}

// decodeV1 handles legacy sidecars: the top-level object is the results map
// itself and each entry holds only a language.
func decodeV1(data []byte, path string) (Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: %s: %v", ErrParse, filepath.Base(path), err)
	}
	doc := Document{
		Version: "1.0",
		Results: make(map[StreamIndex]TrackRecord, len(raw)),
	}
	for key, payload := range raw {
		index, err := strconv.Atoi(key)
		if err != nil {
			return Document{}, fmt.Errorf("%w: %s: non-numeric track key %q", ErrParse, filepath.Base(path), key)
		}
		var entry struct {
			Language string `json:"language"`
		}
		if err := json.Unmarshal(payload, &entry); err != nil {
			return Document{}, fmt.Errorf("%w: %s: track %s: %v", ErrParse, filepath.Base(path), key, err)
		}
		record := TrackRecord{Legacy: true}
		if entry.Language != "" {
			record.Detection = &Detection{Language: entry.Language}
		}
		doc.Results[StreamIndex(index)] = record
	}
	return doc, nil
}

// Indices returns the stream indices present in the document, ascending.
func (d Document) Indices() []StreamIndex {
	indices := make([]StreamIndex, 0, len(d.Results))
	for index := range d.Results {
		indices = append(indices, index)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return indices
}

// FromResult converts an aggregation result into its persisted form.
func FromResult(result lid.Result, speechFound int, totalSpeech float64, source string) *Detection {
	detection := &Detection{
		Language:               result.PrimaryLanguage,
		Confidence:             result.Confidence,
		Tier:                   string(result.Tier),
		Distribution:           result.Distribution,
		SpeechSegmentsFound:    speechFound,
		SegmentsAnalyzed:       result.SegmentsAnalyzed,
		TotalSpeechDuration:    totalSpeech,
		SpeechAnalyzedDuration: result.SpeechAnalyzedDuration,
		EarlyExit:              result.EarlyExit,
		SegmentSource:          source,
		Failures:               result.Failures,
	}
	if result.SubtitleValidation != nil {
		detection.SubtitleValidation = &Validation{
			MatchingSubtitleFound: result.SubtitleValidation.MatchingSubtitleFound,
			SubtitleLanguages:     result.SubtitleValidation.SubtitleLanguages,
		}
	}
	return detection
}
