package config

const (
	defaultStagingDir  = "~/.local/share/lingua/staging"
	defaultLogDir      = "~/.local/share/lingua/logs"
	defaultCatalogPath = "~/.local/share/lingua/catalog.db"

	defaultTargetSpeechDuration      = 90.0
	defaultMinSegmentLength          = 3.0
	defaultMaxSegmentLength          = 15.0
	defaultVADThreshold              = 0.5
	defaultConfidenceHighThreshold   = 0.80
	defaultConfidenceMediumThreshold = 0.55
	defaultEarlyExitThreshold        = 0.85
	defaultMinDurationBeforeExit     = 30.0
	defaultMaxProcessingTime         = 300
	defaultTrackWorkers              = 2

	defaultClassifierBackend     = "whisperx"
	defaultWhisperXModel         = "large-v3-turbo"
	defaultWhisperXComputeType   = "int8"
	defaultPythonBinary          = "python3"
	defaultAPIBaseURL            = "https://api.openai.com/v1"
	defaultAPIModel              = "whisper-1"
	defaultClassifierTimeout     = 120
	defaultMinConfidence         = 0.55
	defaultAmbiguousLowThreshold = 0.55
	defaultAmbiguousHighBound    = 0.70

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:  defaultStagingDir,
			LogDir:      defaultLogDir,
			CatalogPath: defaultCatalogPath,
		},
		Detection: Detection{
			TargetSpeechDuration:      defaultTargetSpeechDuration,
			MinSegmentLength:          defaultMinSegmentLength,
			MaxSegmentLength:          defaultMaxSegmentLength,
			VADThreshold:              defaultVADThreshold,
			ConfidenceHighThreshold:   defaultConfidenceHighThreshold,
			ConfidenceMediumThreshold: defaultConfidenceMediumThreshold,
			EarlyExitThreshold:        defaultEarlyExitThreshold,
			MinDurationBeforeExit:     defaultMinDurationBeforeExit,
			PreferCenterChannel:       true,
			UseSubtitlePriors:         true,
			CleanupIntermediate:       true,
			MaxProcessingTime:         defaultMaxProcessingTime,
			TrackWorkers:              defaultTrackWorkers,
		},
		Classifier: Classifier{
			Backend:             defaultClassifierBackend,
			WhisperXModel:       defaultWhisperXModel,
			WhisperXComputeType: defaultWhisperXComputeType,
			PythonBinary:        defaultPythonBinary,
			APIBaseURL:          defaultAPIBaseURL,
			APIModel:            defaultAPIModel,
			TimeoutSeconds:      defaultClassifierTimeout,
		},
		Correction: Correction{
			MinConfidenceThreshold: defaultMinConfidence,
			AmbiguousLowThreshold:  defaultAmbiguousLowThreshold,
			AmbiguousHighThreshold: defaultAmbiguousHighBound,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
