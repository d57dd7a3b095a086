package whisperapi

import (
	"context"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"lingua/internal/lid"
)

// Config captures connection settings for the transcription endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds one transcription call. Zero means 120s.
	Timeout time.Duration
}

const (
	DefaultModel = "whisper-1"

	defaultTimeout = 120 * time.Second
)

// audioTranscriber is the slice of the OpenAI client the service needs.
// *openai.Client implements it, and tests inject mocks.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

var _ audioTranscriber = (*openai.Client)(nil)

// Service implements the language classifier against a transcription API.
type Service struct {
	client  audioTranscriber
	model   string
	timeout time.Duration
}

// NewService creates a classifier backed by an OpenAI-compatible endpoint.
func NewService(cfg Config) *Service {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientConfig.BaseURL = base
	}
	return newService(openai.NewClientWithConfig(clientConfig), cfg)
}

func newService(client audioTranscriber, cfg Config) *Service {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{client: client, model: model, timeout: timeout}
}

// Name implements lid.Classifier.
func (s *Service) Name() string {
	return "whisper-api"
}

// Classify implements lid.Classifier.
func (s *Service) Classify(ctx context.Context, wavPath string) lid.Inference {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.model,
		FilePath: wavPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return lid.Inference{Err: lid.ErrorClassificationFailed, Detail: err.Error()}
	}

	return inferenceFromResponse(resp)
}

func inferenceFromResponse(resp openai.AudioResponse) lid.Inference {
	language := strings.ToLower(strings.TrimSpace(resp.Language))
	if language == "" || (len(resp.Segments) == 0 && strings.TrimSpace(resp.Text) == "") {
		return lid.Inference{Err: lid.ErrorNoSpeechDetected, Detail: "no transcribable speech in clip"}
	}

	inference := lid.Inference{Language: language}
	if len(resp.Segments) > 0 {
		var logprob, noSpeech float64
		for _, segment := range resp.Segments {
			logprob += segment.AvgLogprob
			noSpeech += segment.NoSpeechProb
		}
		count := float64(len(resp.Segments))
		inference.Quality.AvgLogProb = logprob / count
		inference.Quality.AvgNoSpeechProb = noSpeech / count
	}
	return inference
}
