package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
)

// AssemblyAIClient transcribes audio through the AssemblyAI API using the
// official SDK. Transcribe submits the job and polls until it resolves, so
// callers get a plain blocking call bounded by their context.
type AssemblyAIClient struct {
	client       *aai.Client
	logger       *zap.Logger
	languageCode string
	pollInterval time.Duration
}

// NewAssemblyAIClient creates a transcription client. languageCode may be
// empty to let the provider detect it.
func NewAssemblyAIClient(apiKey, languageCode string, logger *zap.Logger) *AssemblyAIClient {
	return &AssemblyAIClient{
		client:       aai.NewClient(apiKey),
		logger:       logger,
		languageCode: languageCode,
		pollInterval: 5 * time.Second,
	}
}

// Transcribe submits the audio URL and waits for the finished transcript
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audioURL string) (*Transcription, error) {
	params := &aai.TranscriptOptionalParams{
		SpeakerLabels: aai.Bool(true),
	}
	if c.languageCode != "" {
		params.LanguageCode = aai.TranscriptLanguageCode(c.languageCode)
	}

	var transcriptID string
	submitFn := func() error {
		transcript, err := c.client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
		if err != nil {
			return err
		}
		if transcript.ID != nil {
			transcriptID = *transcript.ID
		}
		return nil
	}

	// Submission is cheap to retry; the expensive part is the job itself.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(submitFn, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("failed to submit transcription: %w", err)
	}
	if transcriptID == "" {
		return nil, fmt.Errorf("assemblyai returned no transcript id")
	}

	if c.logger != nil {
		c.logger.Info("🎙️ Transcription job submitted",
			zap.String("transcript_id", transcriptID),
		)
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		transcript, err := c.client.Transcripts.Get(ctx, transcriptID)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("⚠️ Failed to poll transcript, will retry",
					zap.String("transcript_id", transcriptID),
					zap.Error(err),
				)
			}
			continue
		}

		switch transcript.Status {
		case aai.TranscriptStatusCompleted:
			return c.convert(&transcript), nil
		case aai.TranscriptStatusError:
			errorMsg := "assemblyai transcription failed"
			if transcript.Error != nil {
				errorMsg = *transcript.Error
			}
			if isAudioUnreadable(errorMsg) {
				return nil, fmt.Errorf("%w: %s", ErrAudioNotFound, errorMsg)
			}
			return nil, fmt.Errorf("assemblyai error: %s", errorMsg)
		case aai.TranscriptStatusQueued, aai.TranscriptStatusProcessing:
			// keep waiting
		default:
			if c.logger != nil {
				c.logger.Warn("⚠️ Unknown transcript status",
					zap.String("transcript_id", transcriptID),
					zap.String("status", string(transcript.Status)),
				)
			}
		}
	}
}

func (c *AssemblyAIClient) convert(transcript *aai.Transcript) *Transcription {
	result := &Transcription{
		Language: "en",
		Model:    "assemblyai",
	}
	if transcript.Text != nil {
		result.Text = *transcript.Text
	}
	if transcript.LanguageCode != "" {
		result.Language = string(transcript.LanguageCode)
	}
	if transcript.AudioDuration != nil {
		result.DurationSeconds = *transcript.AudioDuration
	}

	for _, utt := range transcript.Utterances {
		segment := entities.Segment{}
		if utt.Text != nil {
			segment.Text = *utt.Text
		}
		if utt.Speaker != nil {
			segment.Speaker = *utt.Speaker
		}
		if utt.Start != nil {
			segment.Start = float64(*utt.Start) / 1000.0 // ms to seconds
		}
		if utt.End != nil {
			segment.End = float64(*utt.End) / 1000.0
		}
		result.Segments = append(result.Segments, segment)
	}

	// The provider omits duration for some formats; the last segment end is
	// a good enough stand-in.
	if result.DurationSeconds == 0 && len(result.Segments) > 0 {
		result.DurationSeconds = result.Segments[len(result.Segments)-1].End
	}
	return result
}

func isAudioUnreadable(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "download") ||
		strings.Contains(lower, "not found") ||
		strings.Contains(lower, "unsupported") ||
		strings.Contains(lower, "unable to read")
}
