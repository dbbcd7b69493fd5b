package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/yungbote/healing-guide-backend/internal/knowledge"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
	"github.com/yungbote/healing-guide-backend/internal/platform/elevenlabs"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

// DefaultVoiceID is the persona's cloned voice.
const DefaultVoiceID = "dj4xxt8wpTWpR9yAZcfn"

var allowedSampleExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
}

func f64(v float64) *float64 { return &v }
func boolPtr(v bool) *bool    { return &v }

// SynthesisSettings are sent with every speech request.
var SynthesisSettings = elevenlabs.VoiceSettings{
	Stability:       0.75,
	SimilarityBoost: 0.85,
	Style:           f64(0.2),
	UseSpeakerBoost: boolPtr(true),
}

// CloneSettings are applied to a freshly cloned voice.
var CloneSettings = elevenlabs.VoiceSettings{
	Stability:       0.6,
	SimilarityBoost: 0.85,
}

type VoiceStatus struct {
	APIConfigured bool   `json:"api_configured"`
	VoiceID       string `json:"voice_id"`
	VoiceName     string `json:"voice_name"`
	Status        string `json:"status"`
}

type SetupStatus struct {
	APIKeyConfigured  bool    `json:"api_key_configured"`
	VoiceIDConfigured bool    `json:"voice_id_configured"`
	Ready             bool    `json:"ready"`
	APIConnection     *bool   `json:"api_connection,omitempty"`
	SubscriptionTier  *string `json:"subscription_tier,omitempty"`
	CharacterCount    *int    `json:"character_count,omitempty"`
	CharacterLimit    *int    `json:"character_limit,omitempty"`
}

type SpeechService interface {
	Synthesize(ctx context.Context, text, voiceID string) (io.ReadCloser, error)
	// TestVoice speaks the persona's greeting with voiceID, or the default voice when empty.
	TestVoice(ctx context.Context, voiceID string) (io.ReadCloser, error)
	Status() VoiceStatus
	SetupStatus(ctx context.Context) SetupStatus
	ListVoices(ctx context.Context) ([]elevenlabs.Voice, error)
	VoiceSettings(ctx context.Context, voiceID string) (*elevenlabs.VoiceSettings, error)
	UpdateVoiceSettings(ctx context.Context, voiceID string, settings elevenlabs.VoiceSettings) error
	DeleteVoice(ctx context.Context, voiceID string) error
	UserInfo(ctx context.Context) (*elevenlabs.UserInfo, error)
	CloneVoice(ctx context.Context, filename string, audio []byte) (string, error)
}

type speechService struct {
	log     *logger.Logger
	kb      *knowledge.KB
	client  elevenlabs.Client
	voiceID string
}

// NewSpeechService proxies the speech provider. A nil client yields 503 on every call that
// needs the provider.
func NewSpeechService(log *logger.Logger, kb *knowledge.KB, client elevenlabs.Client, voiceID string) SpeechService {
	return &speechService{
		log:     log.With("service", "SpeechService"),
		kb:      kb,
		client:  client,
		voiceID: strings.TrimSpace(voiceID),
	}
}

var errSpeechNotConfigured = apierr.Unavailable("speech_not_configured", "ElevenLabs API key not configured")

func (s *speechService) ready() error {
	if s.client == nil {
		return errSpeechNotConfigured
	}
	return nil
}

// upstream maps provider HTTP errors onto the same status.
func upstream(err error, what string) error {
	var httpErr *elevenlabs.HTTPError
	if errors.As(err, &httpErr) {
		msg := fmt.Sprintf("ElevenLabs API error: %d", httpErr.StatusCode)
		if body := strings.TrimSpace(httpErr.Body); body != "" {
			msg += " - " + body
		}
		return apierr.New(httpErr.StatusCode, "upstream_error", errors.New(msg))
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (s *speechService) Synthesize(ctx context.Context, text, voiceID string) (io.ReadCloser, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierr.BadRequest("validation_error", "Text is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	if voiceID = strings.TrimSpace(voiceID); voiceID == "" {
		voiceID = s.voiceID
	}
	if voiceID == "" {
		return nil, apierr.BadRequest("validation_error", "No voice ID available. Please upload voice sample first.")
	}
	audio, err := s.client.TextToSpeech(ctx, elevenlabs.SpeechRequest{
		Text:     text,
		VoiceID:  voiceID,
		Settings: SynthesisSettings,
	})
	if err != nil {
		s.log.Warn("speech synthesis failed", "voice_id", voiceID, "error", err)
		return nil, upstream(err, "speech generation failed")
	}
	return audio, nil
}

func (s *speechService) TestVoice(ctx context.Context, voiceID string) (io.ReadCloser, error) {
	return s.Synthesize(ctx, s.kb.Persona().VoiceTestText, voiceID)
}

func (s *speechService) Status() VoiceStatus {
	st := VoiceStatus{
		APIConfigured: s.client != nil,
		VoiceID:       s.voiceID,
		VoiceName:     s.kb.Persona().Name,
		Status:        "ready",
	}
	if s.client == nil {
		st.Status = "api_key_missing"
	}
	return st
}

func (s *speechService) SetupStatus(ctx context.Context) SetupStatus {
	st := SetupStatus{
		APIKeyConfigured:  s.client != nil,
		VoiceIDConfigured: s.voiceID != "",
	}
	st.Ready = st.APIKeyConfigured && st.VoiceIDConfigured
	if s.client == nil {
		return st
	}
	info, err := s.client.User(ctx)
	if err != nil {
		s.log.Warn("speech provider connection check failed", "error", err)
		st.APIConnection = boolPtr(false)
		return st
	}
	tier := info.Subscription.Tier
	if tier == "" {
		tier = "unknown"
	}
	count, limit := info.Subscription.CharacterCount, info.Subscription.CharacterLimit
	st.APIConnection = boolPtr(true)
	st.SubscriptionTier = &tier
	st.CharacterCount = &count
	st.CharacterLimit = &limit
	return st
}

func (s *speechService) ListVoices(ctx context.Context) ([]elevenlabs.Voice, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	voices, err := s.client.ListVoices(ctx)
	if err != nil {
		return nil, upstream(err, "list voices")
	}
	return voices, nil
}

func (s *speechService) VoiceSettings(ctx context.Context, voiceID string) (*elevenlabs.VoiceSettings, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	vs, err := s.client.VoiceSettings(ctx, voiceID)
	if err != nil {
		return nil, upstream(err, "voice settings")
	}
	return &vs, nil
}

func (s *speechService) UpdateVoiceSettings(ctx context.Context, voiceID string, settings elevenlabs.VoiceSettings) error {
	if err := s.ready(); err != nil {
		return err
	}
	if settings.Stability < 0 || settings.Stability > 1 || settings.SimilarityBoost < 0 || settings.SimilarityBoost > 1 {
		return apierr.BadRequest("validation_error", "stability and similarity_boost must be between 0 and 1")
	}
	if err := s.client.UpdateVoiceSettings(ctx, voiceID, settings); err != nil {
		return upstream(err, "update voice settings")
	}
	return nil
}

func (s *speechService) DeleteVoice(ctx context.Context, voiceID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.client.DeleteVoice(ctx, voiceID); err != nil {
		return upstream(err, "delete voice")
	}
	return nil
}

func (s *speechService) UserInfo(ctx context.Context) (*elevenlabs.UserInfo, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	info, err := s.client.User(ctx)
	if err != nil {
		return nil, upstream(err, "user info")
	}
	return &info, nil
}

func (s *speechService) CloneVoice(ctx context.Context, filename string, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", apierr.BadRequest("validation_error", "No audio file provided")
	}
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return "", apierr.BadRequest("validation_error", "No file selected")
	}
	if !allowedSampleExtensions[strings.ToLower(filepath.Ext(filename))] {
		return "", apierr.BadRequest("validation_error", "Invalid file format. Please use WAV, MP3, M4A, or FLAC")
	}
	if err := s.ready(); err != nil {
		return "", err
	}

	persona := s.kb.Persona()
	voiceID, err := s.client.AddVoice(ctx, elevenlabs.AddVoiceRequest{
		Name:        persona.Name,
		Description: persona.VoiceDescription,
		Filename:    filename,
		Audio:       audio,
	})
	if err != nil {
		s.log.Error("voice clone failed", "filename", filename, "error", err)
		return "", upstream(err, "create voice clone")
	}
	if err := s.client.UpdateVoiceSettings(ctx, voiceID, CloneSettings); err != nil {
		// the clone exists; settings can be applied again later
		s.log.Warn("applying clone voice settings failed", "voice_id", voiceID, "error", err)
	}
	s.log.Info("voice clone created", "voice_id", voiceID)
	return voiceID, nil
}
