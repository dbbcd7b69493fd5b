package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/healing-guide-backend/internal/observability"
	"github.com/yungbote/healing-guide-backend/internal/platform/ctxutil"
	"github.com/yungbote/healing-guide-backend/internal/platform/envutil"
	"github.com/yungbote/healing-guide-backend/internal/platform/httpx"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

var ErrNotConfigured = errors.New("elevenlabs: ELEVENLABS_API_KEY not set")

type Client interface {
	// TextToSpeech returns the upstream audio/mpeg body; the caller closes it.
	TextToSpeech(ctx context.Context, req SpeechRequest) (io.ReadCloser, error)
	ListVoices(ctx context.Context) ([]Voice, error)
	VoiceSettings(ctx context.Context, voiceID string) (VoiceSettings, error)
	UpdateVoiceSettings(ctx context.Context, voiceID string, settings VoiceSettings) error
	AddVoice(ctx context.Context, req AddVoiceRequest) (string, error)
	DeleteVoice(ctx context.Context, voiceID string) error
	User(ctx context.Context) (UserInfo, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	ModelID    string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:     envutil.String("ELEVENLABS_API_KEY", ""),
		BaseURL:    envutil.String("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		ModelID:    envutil.String("ELEVENLABS_MODEL_ID", "eleven_multilingual_v2"),
		Timeout:    envutil.Seconds("ELEVENLABS_TIMEOUT_SECONDS", 60*time.Second),
		MaxRetries: envutil.Int("ELEVENLABS_MAX_RETRIES", 2),
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	if cfg.ModelID == "" {
		cfg.ModelID = "eleven_multilingual_v2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:        log.With("client", "ElevenLabsClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type VoiceSettings struct {
	Stability       float64  `json:"stability"`
	SimilarityBoost float64  `json:"similarity_boost"`
	Style           *float64 `json:"style,omitempty"`
	UseSpeakerBoost *bool    `json:"use_speaker_boost,omitempty"`
}

type SpeechRequest struct {
	Text     string
	VoiceID  string
	ModelID  string
	Settings VoiceSettings
}

type Voice struct {
	VoiceID     string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	PreviewURL  string            `json:"preview_url,omitempty"`
}

type AddVoiceRequest struct {
	Name        string
	Description string
	Labels      map[string]string
	Filename    string
	Audio       []byte
}

type Subscription struct {
	Tier           string `json:"tier"`
	CharacterCount int    `json:"character_count"`
	CharacterLimit int    `json:"character_limit"`
	Status         string `json:"status,omitempty"`
}

type UserInfo struct {
	Subscription Subscription `json:"subscription"`
	FirstName    string       `json:"first_name,omitempty"`
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("elevenlabs http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

func (c *client) TextToSpeech(ctx context.Context, req SpeechRequest) (io.ReadCloser, error) {
	if strings.TrimSpace(req.VoiceID) == "" {
		return nil, fmt.Errorf("elevenlabs: voice id required")
	}
	if req.ModelID == "" {
		req.ModelID = c.cfg.ModelID
	}
	body, err := json.Marshal(ttsRequest{Text: req.Text, ModelID: req.ModelID, VoiceSettings: req.Settings})
	if err != nil {
		return nil, err
	}
	path := "/v1/text-to-speech/" + url.PathEscape(req.VoiceID)

	start := time.Now()
	var audio io.ReadCloser
	err = httpx.Do(ctx, c.cfg.MaxRetries, c.logRetry(path), func() (*http.Response, error) {
		resp, err := c.send(ctx, http.MethodPost, path, "application/json", "audio/mpeg", bytes.NewReader(body))
		if err != nil {
			return resp, err
		}
		audio = resp.Body
		return resp, nil
	})
	observability.Current().ObserveSpeechRequest("tts", statusOf(err), time.Since(start), len(req.Text))
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func (c *client) ListVoices(ctx context.Context) ([]Voice, error) {
	var out struct {
		Voices []Voice `json:"voices"`
	}
	if err := c.doJSON(ctx, "voices", http.MethodGet, "/v1/voices", nil, &out); err != nil {
		return nil, err
	}
	if out.Voices == nil {
		out.Voices = []Voice{}
	}
	return out.Voices, nil
}

func (c *client) VoiceSettings(ctx context.Context, voiceID string) (VoiceSettings, error) {
	var out VoiceSettings
	err := c.doJSON(ctx, "voice_settings", http.MethodGet, "/v1/voices/"+url.PathEscape(voiceID)+"/settings", nil, &out)
	return out, err
}

func (c *client) UpdateVoiceSettings(ctx context.Context, voiceID string, settings VoiceSettings) error {
	return c.doJSON(ctx, "voice_settings_edit", http.MethodPost, "/v1/voices/"+url.PathEscape(voiceID)+"/settings/edit", settings, nil)
}

func (c *client) DeleteVoice(ctx context.Context, voiceID string) error {
	return c.doJSON(ctx, "voice_delete", http.MethodDelete, "/v1/voices/"+url.PathEscape(voiceID), nil, nil)
}

func (c *client) User(ctx context.Context) (UserInfo, error) {
	var out UserInfo
	err := c.doJSON(ctx, "user", http.MethodGet, "/v1/user", nil, &out)
	return out, err
}

// AddVoice uploads one sample as multipart form data and returns the new voice id.
func (c *client) AddVoice(ctx context.Context, req AddVoiceRequest) (string, error) {
	if len(req.Audio) == 0 {
		return "", fmt.Errorf("elevenlabs: audio sample required")
	}
	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	_ = mw.WriteField("name", req.Name)
	_ = mw.WriteField("description", req.Description)
	if len(req.Labels) > 0 {
		labels, err := json.Marshal(req.Labels)
		if err != nil {
			return "", err
		}
		_ = mw.WriteField("labels", string(labels))
	}
	filename := req.Filename
	if filename == "" {
		filename = "sample_0.wav"
	}
	fw, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(req.Audio); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	const path = "/v1/voices/add"
	var out struct {
		VoiceID string `json:"voice_id"`
	}
	start := time.Now()
	err = httpx.Do(ctx, c.cfg.MaxRetries, c.logRetry(path), func() (*http.Response, error) {
		resp, err := c.send(ctx, http.MethodPost, path, mw.FormDataContentType(), "application/json", bytes.NewReader(form.Bytes()))
		if err != nil {
			return resp, err
		}
		return resp, decodeAndClose(resp, &out)
	})
	observability.Current().ObserveSpeechRequest("voice_add", statusOf(err), time.Since(start), 0)
	if err != nil {
		return "", err
	}
	if out.VoiceID == "" {
		return "", fmt.Errorf("elevenlabs: voice id missing from response")
	}
	return out.VoiceID, nil
}

func (c *client) doJSON(ctx context.Context, op, method, path string, in any, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		payload = b
	}
	start := time.Now()
	err := httpx.Do(ctx, c.cfg.MaxRetries, c.logRetry(path), func() (*http.Response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		resp, err := c.send(ctx, method, path, "application/json", "application/json", body)
		if err != nil {
			return resp, err
		}
		return resp, decodeAndClose(resp, out)
	})
	observability.Current().ObserveSpeechRequest(op, statusOf(err), time.Since(start), 0)
	return err
}

// send returns the response with an open body on 2xx; any other status is drained into an HTTPError.
func (c *client) send(ctx context.Context, method, path, contentType, accept string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	ctxutil.PropagateRequestID(ctx, req.Header)
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		return resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, nil
}

func decodeAndClose(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("elevenlabs decode error: %w", err)
	}
	return nil
}

func (c *client) logRetry(path string) httpx.RetryHook {
	return func(attempt int, sleep time.Duration, err error) {
		c.log.Warn("ElevenLabs request retrying",
			"path", path,
			"attempt", attempt,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleep.String(),
			"error", err.Error(),
		)
	}
}

func statusOf(err error) string {
	if err == nil {
		return "200"
	}
	if code := httpx.StatusCodeOf(err); code > 0 {
		return strconv.Itoa(code)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}
