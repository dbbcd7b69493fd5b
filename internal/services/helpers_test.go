package services

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/healing-guide-backend/internal/data/repos"
	"github.com/yungbote/healing-guide-backend/internal/data/repos/testutil"
	"github.com/yungbote/healing-guide-backend/internal/knowledge"
	"github.com/yungbote/healing-guide-backend/internal/platform/elevenlabs"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
	"github.com/yungbote/healing-guide-backend/internal/platform/sendgrid"
)

type fixture struct {
	db          *gorm.DB
	log         *logger.Logger
	kb          *knowledge.KB
	users       repos.UserRepo
	assessments repos.AssessmentRepo
	newsletter  repos.NewsletterRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	return &fixture{
		db:          gdb,
		log:         log,
		kb:          knowledge.MustDefault(),
		users:       repos.NewUserRepo(gdb, log),
		assessments: repos.NewAssessmentRepo(gdb, log),
		newsletter:  repos.NewNewsletterRepo(gdb, log),
	}
}

func (f *fixture) newsletterService(mailer sendgrid.Client) NewsletterService {
	return NewNewsletterService(f.db, f.log, f.newsletter, mailer, NewsletterConfig{DownloadURL: "https://example.com/api/lead-magnet/download"})
}

func (f *fixture) assessmentService(strict bool) AssessmentService {
	return NewAssessmentService(f.db, f.log, f.kb, f.assessments, f.users, strict)
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sendgrid.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg sendgrid.Message) (*sendgrid.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	if m.err != nil {
		return nil, m.err
	}
	return &sendgrid.SendResult{StatusCode: 202}, nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fakeLLM struct {
	mu     sync.Mutex
	text   string
	err    error
	calls  int
	system string
	user   string
}

func (l *fakeLLM) GenerateText(_ context.Context, system, user string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	l.system, l.user = system, user
	if l.err != nil {
		return "", l.err
	}
	return l.text, nil
}

type fakeSpeech struct {
	mu          sync.Mutex
	ttsErr      error
	lastTTS     elevenlabs.SpeechRequest
	added       elevenlabs.AddVoiceRequest
	settingsFor map[string]elevenlabs.VoiceSettings
	user        elevenlabs.UserInfo
	userErr     error
}

func (f *fakeSpeech) TextToSpeech(_ context.Context, req elevenlabs.SpeechRequest) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastTTS = req
	if f.ttsErr != nil {
		return nil, f.ttsErr
	}
	return io.NopCloser(bytes.NewReader([]byte("ID3-audio"))), nil
}

func (f *fakeSpeech) ListVoices(context.Context) ([]elevenlabs.Voice, error) {
	return []elevenlabs.Voice{{VoiceID: DefaultVoiceID, Name: "Dr. Helen Thomas DC"}}, nil
}

func (f *fakeSpeech) VoiceSettings(_ context.Context, voiceID string) (elevenlabs.VoiceSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settingsFor[voiceID], nil
}

func (f *fakeSpeech) UpdateVoiceSettings(_ context.Context, voiceID string, settings elevenlabs.VoiceSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settingsFor == nil {
		f.settingsFor = map[string]elevenlabs.VoiceSettings{}
	}
	f.settingsFor[voiceID] = settings
	return nil
}

func (f *fakeSpeech) AddVoice(_ context.Context, req elevenlabs.AddVoiceRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = req
	return "cloned-voice", nil
}

func (f *fakeSpeech) DeleteVoice(context.Context, string) error { return nil }

func (f *fakeSpeech) User(context.Context) (elevenlabs.UserInfo, error) {
	return f.user, f.userErr
}
