package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/healing-guide-backend/internal/http/response"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
	"github.com/yungbote/healing-guide-backend/internal/platform/elevenlabs"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
	"github.com/yungbote/healing-guide-backend/internal/services"
)

const maxVoiceSampleBytes = 25 << 20

type VoiceHandler struct {
	log    *logger.Logger
	speech services.SpeechService
}

func NewVoiceHandler(log *logger.Logger, speech services.SpeechService) *VoiceHandler {
	return &VoiceHandler{log: log.With("handler", "VoiceHandler"), speech: speech}
}

// streamAudio copies synthesized audio to the client. Headers are already sent once the
// copy starts, so a mid-stream failure is only logged.
func (h *VoiceHandler) streamAudio(c *gin.Context, audio io.ReadCloser, filename string) {
	defer audio.Close()
	c.Header("Content-Type", "audio/mpeg")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", filename))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, audio); err != nil {
		h.log.Warn("audio stream interrupted", "error", err)
	}
}

// POST /api/voice-cloning/generate-speech
// body: { "text": "...", "voice_id": "..." }
func (h *VoiceHandler) GenerateSpeech(c *gin.Context) {
	var req struct {
		Text    string `json:"text"`
		VoiceID string `json:"voice_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Text is required")
		return
	}
	audio, err := h.speech.Synthesize(c.Request.Context(), req.Text, req.VoiceID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.streamAudio(c, audio, "dr_helen_speech.mp3")
}

// POST /api/voice-cloning/test-voice and /api/voice-cloning/test-voice/:voice_id
func (h *VoiceHandler) TestVoice(c *gin.Context) {
	audio, err := h.speech.TestVoice(c.Request.Context(), c.Param("voice_id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.streamAudio(c, audio, "voice_test.mp3")
}

// GET /api/voice-cloning/voice-status
func (h *VoiceHandler) VoiceStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.speech.Status())
}

// GET /api/voice-cloning/setup-status
func (h *VoiceHandler) SetupStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.speech.SetupStatus(c.Request.Context()))
}

// GET /api/voice-cloning/voices
func (h *VoiceHandler) Voices(c *gin.Context) {
	voices, err := h.speech.ListVoices(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"voices": voices})
}

// GET /api/voice-cloning/voice-settings/:voice_id
func (h *VoiceHandler) GetVoiceSettings(c *gin.Context) {
	vs, err := h.speech.VoiceSettings(c.Request.Context(), c.Param("voice_id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"settings": vs})
}

// POST /api/voice-cloning/voice-settings/:voice_id
// body: { "stability": 0.5, "similarity_boost": 0.8, "style": 0.2, "use_speaker_boost": true }
func (h *VoiceHandler) UpdateVoiceSettings(c *gin.Context) {
	req := struct {
		Stability       *float64 `json:"stability"`
		SimilarityBoost *float64 `json:"similarity_boost"`
		Style           *float64 `json:"style"`
		UseSpeakerBoost *bool    `json:"use_speaker_boost"`
	}{}
	if err := optionalJSON(c, &req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	settings := elevenlabs.VoiceSettings{Stability: 0.5, SimilarityBoost: 0.8, Style: req.Style, UseSpeakerBoost: req.UseSpeakerBoost}
	if req.Stability != nil {
		settings.Stability = *req.Stability
	}
	if req.SimilarityBoost != nil {
		settings.SimilarityBoost = *req.SimilarityBoost
	}
	if err := h.speech.UpdateVoiceSettings(c.Request.Context(), c.Param("voice_id"), settings); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Voice settings updated successfully"})
}

// DELETE /api/voice-cloning/voices/:voice_id
func (h *VoiceHandler) DeleteVoice(c *gin.Context) {
	if err := h.speech.DeleteVoice(c.Request.Context(), c.Param("voice_id")); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Voice deleted"})
}

// GET /api/voice-cloning/user-info
func (h *VoiceHandler) UserInfo(c *gin.Context) {
	info, err := h.speech.UserInfo(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"user": info})
}

// POST /api/voice-cloning/upload-voice-sample (multipart/form-data)
// field: "audio"
func (h *VoiceHandler) UploadVoiceSample(c *gin.Context) {
	fh, err := c.FormFile("audio")
	if err != nil {
		response.Fail(c, apierr.BadRequest("validation_error", "No audio file provided"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxVoiceSampleBytes+1))
	if err != nil {
		response.Fail(c, fmt.Errorf("read upload: %w", err))
		return
	}
	if len(raw) > maxVoiceSampleBytes {
		response.Fail(c, apierr.BadRequest("file_too_large", "Voice sample exceeds 25MB"))
		return
	}

	voiceID, err := h.speech.CloneVoice(c.Request.Context(), fh.Filename, raw)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"voice_id": voiceID,
		"message":  "Voice clone created successfully! Dr. Helen's voice is now ready.",
	})
}
