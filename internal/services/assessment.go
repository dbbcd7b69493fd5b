package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/healing-guide-backend/internal/data/repos"
	types "github.com/yungbote/healing-guide-backend/internal/domain"
	"github.com/yungbote/healing-guide-backend/internal/knowledge"
	"github.com/yungbote/healing-guide-backend/internal/modules/constitution"
	"github.com/yungbote/healing-guide-backend/internal/observability"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
	"github.com/yungbote/healing-guide-backend/internal/platform/dbctx"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

type SubmitInput struct {
	Answers []constitution.Answer
	UserID  *uuid.UUID
	Email   string
}

type SubmitResult struct {
	Assessment      *types.Assessment
	Result          constitution.Result
	Recommendations constitution.Recommendations
}

type AssessmentService interface {
	Questions() []knowledge.Question
	Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Assessment, error)
	// LatestFor prefers the user's newest assessment and falls back to the email's.
	LatestFor(ctx context.Context, userID *uuid.UUID, email string) (*types.Assessment, error)
}

type assessmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	kb             *knowledge.KB
	assessmentRepo repos.AssessmentRepo
	userRepo       repos.UserRepo
	strict         bool
	now            func() time.Time
}

// NewAssessmentService builds the quiz service. With strict set, answers referencing an
// unknown question or option are rejected instead of skipped.
func NewAssessmentService(db *gorm.DB, log *logger.Logger, kb *knowledge.KB, assessmentRepo repos.AssessmentRepo, userRepo repos.UserRepo, strict bool) AssessmentService {
	return &assessmentService{
		db:             db,
		log:            log.With("service", "AssessmentService"),
		kb:             kb,
		assessmentRepo: assessmentRepo,
		userRepo:       userRepo,
		strict:         strict,
		now:            time.Now,
	}
}

func (s *assessmentService) Questions() []knowledge.Question {
	return s.kb.Questions()
}

func (s *assessmentService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	if len(in.Answers) == 0 {
		return nil, apierr.BadRequest("validation_error", "No answers provided")
	}
	questions := s.kb.Questions()
	if s.strict {
		if err := constitution.Validate(questions, in.Answers); err != nil {
			return nil, apierr.New(http.StatusBadRequest, "invalid_answers", err)
		}
	}

	result := constitution.Score(questions, in.Answers)
	recs := constitution.Recommend(s.kb, result)

	answersJSON, err := json.Marshal(in.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	recsJSON, err := json.Marshal(recs)
	if err != nil {
		return nil, fmt.Errorf("encode recommendations: %w", err)
	}

	row := &types.Assessment{
		UserID:                in.UserID,
		Email:                 normalizeEmail(in.Email),
		Constitution:          result.Label,
		PrimaryConstitution:   string(result.Primary),
		SecondaryConstitution: string(result.Secondary),
		VataScore:             result.Scores.Vata,
		PittaScore:            result.Scores.Pitta,
		KaphaScore:            result.Scores.Kapha,
		IgnoredAnswers:        result.Ignored,
		Answers:               datatypes.JSON(answersJSON),
		Recommendations:       datatypes.JSON(recsJSON),
		CreatedAt:             s.now().UTC(),
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if in.UserID != nil {
			u, err := s.userRepo.GetByID(inner, *in.UserID)
			if err != nil {
				return fmt.Errorf("load user: %w", err)
			}
			if u == nil {
				return apierr.NotFound("user_not_found", "User not found")
			}
			if row.Email == "" {
				row.Email = u.Email
			}
		}
		if _, err := s.assessmentRepo.Create(inner, row); err != nil {
			return fmt.Errorf("create assessment: %w", err)
		}
		return nil
	}); err != nil {
		var ae *apierr.Error
		if !errors.As(err, &ae) {
			s.log.Error("Submit transaction failed", "error", err)
		}
		return nil, err
	}

	if result.Ignored > 0 {
		s.log.Debug("assessment skipped invalid answers", "ignored", result.Ignored, "assessment_id", row.ID)
	}
	observability.Current().IncAssessment(result.Label)
	return &SubmitResult{Assessment: row, Result: result, Recommendations: recs}, nil
}

func (s *assessmentService) Get(ctx context.Context, id uuid.UUID) (*types.Assessment, error) {
	a, err := s.assessmentRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if a == nil {
		return nil, apierr.NotFound("not_found", "Assessment not found")
	}
	return a, nil
}

func (s *assessmentService) LatestFor(ctx context.Context, userID *uuid.UUID, email string) (*types.Assessment, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if userID != nil && *userID != uuid.Nil {
		a, err := s.assessmentRepo.LatestByUserID(dbc, *userID)
		if err != nil {
			return nil, fmt.Errorf("latest assessment by user: %w", err)
		}
		if a != nil {
			return a, nil
		}
	}
	if email = normalizeEmail(email); email == "" {
		return nil, nil
	}
	a, err := s.assessmentRepo.LatestByEmail(dbc, email)
	if err != nil {
		return nil, fmt.Errorf("latest assessment by email: %w", err)
	}
	return a, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
