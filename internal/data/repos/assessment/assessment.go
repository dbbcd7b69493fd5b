package assessment

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/healing-guide-backend/internal/domain"
	"github.com/yungbote/healing-guide-backend/internal/platform/dbctx"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

// AssessmentRepo has no update path; assessments are immutable once written.
type AssessmentRepo interface {
	Create(dbc dbctx.Context, a *types.Assessment) (*types.Assessment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error)
	LatestByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Assessment, error)
	LatestByEmail(dbc dbctx.Context, email string) (*types.Assessment, error)
	CountByConstitution(dbc dbctx.Context) (map[string]int64, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return &assessmentRepo{db: db, log: baseLog.With("repo", "AssessmentRepo")}
}

func (r *assessmentRepo) Create(dbc dbctx.Context, a *types.Assessment) (*types.Assessment, error) {
	if err := dbc.DB(r.db).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *assessmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error) {
	var a types.Assessment
	return first(dbc.DB(r.db).Where("id = ?", id), &a)
}

func (r *assessmentRepo) LatestByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Assessment, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var a types.Assessment
	return first(dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC"), &a)
}

func (r *assessmentRepo) LatestByEmail(dbc dbctx.Context, email string) (*types.Assessment, error) {
	if email == "" {
		return nil, nil
	}
	var a types.Assessment
	return first(dbc.DB(r.db).
		Where("email = ?", email).
		Order("created_at DESC"), &a)
}

func (r *assessmentRepo) CountByConstitution(dbc dbctx.Context) (map[string]int64, error) {
	var rows []struct {
		Constitution string
		N            int64
	}
	if err := dbc.DB(r.db).
		Model(&types.Assessment{}).
		Select("constitution, COUNT(*) AS n").
		Group("constitution").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Constitution] = row.N
	}
	return out, nil
}

func first(q *gorm.DB, a *types.Assessment) (*types.Assessment, error) {
	err := q.First(a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
