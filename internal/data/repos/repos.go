package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/healing-guide-backend/internal/data/repos/assessment"
	"github.com/yungbote/healing-guide-backend/internal/data/repos/newsletter"
	"github.com/yungbote/healing-guide-backend/internal/data/repos/user"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type AssessmentRepo = assessment.AssessmentRepo
type NewsletterRepo = newsletter.SubscriptionRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return assessment.NewAssessmentRepo(db, baseLog)
}

func NewNewsletterRepo(db *gorm.DB, baseLog *logger.Logger) NewsletterRepo {
	return newsletter.NewSubscriptionRepo(db, baseLog)
}
