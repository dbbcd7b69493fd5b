package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/healing-guide-backend/internal/data/repos"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

type Repos struct {
	User       repos.UserRepo
	Assessment repos.AssessmentRepo
	Newsletter repos.NewsletterRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:       repos.NewUserRepo(db, log),
		Assessment: repos.NewAssessmentRepo(db, log),
		Newsletter: repos.NewNewsletterRepo(db, log),
	}
}
