package domain

import (
	"github.com/yungbote/healing-guide-backend/internal/domain/assessment"
	"github.com/yungbote/healing-guide-backend/internal/domain/newsletter"
	"github.com/yungbote/healing-guide-backend/internal/domain/user"
)

const SourceLeadMagnet = newsletter.SourceLeadMagnet

type User = user.User
type Assessment = assessment.Assessment
type NewsletterSubscription = newsletter.Subscription

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&Assessment{},
		&NewsletterSubscription{},
	}
}
