package newsletter

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lead-magnet signups are tagged with this source.
const SourceLeadMagnet = "lead_magnet_13_body_types"

// Subscription is keyed by lowercased email and toggled, never deleted.
type Subscription struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Name           string     `gorm:"column:name" json:"name,omitempty"`
	Source         string     `gorm:"not null;index;column:source" json:"source"`
	IsActive       bool       `gorm:"not null;index;column:is_active" json:"is_active"`
	SubscribedAt   time.Time  `gorm:"not null;column:subscribed_at" json:"subscribed_at"`
	UnsubscribedAt *time.Time `gorm:"column:unsubscribed_at" json:"unsubscribed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Subscription) TableName() string { return "newsletter_subscriptions" }

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
