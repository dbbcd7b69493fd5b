package assessment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Assessment is written once per quiz submission and never updated.
type Assessment struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID *uuid.UUID `gorm:"type:uuid;index;column:user_id" json:"user_id,omitempty"`
	Email  string     `gorm:"index;column:email" json:"email,omitempty"`

	Constitution          string `gorm:"not null;column:constitution" json:"constitution"`
	PrimaryConstitution   string `gorm:"not null;column:primary_constitution" json:"primary_constitution"`
	SecondaryConstitution string `gorm:"column:secondary_constitution" json:"secondary_constitution,omitempty"`

	VataScore      int `gorm:"not null;column:vata_score" json:"vata_score"`
	PittaScore     int `gorm:"not null;column:pitta_score" json:"pitta_score"`
	KaphaScore     int `gorm:"not null;column:kapha_score" json:"kapha_score"`
	IgnoredAnswers int `gorm:"not null;column:ignored_answers" json:"ignored_answers"`

	Answers         datatypes.JSON `gorm:"column:answers" json:"answers"`
	Recommendations datatypes.JSON `gorm:"column:recommendations" json:"recommendations"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (Assessment) TableName() string { return "assessments" }

func (a *Assessment) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
