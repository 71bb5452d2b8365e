package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/codcrm-backend/pkg/enums"
)

// Lead is a prospective customer captured from an ad platform or by hand.
type Lead struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name            string           `gorm:"column:name;not null"`
	Phone           string           `gorm:"column:phone;not null;index"`
	City            *string          `gorm:"column:city"`
	Address         *string          `gorm:"column:address"`
	Source          enums.LeadSource `gorm:"column:source;type:text;not null"`
	Status          enums.LeadStatus `gorm:"column:status;type:text;not null;index"`
	AssignedTo      *uuid.UUID       `gorm:"column:assigned_to;type:uuid;index"`
	Assignee        *User            `gorm:"foreignKey:AssignedTo;constraint:OnDelete:SET NULL"`
	ProductID       *uuid.UUID       `gorm:"column:product_id;type:uuid"`
	CreatedBy       *uuid.UUID       `gorm:"column:created_by;type:uuid"`
	CallAttempts    int              `gorm:"column:call_attempts;not null"`
	LastContactedAt *time.Time       `gorm:"column:last_contacted_at"`
	Notes           []LeadNote       `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
	Calls           []CallNote       `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *Lead) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// LeadNote is an immutable note on a lead. Status changes and reopenings
// carry the from/to pair.
type LeadNote struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	LeadID     uuid.UUID          `gorm:"column:lead_id;type:uuid;not null;index"`
	AuthorID   *uuid.UUID         `gorm:"column:author_id;type:uuid"`
	Kind       enums.LeadNoteKind `gorm:"column:kind;type:text;not null"`
	Content    string             `gorm:"column:content;not null"`
	FromStatus *enums.LeadStatus  `gorm:"column:from_status;type:text"`
	ToStatus   *enums.LeadStatus  `gorm:"column:to_status;type:text"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (n *LeadNote) BeforeCreate(*gorm.DB) error {
	assignID(&n.ID)
	return nil
}

// CallNote records one call attempt. AgentID is a plain id with no foreign key.
type CallNote struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	LeadID          uuid.UUID         `gorm:"column:lead_id;type:uuid;not null;index"`
	AgentID         uuid.UUID         `gorm:"column:agent_id;type:uuid;not null;index"`
	Outcome         enums.CallOutcome `gorm:"column:outcome;type:text;not null"`
	DurationSeconds int               `gorm:"column:duration_seconds;not null"`
	CallbackAt      *time.Time        `gorm:"column:callback_at"`
	Notes           *string           `gorm:"column:notes"`
	FromStatus      *enums.LeadStatus `gorm:"column:from_status;type:text"`
	ToStatus        *enums.LeadStatus `gorm:"column:to_status;type:text"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (c *CallNote) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}
