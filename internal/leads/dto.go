package leads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
	"github.com/angelmondragon/codcrm-backend/pkg/types"
)

type LeadDTO struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Phone           string           `json:"phone"`
	City            *string          `json:"city,omitempty"`
	Address         *string          `json:"address,omitempty"`
	Source          enums.LeadSource `json:"source"`
	Status          enums.LeadStatus `json:"status"`
	AssignedTo      *uuid.UUID       `json:"assigned_to,omitempty"`
	ProductID       *uuid.UUID       `json:"product_id,omitempty"`
	CallAttempts    int              `json:"call_attempts"`
	LastContactedAt *time.Time       `json:"last_contacted_at,omitempty"`
	CreatedBy       *uuid.UUID       `json:"created_by,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type CreateLeadInput struct {
	Name       string     `json:"name" validate:"required,max=200"`
	Phone      string     `json:"phone" validate:"required"`
	City       *string    `json:"city,omitempty" validate:"omitempty,max=120"`
	Address    *string    `json:"address,omitempty" validate:"omitempty,max=500"`
	Source     string     `json:"source"`
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
	ProductID  *uuid.UUID `json:"product_id,omitempty"`
}

// UpdateLeadInput is a partial update. AssignedTo and ProductID accept an
// explicit null to clear the reference.
type UpdateLeadInput struct {
	Name       *string            `json:"name,omitempty"`
	City       *string            `json:"city,omitempty"`
	Address    *string            `json:"address,omitempty"`
	Source     *string            `json:"source,omitempty"`
	AssignedTo types.NullableUUID `json:"assigned_to"`
	ProductID  types.NullableUUID `json:"product_id"`
}

type TransitionInput struct {
	Status string  `json:"status"`
	Note   *string `json:"note,omitempty"`
}

type ReopenInput struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type NoteInput struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type LogCallInput struct {
	Outcome         string     `json:"outcome"`
	DurationSeconds int        `json:"duration_seconds" validate:"gte=0"`
	CallbackAt      *time.Time `json:"callback_at,omitempty"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=4000"`
}

type ListParams struct {
	pagination.Params
	Status     *enums.LeadStatus
	Source     *enums.LeadSource
	AssignedTo *uuid.UUID
	Search     string
}

type CallNoteDTO struct {
	ID              uuid.UUID         `json:"id"`
	LeadID          uuid.UUID         `json:"lead_id"`
	AgentID         uuid.UUID         `json:"agent_id"`
	Outcome         enums.CallOutcome `json:"outcome"`
	DurationSeconds int               `json:"duration_seconds"`
	CallbackAt      *time.Time        `json:"callback_at,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	FromStatus      *enums.LeadStatus `json:"from_status,omitempty"`
	ToStatus        *enums.LeadStatus `json:"to_status,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// CallResult is the outcome of LogCall: the stored note and the lead as it
// stands afterwards.
type CallResult struct {
	Call CallNoteDTO `json:"call"`
	Lead LeadDTO     `json:"lead"`
}

// HistoryEntry is one row of the merged lead timeline.
type HistoryEntry struct {
	Type       string             `json:"type"`
	ID         uuid.UUID          `json:"id"`
	ActorID    *uuid.UUID         `json:"actor_id,omitempty"`
	Kind       enums.LeadNoteKind `json:"kind,omitempty"`
	Outcome    enums.CallOutcome  `json:"outcome,omitempty"`
	Content    string             `json:"content,omitempty"`
	FromStatus *enums.LeadStatus  `json:"from_status,omitempty"`
	ToStatus   *enums.LeadStatus  `json:"to_status,omitempty"`
	At         time.Time          `json:"at"`
}

const (
	HistoryTypeNote = "note"
	HistoryTypeCall = "call"
)

func fromModel(m *models.Lead) LeadDTO {
	return LeadDTO{
		ID:              m.ID,
		Name:            m.Name,
		Phone:           m.Phone,
		City:            m.City,
		Address:         m.Address,
		Source:          m.Source,
		Status:          m.Status,
		AssignedTo:      m.AssignedTo,
		ProductID:       m.ProductID,
		CallAttempts:    m.CallAttempts,
		LastContactedAt: m.LastContactedAt,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func callFromModel(m *models.CallNote) CallNoteDTO {
	return CallNoteDTO{
		ID:              m.ID,
		LeadID:          m.LeadID,
		AgentID:         m.AgentID,
		Outcome:         m.Outcome,
		DurationSeconds: m.DurationSeconds,
		CallbackAt:      m.CallbackAt,
		Notes:           m.Notes,
		FromStatus:      m.FromStatus,
		ToStatus:        m.ToStatus,
		CreatedAt:       m.CreatedAt,
	}
}

func cursorOf(l LeadDTO) pagination.Cursor {
	return pagination.Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
}
