package blacklist

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/codcrm-backend/pkg/db/models"
	"github.com/angelmondragon/codcrm-backend/pkg/enums"
	"github.com/angelmondragon/codcrm-backend/pkg/pagination"
)

type EntryDTO struct {
	ID        uuid.UUID             `json:"id"`
	Phone     string                `json:"phone"`
	Reason    enums.BlacklistReason `json:"reason"`
	Notes     *string               `json:"notes,omitempty"`
	CreatedBy *uuid.UUID            `json:"created_by,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

type AddInput struct {
	Phone  string  `json:"phone" validate:"required"`
	Reason string  `json:"reason"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type ListParams struct {
	pagination.Params
	Reason *enums.BlacklistReason
	Phone  string
}

func fromModel(m *models.Blacklist) EntryDTO {
	return EntryDTO{
		ID:        m.ID,
		Phone:     m.Phone,
		Reason:    m.Reason,
		Notes:     m.Notes,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

func cursorOf(e EntryDTO) pagination.Cursor {
	return pagination.Cursor{CreatedAt: e.CreatedAt, ID: e.ID}
}
