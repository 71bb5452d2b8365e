package models

import "github.com/google/uuid"

// UnknownAgentID replaces call_notes.agent_id when the agent's user row is
// purged, so the call trail survives the deletion.
var UnknownAgentID = uuid.Max

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
