package models

import (
	"time"

	"github.com/google/uuid"
)

type State struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type City struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Short     string    `json:"short"`
	Status    bool      `json:"status"`
	StateID   uuid.UUID `json:"state_id"`
	StateName string    `json:"state_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateStateRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateCityRequest accepts both state_id and the stateId spelling used by older clients.
type CreateCityRequest struct {
	Name     string `json:"name"`
	Short    string `json:"short"`
	Status   *bool  `json:"status"`
	StateID  string `json:"state_id"`
	StateID2 string `json:"stateId"`
}

func (r *CreateCityRequest) State() string {
	if r.StateID != "" {
		return r.StateID
	}
	return r.StateID2
}
