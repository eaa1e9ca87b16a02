package Models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	EntityClaim   = "claim"
	EntityAccount = "account"
	EntityUser    = "user"
)

// ActivityEntry records who changed a claim, account or user and how.
type ActivityEntry struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Entity    string         `json:"entity" gorm:"size:20;not null;index:idx_activity_entity"`
	EntityID  uint           `json:"entity_id" gorm:"not null;index:idx_activity_entity"`
	Action    string         `json:"action" gorm:"size:50;not null"`
	ActorID   uint           `json:"actor_id"`
	Details   datatypes.JSON `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
