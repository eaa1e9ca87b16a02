package Services

import (
	"context"
	"encoding/json"
	"fmt"

	"TaskLedger/Models"
	"TaskLedger/Policy"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// recordActivity must run on the same tx as the change it describes.
func recordActivity(tx *gorm.DB, actor *Policy.Actor, entity string, id uint, action string, details map[string]any) error {
	entry := Models.ActivityEntry{
		Entity:   entity,
		EntityID: id,
		Action:   action,
	}
	if actor != nil {
		entry.ActorID = actor.UserID
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encode activity details: %w", err)
		}
		entry.Details = datatypes.JSON(raw)
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("record %s %s: %w", entity, action, err)
	}
	return nil
}

func listActivity(ctx context.Context, db *gorm.DB, entity string, id uint) ([]Models.ActivityEntry, error) {
	var entries []Models.ActivityEntry
	if err := db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, id).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list %s activity: %w", entity, err)
	}
	return entries, nil
}
