package Models

import "time"

// User is a login identity. IsManager is the privileged flag; everything
// else reads the role through Policy.ActorFor.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:150;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"not null"`
	IsManager    bool      `json:"is_manager" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
}
