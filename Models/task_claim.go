package Models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Platform string

const (
	PlatformOutlier   Platform = "Outlier AI"
	PlatformHandshake Platform = "Handshake"
	PlatformOther     Platform = "Other"
)

var Platforms = []Platform{PlatformOutlier, PlatformHandshake, PlatformOther}

func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "Pending"
	ClaimApproved ClaimStatus = "Approved"
	ClaimRejected ClaimStatus = "Rejected"
)

// NoScreenshot is stored when a claim is submitted without proof.
const NoScreenshot = "no-screenshot.png"

// TaskClaim is an employee's record of work done on an external platform.
// (Platform, TaskExternalID) is unique across all claims regardless of status,
// and IsPaid is only ever true while Status is Approved.
type TaskClaim struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	EmployeeID     uint            `json:"employee_id" gorm:"not null;index"`
	Employee       *User           `json:"employee,omitempty" gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE"`
	Platform       Platform        `json:"platform" gorm:"size:50;not null;uniqueIndex:idx_platform_task"`
	AccountName    string          `json:"account_name" gorm:"size:100;not null"`
	TaskExternalID string          `json:"task_external_id" gorm:"size:255;not null;uniqueIndex:idx_platform_task"`
	ScreenshotRef  string          `json:"screenshot" gorm:"size:500;not null"`
	TimeSpentHours decimal.Decimal `json:"time_spent_hours" gorm:"type:decimal(5,2);not null"`
	Status         ClaimStatus     `json:"status" gorm:"size:20;not null;default:'Pending';index"`
	IsPaid         bool            `json:"is_paid" gorm:"not null;default:false"`
	SubmittedAt    time.Time       `json:"submitted_at" gorm:"not null;index"`
	ManagerNotes   *string         `json:"manager_notes"`
}

// MarshalJSON renders the hours as the two-place decimal the column holds.
func (c TaskClaim) MarshalJSON() ([]byte, error) {
	type claim TaskClaim
	return json.Marshal(struct {
		claim
		TimeSpentHours string `json:"time_spent_hours"`
	}{claim(c), c.TimeSpentHours.StringFixed(2)})
}
