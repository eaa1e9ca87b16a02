package Models

import "time"

type AccountStatus string

const (
	AccountAssigned AccountStatus = "Assigned"
	AccountAccepted AccountStatus = "Accepted"
	AccountPaused   AccountStatus = "Paused"
	AccountLeft     AccountStatus = "Left"
)

type BrowserType string

const (
	BrowserIX        BrowserType = "IX Browser"
	BrowserGoLogin   BrowserType = "GoLogin"
	BrowserMoreLogin BrowserType = "MoreLogin"
	BrowserOther     BrowserType = "Other"
)

var BrowserTypes = []BrowserType{BrowserIX, BrowserGoLogin, BrowserMoreLogin, BrowserOther}

func (b BrowserType) Valid() bool {
	for _, known := range BrowserTypes {
		if b == known {
			return true
		}
	}
	return false
}

// WorkAccount is a shared login handed to one employee at a time.
// LoginDetails is opaque and must never be logged.
type WorkAccount struct {
	ID               uint          `json:"id" gorm:"primaryKey"`
	EmployeeID       *uint         `json:"employee_id" gorm:"index"`
	Employee         *User         `json:"employee,omitempty" gorm:"foreignKey:EmployeeID;constraint:OnDelete:SET NULL"`
	AccountName      string        `json:"account_name" gorm:"size:100;not null"`
	LoginDetails     string        `json:"login_details" gorm:"type:text;not null"`
	BrowserType      BrowserType   `json:"browser_type" gorm:"size:50;not null"`
	Status           AccountStatus `json:"status" gorm:"size:20;not null;default:'Assigned';index"`
	RecentlyUnpaused bool          `json:"recently_unpaused" gorm:"not null;default:false"`
	AssignedAt       time.Time     `json:"assigned_at" gorm:"autoCreateTime"`
}

// AssignedTo reports whether the account is currently held by userID.
func (a WorkAccount) AssignedTo(userID uint) bool {
	return a.EmployeeID != nil && *a.EmployeeID == userID
}
