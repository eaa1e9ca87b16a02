package Services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"TaskLedger/Models"
	"TaskLedger/Policy"

	"gorm.io/gorm"
)

type AccountService struct {
	DB       *gorm.DB
	Notifier Notifier
}

type NewAccountInput struct {
	AccountName  string             `json:"account_name" validate:"required,max=100"`
	LoginDetails string             `json:"login_details"`
	BrowserType  Models.BrowserType `json:"browser_type" validate:"required,browser"`
	EmployeeID   *uint              `json:"employee_id"`
}

// AccountNotifications is what the manager dashboard surfaces.
type AccountNotifications struct {
	Paused   []Models.WorkAccount `json:"paused"`
	Left     []Models.WorkAccount `json:"left"`
	Unpaused []Models.WorkAccount `json:"unpaused"`
}

// CreateAccount hands out a new shared login, optionally to an employee.
func (s *AccountService) CreateAccount(ctx context.Context, actor *Policy.Actor, in NewAccountInput) (*Models.WorkAccount, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	in.AccountName = strings.TrimSpace(in.AccountName)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	if in.EmployeeID != nil {
		if err := requireAssignee(db, *in.EmployeeID); err != nil {
			return nil, err
		}
	}

	account := Models.WorkAccount{
		EmployeeID:   in.EmployeeID,
		AccountName:  in.AccountName,
		LoginDetails: in.LoginDetails,
		BrowserType:  in.BrowserType,
		Status:       Models.AccountAssigned,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			return fmt.Errorf("create work account: %w", err)
		}
		return recordActivity(tx, actor, Models.EntityAccount, account.ID, "created", map[string]any{
			"account_name": account.AccountName,
			"browser_type": account.BrowserType,
			"employee_id":  account.EmployeeID,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, account.ID)
}

// AcceptAccount moves the account to Accepted. Accepting a Paused account
// also raises the recently-unpaused flag for managers.
func (s *AccountService) AcceptAccount(ctx context.Context, actor *Policy.Actor, id uint) (*Models.WorkAccount, error) {
	return s.transition(ctx, actor, id, Models.AccountAccepted)
}

func (s *AccountService) PauseAccount(ctx context.Context, actor *Policy.Actor, id uint) (*Models.WorkAccount, error) {
	return s.transition(ctx, actor, id, Models.AccountPaused)
}

// LeaveAccount marks the account Left. The employee stays assigned so the
// history of who held it is kept.
func (s *AccountService) LeaveAccount(ctx context.Context, actor *Policy.Actor, id uint) (*Models.WorkAccount, error) {
	return s.transition(ctx, actor, id, Models.AccountLeft)
}

func (s *AccountService) transition(ctx context.Context, actor *Policy.Actor, id uint, to Models.AccountStatus) (*Models.WorkAccount, error) {
	if err := Policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	var unpaused bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account Models.WorkAccount
		if err := tx.First(&account, id).Error; err != nil {
			return notFoundOr(err, "work account", id)
		}
		if err := Policy.RequireOwner(actor, account.EmployeeID); err != nil {
			return err
		}

		updates := map[string]any{"status": to}
		if to == Models.AccountAccepted {
			// Keys are applied in sorted order, so the CASE reads the old status.
			updates["recently_unpaused"] = gorm.Expr(
				"CASE WHEN status = ? THEN ? ELSE recently_unpaused END", Models.AccountPaused, true)
			unpaused = account.Status == Models.AccountPaused
		}
		result := tx.Model(&Models.WorkAccount{}).
			Where("id = ? AND employee_id = ?", id, actor.UserID).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("update work account %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return &Policy.ForbiddenError{Reason: "not assigned to you"}
		}

		return recordActivity(tx, actor, Models.EntityAccount, id, strings.ToLower(string(to)), map[string]any{
			"from": account.Status,
			"to":   to,
		})
	})
	if err != nil {
		return nil, err
	}

	account, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if to != Models.AccountAccepted || unpaused {
		s.notify(ctx, AccountEvent{
			AccountID:   account.ID,
			AccountName: account.AccountName,
			Employee:    actor.Username,
			Status:      account.Status,
			Unpaused:    unpaused,
		})
	}
	return account, nil
}

// DismissUnpauseNotification clears the recently-unpaused flag.
func (s *AccountService) DismissUnpauseNotification(ctx context.Context, actor *Policy.Actor, id uint) (*Models.WorkAccount, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account Models.WorkAccount
		if err := tx.First(&account, id).Error; err != nil {
			return notFoundOr(err, "work account", id)
		}
		if err := tx.Model(&account).Update("recently_unpaused", false).Error; err != nil {
			return fmt.Errorf("dismiss notification for account %d: %w", id, err)
		}
		return recordActivity(tx, actor, Models.EntityAccount, id, "dismissed", nil)
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// ReassignAccount gives the account to employeeID, or nobody when nil, and
// resets it to Assigned.
func (s *AccountService) ReassignAccount(ctx context.Context, actor *Policy.Actor, id uint, employeeID *uint) (*Models.WorkAccount, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account Models.WorkAccount
		if err := tx.First(&account, id).Error; err != nil {
			return notFoundOr(err, "work account", id)
		}
		if employeeID != nil {
			if err := requireAssignee(tx, *employeeID); err != nil {
				return err
			}
		}
		if err := tx.Model(&account).Updates(map[string]any{
			"employee_id": employeeID,
			"status":      Models.AccountAssigned,
		}).Error; err != nil {
			return fmt.Errorf("reassign account %d: %w", id, err)
		}
		return recordActivity(tx, actor, Models.EntityAccount, id, "reassigned", map[string]any{
			"employee_id": employeeID,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// UnassignAll releases every assigned account and returns how many changed.
func (s *AccountService) UnassignAll(ctx context.Context, actor *Policy.Actor) (int64, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return 0, err
	}
	var count int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Models.WorkAccount{}).
			Where("employee_id IS NOT NULL").
			Updates(map[string]any{"employee_id": nil, "status": Models.AccountAssigned})
		if result.Error != nil {
			return fmt.Errorf("unassign accounts: %w", result.Error)
		}
		count = result.RowsAffected
		if count == 0 {
			return nil
		}
		return recordActivity(tx, actor, Models.EntityAccount, 0, "unassigned_all", map[string]any{"count": count})
	})
	return count, err
}

func (s *AccountService) DeleteAccount(ctx context.Context, actor *Policy.Actor, id uint) error {
	if err := Policy.RequireManager(actor); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account Models.WorkAccount
		if err := tx.First(&account, id).Error; err != nil {
			return notFoundOr(err, "work account", id)
		}
		if err := tx.Delete(&account).Error; err != nil {
			return fmt.Errorf("delete account %d: %w", id, err)
		}
		return recordActivity(tx, actor, Models.EntityAccount, id, "deleted", map[string]any{
			"account_name": account.AccountName,
		})
	})
}

func (s *AccountService) ListAccounts(ctx context.Context, actor *Policy.Actor) ([]Models.WorkAccount, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	return s.find(ctx, s.DB)
}

func (s *AccountService) Notifications(ctx context.Context, actor *Policy.Actor) (*AccountNotifications, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	var (
		out AccountNotifications
		err error
	)
	if out.Paused, err = s.find(ctx, s.DB.Where("status = ?", Models.AccountPaused)); err != nil {
		return nil, err
	}
	if out.Left, err = s.find(ctx, s.DB.Where("status = ?", Models.AccountLeft)); err != nil {
		return nil, err
	}
	if out.Unpaused, err = s.find(ctx, s.DB.Where("recently_unpaused = ?", true)); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyAccounts lists what is assigned to the actor, in any status.
func (s *AccountService) MyAccounts(ctx context.Context, actor *Policy.Actor) ([]Models.WorkAccount, error) {
	if err := Policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	return s.find(ctx, s.DB.Where("employee_id = ?", actor.UserID))
}

func (s *AccountService) AccountActivity(ctx context.Context, actor *Policy.Actor, id uint) ([]Models.ActivityEntry, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return listActivity(ctx, s.DB, Models.EntityAccount, id)
}

func (s *AccountService) find(ctx context.Context, scope *gorm.DB) ([]Models.WorkAccount, error) {
	var accounts []Models.WorkAccount
	if err := scope.WithContext(ctx).
		Preload("Employee").
		Order("assigned_at DESC, id DESC").
		Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list work accounts: %w", err)
	}
	return accounts, nil
}

func (s *AccountService) load(ctx context.Context, id uint) (*Models.WorkAccount, error) {
	var account Models.WorkAccount
	if err := s.DB.WithContext(ctx).Preload("Employee").First(&account, id).Error; err != nil {
		return nil, notFoundOr(err, "work account", id)
	}
	return &account, nil
}

func (s *AccountService) notify(ctx context.Context, event AccountEvent) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.AccountChanged(ctx, event); err != nil {
		log.Printf("Error notifying managers about account %d: %v", event.AccountID, err)
	}
}

func requireAssignee(db *gorm.DB, employeeID uint) error {
	var count int64
	if err := db.Model(&Models.User{}).Where("id = ?", employeeID).Count(&count).Error; err != nil {
		return fmt.Errorf("look up employee %d: %w", employeeID, err)
	}
	if count == 0 {
		return &ValidationError{Field: "employee_id", Message: fmt.Sprintf("employee %d does not exist", employeeID)}
	}
	return nil
}
