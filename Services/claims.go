package Services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"TaskLedger/Models"
	"TaskLedger/Policy"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ClaimService struct {
	DB  *gorm.DB
	Now func() time.Time
}

type SubmitClaimInput struct {
	Platform       Models.Platform `json:"platform" validate:"required,platform"`
	AccountName    string          `json:"account_name" validate:"required,max=100"`
	TaskExternalID string          `json:"task_external_id" validate:"required,max=255"`
	ScreenshotRef  string          `json:"-" validate:"max=500"`
	TimeSpentHours decimal.Decimal `json:"time_spent_hours" validate:"-"`
}

// EmployeeClaims is one employee's slice of the pending queue.
type EmployeeClaims struct {
	EmployeeID uint               `json:"employee_id"`
	Username   string             `json:"username"`
	Claims     []Models.TaskClaim `json:"claims"`
}

// SubmitClaim records work the actor did on one of their assigned accounts.
func (s *ClaimService) SubmitClaim(ctx context.Context, actor *Policy.Actor, in SubmitClaimInput) (*Models.TaskClaim, error) {
	if err := Policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	in.AccountName = strings.TrimSpace(in.AccountName)
	in.TaskExternalID = strings.TrimSpace(in.TaskExternalID)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	assigned, err := assignedAccountNames(db, actor.UserID)
	if err != nil {
		return nil, err
	}
	if _, ok := assigned[in.AccountName]; !ok {
		return nil, &ValidationError{Field: "account_name", Message: "account_name must be one of the accounts assigned to you"}
	}
	if err := validateHours(in.TimeSpentHours); err != nil {
		return nil, err
	}

	var existing int64
	if err := db.Model(&Models.TaskClaim{}).
		Where("platform = ? AND task_external_id = ?", in.Platform, in.TaskExternalID).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("check duplicate claim: %w", err)
	}
	if existing > 0 {
		return nil, &DuplicateClaimError{Platform: in.Platform, TaskExternalID: in.TaskExternalID}
	}

	screenshot := in.ScreenshotRef
	if screenshot == "" {
		screenshot = Models.NoScreenshot
	}
	claim := Models.TaskClaim{
		EmployeeID:     actor.UserID,
		Platform:       in.Platform,
		AccountName:    in.AccountName,
		TaskExternalID: in.TaskExternalID,
		ScreenshotRef:  screenshot,
		TimeSpentHours: in.TimeSpentHours.Round(2),
		Status:         Models.ClaimPending,
		SubmittedAt:    s.now().UTC(),
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&claim).Error; err != nil {
			// The unique index settles races the count above cannot see.
			if Models.IsDuplicateKey(err) {
				return &DuplicateClaimError{Platform: in.Platform, TaskExternalID: in.TaskExternalID}
			}
			return fmt.Errorf("create claim: %w", err)
		}
		return recordActivity(tx, actor, Models.EntityClaim, claim.ID, "submitted", map[string]any{
			"platform":         claim.Platform,
			"task_external_id": claim.TaskExternalID,
			"hours":            claim.TimeSpentHours.StringFixed(2),
		})
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// ApproveClaim sets the claim Approved. Re-approving is allowed.
func (s *ClaimService) ApproveClaim(ctx context.Context, actor *Policy.Actor, id uint) (*Models.TaskClaim, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	return s.decide(ctx, actor, id, "approved", func(claim *Models.TaskClaim) (map[string]any, error) {
		claim.Status = Models.ClaimApproved
		return map[string]any{"status": Models.ClaimApproved}, nil
	})
}

// RejectClaim sets the claim Rejected with the manager's reason. Any status
// may be rejected except a claim that has already been paid out.
func (s *ClaimService) RejectClaim(ctx context.Context, actor *Policy.Actor, id uint, reason string) (*Models.TaskClaim, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "reason is required to reject a claim"}
	}
	return s.decide(ctx, actor, id, "rejected", func(claim *Models.TaskClaim) (map[string]any, error) {
		if claim.IsPaid {
			return nil, &ValidationError{Field: "status", Message: "claim has already been paid and cannot be rejected"}
		}
		claim.Status = Models.ClaimRejected
		claim.ManagerNotes = &reason
		return map[string]any{"status": Models.ClaimRejected, "manager_notes": reason}, nil
	})
}

func (s *ClaimService) decide(ctx context.Context, actor *Policy.Actor, id uint, action string, apply func(*Models.TaskClaim) (map[string]any, error)) (*Models.TaskClaim, error) {
	var claim Models.TaskClaim
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&claim, id).Error; err != nil {
			return notFoundOr(err, "claim", id)
		}
		from := claim.Status
		updates, err := apply(&claim)
		if err != nil {
			return err
		}
		if err := tx.Model(&Models.TaskClaim{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("%s claim %d: %w", action, id, err)
		}
		details := map[string]any{"from": from, "to": claim.Status}
		if claim.ManagerNotes != nil && claim.Status == Models.ClaimRejected {
			details["reason"] = *claim.ManagerNotes
		}
		return recordActivity(tx, actor, Models.EntityClaim, id, action, details)
	})
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// MarkPaid flags every approved, unpaid claim of the employee as paid in one
// statement and returns how many rows changed.
func (s *ClaimService) MarkPaid(ctx context.Context, actor *Policy.Actor, employeeID uint) (int64, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return 0, err
	}
	var updated int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var employee Models.User
		if err := tx.First(&employee, employeeID).Error; err != nil {
			return notFoundOr(err, "employee", employeeID)
		}
		result := tx.Model(&Models.TaskClaim{}).
			Where("employee_id = ? AND status = ? AND is_paid = ?", employeeID, Models.ClaimApproved, false).
			Update("is_paid", true)
		if result.Error != nil {
			return fmt.Errorf("mark claims paid for employee %d: %w", employeeID, result.Error)
		}
		updated = result.RowsAffected
		if updated == 0 {
			return nil
		}
		return recordActivity(tx, actor, Models.EntityUser, employeeID, "marked_paid", map[string]any{"claims": updated})
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// ListPending groups pending claims per employee. Groups are ordered by
// username and each group's claims newest first.
func (s *ClaimService) ListPending(ctx context.Context, actor *Policy.Actor) ([]EmployeeClaims, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	var claims []Models.TaskClaim
	if err := s.DB.WithContext(ctx).
		Preload("Employee").
		Where("status = ?", Models.ClaimPending).
		Order("submitted_at DESC, id DESC").
		Find(&claims).Error; err != nil {
		return nil, fmt.Errorf("list pending claims: %w", err)
	}
	return groupByEmployee(claims), nil
}

func groupByEmployee(claims []Models.TaskClaim) []EmployeeClaims {
	index := make(map[uint]int)
	groups := []EmployeeClaims{}
	for _, claim := range claims {
		i, ok := index[claim.EmployeeID]
		if !ok {
			group := EmployeeClaims{EmployeeID: claim.EmployeeID}
			if claim.Employee != nil {
				group.Username = claim.Employee.Username
			}
			groups = append(groups, group)
			i = len(groups) - 1
			index[claim.EmployeeID] = i
		}
		groups[i].Claims = append(groups[i].Claims, claim)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Username < groups[b].Username
	})
	return groups
}

// GetClaim returns one claim to a manager or to the employee who submitted it.
func (s *ClaimService) GetClaim(ctx context.Context, actor *Policy.Actor, id uint) (*Models.TaskClaim, error) {
	if err := Policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	var claim Models.TaskClaim
	if err := s.DB.WithContext(ctx).Preload("Employee").First(&claim, id).Error; err != nil {
		return nil, notFoundOr(err, "claim", id)
	}
	if err := Policy.RequireOwnerOrManager(actor, claim.EmployeeID); err != nil {
		return nil, err
	}
	return &claim, nil
}

func (s *ClaimService) MyClaims(ctx context.Context, actor *Policy.Actor) ([]Models.TaskClaim, error) {
	if err := Policy.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	var claims []Models.TaskClaim
	if err := s.DB.WithContext(ctx).
		Where("employee_id = ?", actor.UserID).
		Order("submitted_at DESC, id DESC").
		Find(&claims).Error; err != nil {
		return nil, fmt.Errorf("list claims for %d: %w", actor.UserID, err)
	}
	return claims, nil
}

func (s *ClaimService) ClaimActivity(ctx context.Context, actor *Policy.Actor, id uint) ([]Models.ActivityEntry, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&Models.TaskClaim{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("look up claim %d: %w", id, err)
	}
	if count == 0 {
		return nil, &NotFoundError{Entity: "claim", ID: id}
	}
	return listActivity(ctx, s.DB, Models.EntityClaim, id)
}

func (s *ClaimService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func assignedAccountNames(db *gorm.DB, employeeID uint) (map[string]struct{}, error) {
	var names []string
	if err := db.Model(&Models.WorkAccount{}).
		Where("employee_id = ?", employeeID).
		Pluck("account_name", &names).Error; err != nil {
		return nil, fmt.Errorf("load assigned accounts: %w", err)
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set, nil
}
