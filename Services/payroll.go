package Services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"TaskLedger/Models"
	"TaskLedger/Policy"
	"TaskLedger/Reports"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type PayrollService struct {
	DB          *gorm.DB
	RatePerHour float64
	Location    *time.Location
	Now         func() time.Time
}

// PayrollRow is what one employee is owed for approved, unpaid work.
type PayrollRow struct {
	EmployeeID    uint            `json:"employee_id"`
	Username      string          `json:"username"`
	ApprovedHours decimal.Decimal `json:"approved_hours"`
	TotalPay      float64         `json:"total_pay"`
}

// MarshalJSON renders hours with two decimal places, as stored.
func (r PayrollRow) MarshalJSON() ([]byte, error) {
	type row PayrollRow
	return json.Marshal(struct {
		row
		ApprovedHours string `json:"approved_hours"`
	}{row(r), r.ApprovedHours.StringFixed(2)})
}

// DailyHistory covers every claim an employee submitted on one calendar day,
// whatever its status or paid flag.
type DailyHistory struct {
	Employee     Models.User        `json:"employee"`
	SelectedDate string             `json:"selected_date"`
	Today        string             `json:"today"`
	Claims       []Models.TaskClaim `json:"claims"`
	TaskCount    int                `json:"task_count"`
	TotalHours   decimal.Decimal    `json:"total_hours"`
	TotalPay     float64            `json:"total_pay"`
}

func (h DailyHistory) MarshalJSON() ([]byte, error) {
	type history DailyHistory
	return json.Marshal(struct {
		history
		TotalHours string `json:"total_hours"`
	}{history(h), h.TotalHours.StringFixed(2)})
}

// Pay converts hours to money at the configured rate, rounded to cents once.
func (s *PayrollService) Pay(hours decimal.Decimal) float64 {
	total := hours.InexactFloat64() * s.RatePerHour
	return math.Round(total*100) / 100
}

// UnpaidSummary lists approved, unpaid totals per employee, by username.
// Employees whose qualifying hours sum to zero are left out.
func (s *PayrollService) UnpaidSummary(ctx context.Context, actor *Policy.Actor) ([]PayrollRow, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	var claims []Models.TaskClaim
	if err := s.DB.WithContext(ctx).
		Preload("Employee").
		Where("status = ? AND is_paid = ?", Models.ClaimApproved, false).
		Order("employee_id ASC, id ASC").
		Find(&claims).Error; err != nil {
		return nil, fmt.Errorf("load unpaid claims: %w", err)
	}

	index := make(map[uint]int)
	rows := []PayrollRow{}
	for _, claim := range claims {
		i, ok := index[claim.EmployeeID]
		if !ok {
			row := PayrollRow{EmployeeID: claim.EmployeeID, ApprovedHours: decimal.Zero}
			if claim.Employee != nil {
				row.Username = claim.Employee.Username
			}
			rows = append(rows, row)
			i = len(rows) - 1
			index[claim.EmployeeID] = i
		}
		rows[i].ApprovedHours = rows[i].ApprovedHours.Add(claim.TimeSpentHours)
	}

	summary := rows[:0]
	for _, row := range rows {
		if row.ApprovedHours.IsZero() {
			continue
		}
		row.TotalPay = s.Pay(row.ApprovedHours)
		summary = append(summary, row)
	}
	sort.SliceStable(summary, func(a, b int) bool {
		return summary[a].Username < summary[b].Username
	})
	return summary, nil
}

// DailyHistory totals an employee's claims for date (YYYY-MM-DD). An empty or
// unparseable date means today in the configured timezone.
func (s *PayrollService) DailyHistory(ctx context.Context, actor *Policy.Actor, employeeID uint, date string) (*DailyHistory, error) {
	if err := Policy.RequireManager(actor); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)

	var employee Models.User
	if err := db.First(&employee, employeeID).Error; err != nil {
		return nil, notFoundOr(err, "employee", employeeID)
	}

	day, today := s.resolveDay(date)
	var claims []Models.TaskClaim
	if err := db.
		Where("employee_id = ? AND submitted_at >= ? AND submitted_at < ?",
			employeeID, day.UTC(), day.AddDate(0, 0, 1).UTC()).
		Order("submitted_at DESC, id DESC").
		Find(&claims).Error; err != nil {
		return nil, fmt.Errorf("load claims for employee %d on %s: %w", employeeID, day.Format(dateLayout), err)
	}

	total := decimal.Zero
	for _, claim := range claims {
		total = total.Add(claim.TimeSpentHours)
	}

	return &DailyHistory{
		Employee:     employee,
		SelectedDate: day.Format(dateLayout),
		Today:        today.Format(dateLayout),
		Claims:       claims,
		TaskCount:    len(claims),
		TotalHours:   total,
		TotalPay:     s.Pay(total),
	}, nil
}

// ExportUnpaid writes the unpaid summary as an xlsx workbook.
func (s *PayrollService) ExportUnpaid(ctx context.Context, actor *Policy.Actor, w io.Writer) error {
	rows, err := s.UnpaidSummary(ctx, actor)
	if err != nil {
		return err
	}
	lines := make([]Reports.PayrollLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, Reports.PayrollLine{
			Employee: row.Username,
			Hours:    row.ApprovedHours,
			Pay:      row.TotalPay,
		})
	}
	return Reports.WritePayroll(w, lines, s.RatePerHour)
}

func (s *PayrollService) resolveDay(date string) (day, today time.Time) {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	current := now().In(loc)
	today = time.Date(current.Year(), current.Month(), current.Day(), 0, 0, 0, 0, loc)

	if parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), loc); err == nil {
		return parsed, today
	}
	return today, today
}
