// Package Services holds the ledger core: account and claim lifecycles,
// payroll aggregation and the user collaborator. Every operation takes the
// calling actor and checks Policy before touching the store.
package Services

import (
	"context"
	"time"

	"TaskLedger/Models"

	"gorm.io/gorm"
)

// AccountEvent describes an employee-driven account change managers care about.
type AccountEvent struct {
	AccountID   uint
	AccountName string
	Employee    string
	Status      Models.AccountStatus
	Unpaused    bool
}

// Notifier tells managers about account events. Failures are logged, not returned.
type Notifier interface {
	AccountChanged(ctx context.Context, event AccountEvent) error
}

type NopNotifier struct{}

func (NopNotifier) AccountChanged(context.Context, AccountEvent) error { return nil }

type Options struct {
	RatePerHour float64
	Location    *time.Location
	Notifier    Notifier
	Now         func() time.Time
}

type Ledger struct {
	Accounts *AccountService
	Claims   *ClaimService
	Payroll  *PayrollService
	Users    *UserService
}

func New(db *gorm.DB, opts Options) *Ledger {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}

	return &Ledger{
		Accounts: &AccountService{DB: db, Notifier: opts.Notifier},
		Claims:   &ClaimService{DB: db, Now: opts.Now},
		Payroll: &PayrollService{
			DB:          db,
			RatePerHour: opts.RatePerHour,
			Location:    opts.Location,
			Now:         opts.Now,
		},
		Users: &UserService{DB: db},
	}
}
