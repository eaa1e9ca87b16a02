package Services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"TaskLedger/Models"
	"TaskLedger/Policy"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingNotifier struct {
	mu     sync.Mutex
	events []AccountEvent
}

func (n *recordingNotifier) AccountChanged(_ context.Context, event AccountEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	ledger   *Ledger
	clock    *fakeClock
	notifier *recordingNotifier

	manager *Policy.Actor
	alice   *Policy.Actor
	bob     *Policy.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	// concurrent writers wait for the lock instead of failing with SQLITE_BUSY
	db, err := Models.Connect("sqlite", filepath.Join(t.TempDir(), "ledger.db")+"?_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{
		ctx:      context.Background(),
		db:       db,
		clock:    &fakeClock{now: time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
	}
	f.ledger = New(db, Options{
		RatePerHour: 15,
		Location:    time.UTC,
		Notifier:    f.notifier,
		Now:         f.clock.Now,
	})

	f.manager = f.seedUser(t, "manager", true)
	f.alice = f.seedUser(t, "alice", false)
	f.bob = f.seedUser(t, "bob", false)
	return f
}

func (f *fixture) seedUser(t *testing.T, username string, manager bool) *Policy.Actor {
	t.Helper()
	user := Models.User{Username: username, PasswordHash: "!", IsManager: manager}
	require.NoError(t, f.db.Create(&user).Error)
	return Policy.ActorFor(user)
}

func (f *fixture) assign(t *testing.T, name string, employee *Policy.Actor) *Models.WorkAccount {
	t.Helper()
	in := NewAccountInput{
		AccountName:  name,
		LoginDetails: "user: " + name + "\npass: hunter2",
		BrowserType:  Models.BrowserGoLogin,
	}
	if employee != nil {
		in.EmployeeID = &employee.UserID
	}
	account, err := f.ledger.Accounts.CreateAccount(f.ctx, f.manager, in)
	require.NoError(t, err)
	return account
}

func (f *fixture) submit(t *testing.T, actor *Policy.Actor, platform Models.Platform, account, externalID, hours string) *Models.TaskClaim {
	t.Helper()
	claim, err := f.ledger.Claims.SubmitClaim(f.ctx, actor, SubmitClaimInput{
		Platform:       platform,
		AccountName:    account,
		TaskExternalID: externalID,
		ScreenshotRef:  "proofs/2026/10/proof.jpg",
		TimeSpentHours: dec(hours),
	})
	require.NoError(t, err)
	return claim
}

func (f *fixture) reload(t *testing.T, id uint) Models.TaskClaim {
	t.Helper()
	var claim Models.TaskClaim
	require.NoError(t, f.db.First(&claim, id).Error)
	return claim
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}
