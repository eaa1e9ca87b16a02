package Services

import (
	"errors"
	"testing"

	"TaskLedger/Models"
	"TaskLedger/Policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)

	account := f.assign(t, "  brownhandshake ", f.alice)
	assert.Equal(t, "brownhandshake", account.AccountName)
	assert.Equal(t, Models.AccountAssigned, account.Status)
	assert.False(t, account.RecentlyUnpaused)
	require.NotNil(t, account.Employee)
	assert.Equal(t, "alice", account.Employee.Username)

	unassigned := f.assign(t, "spare", nil)
	assert.Nil(t, unassigned.EmployeeID)
}

func TestCreateAccountValidation(t *testing.T) {
	f := newFixture(t)
	missing := uint(9999)

	tests := []struct {
		name  string
		in    NewAccountInput
		field string
	}{
		{"empty name", NewAccountInput{AccountName: " ", BrowserType: Models.BrowserGoLogin}, "account_name"},
		{"unknown browser", NewAccountInput{AccountName: "x", BrowserType: "Chrome"}, "browser_type"},
		{"unknown employee", NewAccountInput{AccountName: "x", BrowserType: Models.BrowserIX, EmployeeID: &missing}, "employee_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Accounts.CreateAccount(f.ctx, f.manager, tt.in)
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr), "got %v", err)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	var forbidden *Policy.ForbiddenError
	_, err := f.ledger.Accounts.CreateAccount(f.ctx, f.alice, NewAccountInput{AccountName: "x", BrowserType: Models.BrowserOther})
	assert.True(t, errors.As(err, &forbidden))
}

func TestAcceptPausedAccountFlagsUnpause(t *testing.T) {
	f := newFixture(t)
	account := f.assign(t, "acct-7", f.alice)

	paused, err := f.ledger.Accounts.PauseAccount(f.ctx, f.alice, account.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.AccountPaused, paused.Status)
	assert.False(t, paused.RecentlyUnpaused)

	accepted, err := f.ledger.Accounts.AcceptAccount(f.ctx, f.alice, account.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.AccountAccepted, accepted.Status)
	assert.True(t, accepted.RecentlyUnpaused)

	notes, err := f.ledger.Accounts.Notifications(f.ctx, f.manager)
	require.NoError(t, err)
	require.Len(t, notes.Unpaused, 1)
	assert.Equal(t, account.ID, notes.Unpaused[0].ID)
	assert.Empty(t, notes.Paused)

	dismissed, err := f.ledger.Accounts.DismissUnpauseNotification(f.ctx, f.manager, account.ID)
	require.NoError(t, err)
	assert.False(t, dismissed.RecentlyUnpaused)
	assert.Equal(t, Models.AccountAccepted, dismissed.Status)

	notes, err = f.ledger.Accounts.Notifications(f.ctx, f.manager)
	require.NoError(t, err)
	assert.Empty(t, notes.Unpaused)

	require.Len(t, f.notifier.events, 2)
	assert.Equal(t, Models.AccountPaused, f.notifier.events[0].Status)
	assert.False(t, f.notifier.events[0].Unpaused)
	assert.Equal(t, Models.AccountAccepted, f.notifier.events[1].Status)
	assert.True(t, f.notifier.events[1].Unpaused)
	assert.Equal(t, "alice", f.notifier.events[1].Employee)
}

func TestAcceptFromAssignedDoesNotFlag(t *testing.T) {
	f := newFixture(t)
	account := f.assign(t, "fresh", f.alice)

	accepted, err := f.ledger.Accounts.AcceptAccount(f.ctx, f.alice, account.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.AccountAccepted, accepted.Status)
	assert.False(t, accepted.RecentlyUnpaused)
	assert.Empty(t, f.notifier.events)

	// accepting again keeps a raised flag untouched
	_, err = f.ledger.Accounts.PauseAccount(f.ctx, f.alice, account.ID)
	require.NoError(t, err)
	_, err = f.ledger.Accounts.AcceptAccount(f.ctx, f.alice, account.ID)
	require.NoError(t, err)
	again, err := f.ledger.Accounts.AcceptAccount(f.ctx, f.alice, account.ID)
	require.NoError(t, err)
	assert.True(t, again.RecentlyUnpaused)
}

func TestLeaveKeepsAssignment(t *testing.T) {
	f := newFixture(t)
	account := f.assign(t, "leaving", f.alice)

	left, err := f.ledger.Accounts.LeaveAccount(f.ctx, f.alice, account.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.AccountLeft, left.Status)
	require.NotNil(t, left.EmployeeID)
	assert.Equal(t, f.alice.UserID, *left.EmployeeID)

	mine, err := f.ledger.Accounts.MyAccounts(f.ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, Models.AccountLeft, mine[0].Status)

	notes, err := f.ledger.Accounts.Notifications(f.ctx, f.manager)
	require.NoError(t, err)
	require.Len(t, notes.Left, 1)
	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, Models.AccountLeft, f.notifier.events[0].Status)
}

func TestTransitionsRequireAssignedEmployee(t *testing.T) {
	f := newFixture(t)
	account := f.assign(t, "alice-acct", f.alice)
	spare := f.assign(t, "spare", nil)

	var forbidden *Policy.ForbiddenError
	_, err := f.ledger.Accounts.PauseAccount(f.ctx, f.bob, account.ID)
	assert.True(t, errors.As(err, &forbidden))

	_, err = f.ledger.Accounts.AcceptAccount(f.ctx, f.manager, account.ID)
	assert.True(t, errors.As(err, &forbidden))

	_, err = f.ledger.Accounts.LeaveAccount(f.ctx, f.alice, spare.ID)
	assert.True(t, errors.As(err, &forbidden))

	// only managers clear the flag, create or reassign
	_, err = f.ledger.Accounts.DismissUnpauseNotification(f.ctx, f.alice, account.ID)
	assert.True(t, errors.As(err, &forbidden))
	_, err = f.ledger.Accounts.CreateAccount(f.ctx, f.alice, NewAccountInput{AccountName: "mine-now", BrowserType: Models.BrowserGoLogin, EmployeeID: &f.alice.UserID})
	assert.True(t, errors.As(err, &forbidden))
	_, err = f.ledger.Accounts.ReassignAccount(f.ctx, f.alice, spare.ID, &f.alice.UserID)
	assert.True(t, errors.As(err, &forbidden))

	_, err = f.ledger.Accounts.AcceptAccount(f.ctx, nil, account.ID)
	assert.ErrorIs(t, err, Policy.ErrUnauthenticated)

	var notFound *NotFoundError
	_, err = f.ledger.Accounts.AcceptAccount(f.ctx, f.alice, 555)
	assert.True(t, errors.As(err, &notFound))

	stored, err := f.ledger.Accounts.load(f.ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.AccountAssigned, stored.Status)
	assert.Empty(t, f.notifier.events)
}

func TestReassignAndUnassignAll(t *testing.T) {
	f := newFixture(t)
	first := f.assign(t, "first", f.alice)
	second := f.assign(t, "second", f.alice)
	f.assign(t, "spare", nil)

	_, err := f.ledger.Accounts.PauseAccount(f.ctx, f.alice, first.ID)
	require.NoError(t, err)

	moved, err := f.ledger.Accounts.ReassignAccount(f.ctx, f.manager, first.ID, &f.bob.UserID)
	require.NoError(t, err)
	require.NotNil(t, moved.EmployeeID)
	assert.Equal(t, f.bob.UserID, *moved.EmployeeID)
	assert.Equal(t, Models.AccountAssigned, moved.Status)

	// alice can no longer claim on the account she lost
	_, err = f.ledger.Claims.SubmitClaim(f.ctx, f.alice, SubmitClaimInput{
		Platform: Models.PlatformOther, AccountName: "first", TaskExternalID: "R-1", TimeSpentHours: dec("1"),
	})
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))

	missing := uint(31337)
	_, err = f.ledger.Accounts.ReassignAccount(f.ctx, f.manager, second.ID, &missing)
	assert.True(t, errors.As(err, &vErr))

	n, err := f.ledger.Accounts.UnassignAll(f.ctx, f.manager)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	all, err := f.ledger.Accounts.ListAccounts(f.ctx, f.manager)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, account := range all {
		assert.Nil(t, account.EmployeeID, account.AccountName)
		assert.Equal(t, Models.AccountAssigned, account.Status)
	}

	n, err = f.ledger.Accounts.UnassignAll(f.ctx, f.manager)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	account := f.assign(t, "gone", f.alice)

	require.NoError(t, f.ledger.Accounts.DeleteAccount(f.ctx, f.manager, account.ID))

	var notFound *NotFoundError
	err := f.ledger.Accounts.DeleteAccount(f.ctx, f.manager, account.ID)
	assert.True(t, errors.As(err, &notFound))

	entries, err := listActivity(f.ctx, f.db, Models.EntityAccount, account.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "created", entries[0].Action)
	assert.Equal(t, "deleted", entries[1].Action)
}

func TestAccountActivity(t *testing.T) {
	f := newFixture(t)
	account := f.assign(t, "tracked", f.alice)
	_, err := f.ledger.Accounts.PauseAccount(f.ctx, f.alice, account.ID)
	require.NoError(t, err)
	_, err = f.ledger.Accounts.AcceptAccount(f.ctx, f.alice, account.ID)
	require.NoError(t, err)

	entries, err := f.ledger.Accounts.AccountActivity(f.ctx, f.manager, account.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "paused", entries[1].Action)
	assert.Equal(t, "accepted", entries[2].Action)
	assert.Equal(t, f.alice.UserID, entries[2].ActorID)

	var forbidden *Policy.ForbiddenError
	_, err = f.ledger.Accounts.AccountActivity(f.ctx, f.alice, account.ID)
	assert.True(t, errors.As(err, &forbidden))
}
