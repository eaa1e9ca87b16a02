// Package Policy decides who may call which ledger operation.
package Policy

import (
	"errors"

	"TaskLedger/Models"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
)

// Actor is the authenticated caller of an operation. A nil *Actor means
// nobody is logged in.
type Actor struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (a *Actor) IsManager() bool {
	return a != nil && a.Role == RoleManager
}

// ActorFor is the only place the user's privileged flag turns into a role.
func ActorFor(user Models.User) *Actor {
	role := RoleEmployee
	if user.IsManager {
		role = RoleManager
	}
	return &Actor{UserID: user.ID, Username: user.Username, Role: role}
}

var ErrUnauthenticated = errors.New("authentication required")

// ForbiddenError means the actor is known but lacks the role or ownership.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "forbidden"
	}
	return e.Reason
}

func RequireAuthenticated(actor *Actor) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	return nil
}

func RequireManager(actor *Actor) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.Role != RoleManager {
		return &ForbiddenError{Reason: "manager role required"}
	}
	return nil
}

// RequireOwner checks that the actor is the user in ownerID. An unassigned
// resource (nil owner) belongs to nobody.
func RequireOwner(actor *Actor, ownerID *uint) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if ownerID == nil || *ownerID != actor.UserID {
		return &ForbiddenError{Reason: "not assigned to you"}
	}
	return nil
}

// RequireOwnerOrManager lets a manager through, otherwise falls back to RequireOwner.
func RequireOwnerOrManager(actor *Actor, ownerID uint) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.IsManager() {
		return nil
	}
	return RequireOwner(actor, &ownerID)
}
