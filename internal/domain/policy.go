package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Operation names an action subject to authorization.
type Operation string

const (
	OpReadList Operation = "read-list"
	OpRead     Operation = "read"
	OpUpdate   Operation = "update"
	OpDelete   Operation = "delete"
)

// Authenticated reports whether actor carries a usable identity.
func Authenticated(actor *Actor) bool {
	return actor != nil && actor.ID != uuid.Nil && actor.Role.Valid()
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// CanAccess decides whether actor may perform op on task. Admins may do
// anything; other actors only touch tasks they own.
func CanAccess(actor *Actor, task *Task, op Operation) error {
	if !Authenticated(actor) {
		return fmt.Errorf("policy.CanAccess %s: %w", op, ErrUnauthorized)
	}

	switch op {
	case OpReadList, OpRead, OpUpdate, OpDelete:
	default:
		return fmt.Errorf("policy.CanAccess: unknown operation %q: %w", op, ErrForbidden)
	}

	if actor.IsAdmin() {
		return nil
	}
	if task != nil && task.OwnerID == actor.ID {
		return nil
	}

	return fmt.Errorf("policy.CanAccess %s: %w", op, ErrForbidden)
}

// ListFilter returns the query filter applied to task listings: admins see
// all tasks, other actors only their own.
func ListFilter(actor *Actor) (TaskFilter, error) {
	if !Authenticated(actor) {
		return TaskFilter{}, fmt.Errorf("policy.ListFilter: %w", ErrUnauthorized)
	}
	if actor.IsAdmin() {
		return TaskFilter{}, nil
	}

	owner := actor.ID
	return TaskFilter{OwnerID: &owner}, nil
}

// CanViewLedger gates every read of the audit ledger.
func CanViewLedger(actor *Actor) error {
	if !Authenticated(actor) {
		return fmt.Errorf("policy.CanViewLedger: %w", ErrUnauthorized)
	}
	if !actor.IsAdmin() {
		return fmt.Errorf("policy.CanViewLedger: %w", ErrForbidden)
	}
	return nil
}
