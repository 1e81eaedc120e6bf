package domain

import "context"

// Repositories is the set of repositories that take part in a mutation.
type Repositories interface {
	Tasks() TaskRepository
	Audit() AuditRepository
}

// Transactor runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(repos Repositories) error) error
}
