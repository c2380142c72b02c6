package redis

import "context"

// Locker hands out exclusive locks on string keys.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// TokenStoreInterface defines single-use token operations.
type TokenStoreInterface interface {
	Issue(ctx context.Context, purpose, subject string) (string, error)
	Consume(ctx context.Context, purpose, token string) (string, error)
}

// Ensure concrete types implement interfaces.
var (
	_ Locker              = (*LockStore)(nil)
	_ TokenStoreInterface = (*TokenStore)(nil)
)
