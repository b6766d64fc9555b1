// Package partition owns the physical isolation boundary: one storage
// namespace per tenant, plus the scoped handle that confines a request to it.
package partition

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Store provisions and opens per-tenant namespaces. Every data operation that
// touches tenant-owned tables goes through a Scope obtained here; nothing else
// may reach a partition.
type Store interface {
	// Create provisions the namespace for key, including the tenant tables.
	Create(ctx context.Context, key string) error
	// Drop destroys the namespace and everything in it.
	Drop(ctx context.Context, key string) error
	// Open returns a Scope bound to the namespace. The caller must Close it
	// on every exit path.
	Open(ctx context.Context, key string) (*Scope, error)
}

var keyPattern = regexp.MustCompile(`^[a-z0-9-]{1,30}$`)

// ValidateKey rejects anything that is not a well-formed partition key. Keys
// are interpolated into DDL, so this is a security boundary, not just input
// hygiene.
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid partition key %q", key)
	}
	if strings.HasPrefix(key, "pg-") || strings.HasPrefix(key, "pg_") {
		return fmt.Errorf("reserved partition key %q", key)
	}
	return nil
}

func quoteIdent(key string) string {
	return `"` + key + `"`
}
