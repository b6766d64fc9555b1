package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Service interface {
	// Provision atomically creates a tenant: registry rows, partition
	// namespace, seed configuration and the first administrative user.
	// Either everything exists afterwards or nothing does. The one
	// exception is a failed cleanup, reported as *PartialFailure.
	Provision(ctx context.Context, req Request) (*CompanyView, error)
	// Deprovision destroys a tenant: registry rows and the partition.
	Deprovision(ctx context.Context, routingKey string) error
}

type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`

	RoutingKey    string `json:"routing_key"`
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
	AdminRole     string `json:"admin_role"`
}

// CompanyView is the provisioning result returned to the caller.
type CompanyView struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	SchemaName string    `json:"schema_name"`
	Domain     string    `json:"domain"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidationError rejects a request before any write happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

var (
	ErrRoutingKeyTaken = errors.New("routing_key_taken")
	ErrDomainTaken     = errors.New("domain_taken")
)

// PartialFailure means provisioning failed and the compensating cleanup also
// failed: registry rows or a partition may be left behind and need operator
// intervention.
type PartialFailure struct {
	RoutingKey string
	Err        error
	CleanupErr error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("partial provisioning of %q, manual cleanup required: %v (cleanup: %v)", e.RoutingKey, e.Err, e.CleanupErr)
}

func (e *PartialFailure) Unwrap() error {
	return e.Err
}
