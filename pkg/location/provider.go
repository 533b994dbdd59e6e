package location

import "context"

// Provider interface defines the methods for live location providers.
type Provider interface {
	GetLocation(ctx context.Context) (Coordinate, error)
}

// PermissionChecker gates access to the live provider. On platforms without a
// permission model, AlwaysAllowed can be used.
type PermissionChecker interface {
	// Check reports whether location access is currently granted.
	Check() bool
	// Request prompts for access and reports whether it was granted.
	Request() bool
}

// AlwaysAllowed is a PermissionChecker that grants every request.
type AlwaysAllowed struct{}

func (AlwaysAllowed) Check() bool   { return true }
func (AlwaysAllowed) Request() bool { return true }
