package alert

import "context"

// DefaultLocation is the simulated address reported when no real position exists.
const DefaultLocation = "123 Main St, New York, NY 10001"

// Locator resolves where the user is.
type Locator interface {
	Locate(ctx context.Context) string
}

// StaticLocator always reports the same address.
type StaticLocator string

// Locate implements Locator.
func (l StaticLocator) Locate(context.Context) string {
	if l == "" {
		return DefaultLocation
	}
	return string(l)
}
