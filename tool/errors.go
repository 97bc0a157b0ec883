package tool

import "fmt"

// NotFoundError is returned when a call references an unregistered tool,
// including tools from providers that were unavailable at discovery.
type NotFoundError struct {
	Name string
}

// Error returns a formatted message including the tool name.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool: not found: %s", e.Name)
}

// AlreadyRegisteredError is returned when a local provider registers two
// tools with the same name.
type AlreadyRegisteredError struct {
	Name string
}

// Error returns a formatted message including the duplicate tool name.
func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}
