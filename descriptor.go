package stride

import "encoding/json"

// ToolDescriptor describes one tool discovered from a provider. Descriptors
// are created at registry initialization and are immutable for the process
// lifetime; changing a provider's tool set requires re-initializing the
// registry.
type ToolDescriptor struct {
	// Name is the unique identifier the model uses to request the tool.
	Name string `json:"name"`

	// Description explains what the tool does.
	Description string `json:"description,omitempty"`

	// InputSchema is the JSON Schema the tool's arguments must conform to.
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`

	// Provider names the provider that owns the tool.
	Provider string `json:"provider"`
}
