package mode

// Mode is the answer depth requested for a turn.
type Mode string

// Search mode constants.
const (
	// Basic answers from provider snippets and a few crawled pages.
	Basic Mode = "basic"
	// Pro is reserved for deeper multi-step research.
	Pro Mode = "pro"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Basic || m == Pro
}

// OrDefault returns Basic for empty or unknown modes.
func (m Mode) OrDefault() Mode {
	if m.IsValid() {
		return m
	}
	return Basic
}
