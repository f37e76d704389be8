package model

// ConfigurationError reports an invalid rule configuration. Field names
// the offending field so the message can surface directly in a
// rule-authoring UI.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e ConfigurationError) Error() string {
	return e.Message
}
