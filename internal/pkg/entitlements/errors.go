package entitlements

// DeniedError carries a denial decision across package boundaries so the
// HTTP layer can map Reason onto the right status code.
type DeniedError struct {
	Decision Decision
}

func (e *DeniedError) Error() string {
	return e.Decision.Message
}

// Deny wraps a decision in an error. Callers must only pass denials.
func Deny(d Decision) error {
	return &DeniedError{Decision: d}
}
