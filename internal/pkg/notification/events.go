package notification

// Event identifies one user-facing notification template
type Event string

const (
	EventVerification        Event = "verification"
	EventPasswordReset       Event = "password_reset"
	EventWelcome             Event = "welcome"
	EventConversionComplete  Event = "conversion_complete"
	EventConversionFailed    Event = "conversion_failed"
	EventSubscriptionUpgrade Event = "subscription_upgrade"
	EventPaymentFailed       Event = "payment_failed"
	EventStorageLimitWarning Event = "storage_limit_warning"
	EventSecurityAlert       Event = "security_alert"
)

// Payload carries the template data for one notification
type Payload struct {
	Username      string
	ActionURL     string
	DocumentName  string
	JobType       string
	ErrorMessage  string
	PlanName      string
	UsedPercent   int
	AlertDetail   string
}
