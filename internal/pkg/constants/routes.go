package constants

// Static route constants
const (
	APIV1Prefix      = "/api/v1"
	UploadsRoute     = "/uploads"
	ConversionsRoute = "/conversions"
	AccountRoute     = "/account"
	BillingWebhook   = "/billing/webhook"
)
