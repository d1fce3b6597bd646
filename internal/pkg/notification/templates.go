package notification

import (
	"bytes"
	"fmt"
	"html/template"
)

type renderedMail struct {
	Subject string
	Body    string
}

var subjects = map[Event]string{
	EventVerification:        "Verify your email address",
	EventPasswordReset:       "Reset your password",
	EventWelcome:             "Welcome to DocFox",
	EventConversionComplete:  "Your document is ready",
	EventConversionFailed:    "Your conversion failed",
	EventSubscriptionUpgrade: "Your plan has been upgraded",
	EventPaymentFailed:       "Payment failed",
	EventStorageLimitWarning: "You are running out of storage",
	EventSecurityAlert:       "Security alert for your account",
}

var bodies = map[Event]*template.Template{
	EventVerification: mustParse("verification", `
<p>Hi {{.Username}},</p>
<p>Please confirm your email address to activate your account:</p>
<p><a href="{{.ActionURL}}">Verify email</a></p>`),

	EventPasswordReset: mustParse("password_reset", `
<p>Hi {{.Username}},</p>
<p>A password reset was requested for your account. The link is valid for one hour:</p>
<p><a href="{{.ActionURL}}">Reset password</a></p>
<p>If you did not request this, you can ignore this email.</p>`),

	EventWelcome: mustParse("welcome", `
<p>Hi {{.Username}},</p>
<p>Your account is active. Upload a document to get started:</p>
<p><a href="{{.ActionURL}}">Open DocFox</a></p>`),

	EventConversionComplete: mustParse("conversion_complete", `
<p>Hi {{.Username}},</p>
<p>Your {{.JobType}} job for <strong>{{.DocumentName}}</strong> finished successfully.</p>
<p><a href="{{.ActionURL}}">Download the result</a></p>`),

	EventConversionFailed: mustParse("conversion_failed", `
<p>Hi {{.Username}},</p>
<p>Your {{.JobType}} job for <strong>{{.DocumentName}}</strong> could not be completed.</p>
<p>Reason: {{.ErrorMessage}}</p>
<p>Your monthly quota was not charged for this job.</p>`),

	EventSubscriptionUpgrade: mustParse("subscription_upgrade", `
<p>Hi {{.Username}},</p>
<p>Your subscription is now on the <strong>{{.PlanName}}</strong> plan. Enjoy the new limits!</p>`),

	EventPaymentFailed: mustParse("payment_failed", `
<p>Hi {{.Username}},</p>
<p>We could not process your last payment. Please update your payment method to keep your {{.PlanName}} benefits:</p>
<p><a href="{{.ActionURL}}">Update payment method</a></p>`),

	EventStorageLimitWarning: mustParse("storage_limit_warning", `
<p>Hi {{.Username}},</p>
<p>You have used {{.UsedPercent}}% of your storage quota. Delete old documents or upgrade your plan to keep uploading.</p>`),

	EventSecurityAlert: mustParse("security_alert", `
<p>Hi {{.Username}},</p>
<p>{{.AlertDetail}}</p>
<p>If this was not you, please reset your password immediately.</p>`),
}

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

// Render produces the subject and HTML body for an event. Pure function, no
// I/O; the dispatcher handles delivery.
func Render(event Event, payload Payload) (renderedMail, error) {
	tpl, ok := bodies[event]
	if !ok {
		return renderedMail{}, fmt.Errorf("unknown notification event: %q", event)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, payload); err != nil {
		return renderedMail{}, fmt.Errorf("failed to render %s notification: %w", event, err)
	}

	return renderedMail{
		Subject: subjects[event],
		Body:    buf.String(),
	}, nil
}
