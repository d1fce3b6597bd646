package notification

import (
	"github.com/gofiber/fiber/v2/log"

	"github.com/docfoxhq/DocFox/app/models"
)

// Mailer abstracts email delivery so tests can capture sends
type Mailer func(to, subject, body string) error

// Dispatcher sends user notifications asynchronously. Delivery is strictly
// best-effort: failures are logged and swallowed, never surfaced to the
// operation that triggered them.
type Dispatcher struct {
	mailer Mailer
	async  bool
}

func NewDispatcher(mailer Mailer) *Dispatcher {
	return &Dispatcher{mailer: mailer, async: true}
}

// NewSyncDispatcher delivers inline instead of in a goroutine (tests)
func NewSyncDispatcher(mailer Mailer) *Dispatcher {
	return &Dispatcher{mailer: mailer}
}

// Send renders and delivers one notification to a user
func (d *Dispatcher) Send(user *models.User, event Event, payload Payload) {
	if payload.Username == "" {
		payload.Username = user.Name
	}

	mail, err := Render(event, payload)
	if err != nil {
		log.Errorf("[Notification] Failed to render %s for user %d: %v", event, user.ID, err)
		return
	}

	deliver := func() {
		if err := d.mailer(user.Email, mail.Subject, mail.Body); err != nil {
			log.Errorf("[Notification] Failed to deliver %s to user %d: %v", event, user.ID, err)
		}
	}

	if d.async {
		go deliver()
	} else {
		deliver()
	}
}

// JobCompleted implements the conversion manager's notifier hook
func (d *Dispatcher) JobCompleted(user *models.User, job *models.ConversionJob) {
	d.Send(user, EventConversionComplete, Payload{
		JobType:      job.Type,
		DocumentName: job.UUID,
		ActionURL:    job.ResultURL,
	})
}

// JobFailed implements the conversion manager's notifier hook
func (d *Dispatcher) JobFailed(user *models.User, job *models.ConversionJob) {
	d.Send(user, EventConversionFailed, Payload{
		JobType:      job.Type,
		DocumentName: job.UUID,
		ErrorMessage: job.ErrorMessage,
	})
}
