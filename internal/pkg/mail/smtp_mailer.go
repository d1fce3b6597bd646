package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/docfoxhq/DocFox/internal/pkg/env"
)

type smtpConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

func loadConfig() smtpConfig {
	cfg := smtpConfig{
		Host:     env.GetEnv("SMTP_HOST", ""),
		Port:     env.GetEnv("SMTP_PORT", "587"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		Sender:   env.GetEnv("SMTP_SENDER", ""),
	}
	if cfg.Sender == "" {
		cfg.Sender = "no-reply@docfox.local"
	}
	return cfg
}

// SendMail delivers one HTML email via SMTP. Satisfies notification.Mailer.
// Without SMTP_HOST configured the mail is logged and dropped, so local
// setups work without a mail server.
func SendMail(to, subject, body string) error {
	cfg := loadConfig()

	if cfg.Host == "" {
		log.Infof("[Mail] SMTP_HOST not set, dropping mail to %s (%q)", to, subject)
		return nil
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", cfg.Sender)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(body)

	addr := cfg.Host + ":" + cfg.Port
	if err := smtp.SendMail(addr, auth, cfg.Sender, []string{to}, []byte(msg.String())); err != nil {
		log.Errorf("[Mail] SMTP send to %s via %s failed: %v", to, addr, err)
		return err
	}
	log.Infof("[Mail] Sent mail to %s via %s", to, addr)
	return nil
}
