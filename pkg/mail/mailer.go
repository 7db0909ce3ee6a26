package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/partsdeskhq/partsdesk-backend/pkg/config"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
)

const mimeBoundary = "partsdesk-mime-boundary"

var (
	errRecipientRequired = errors.New("mail recipient is required")
	errSubjectRequired   = errors.New("mail subject is required")
	errBodyRequired      = errors.New("mail body is required")
)

// Attachment is a file shipped with an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a single outgoing email.
type Message struct {
	To          []string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Sender delivers messages. Implemented by Mailer and by test fakes.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type smtpSendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer delivers email over SMTP using the configured relay.
type Mailer struct {
	cfg    config.NotifierConfig
	logger *logger.Logger
	send   smtpSendFunc
}

// NewMailer constructs an SMTP-backed mailer.
func NewMailer(cfg config.NotifierConfig, logg *logger.Logger) (*Mailer, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, errors.New("smtp host is required")
	}
	if strings.TrimSpace(cfg.FromAddress) == "" {
		return nil, errors.New("mail from address is required")
	}
	return &Mailer{cfg: cfg, logger: logg, send: smtp.SendMail}, nil
}

// Send builds the MIME message and hands it to the SMTP relay.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if err := validateMessage(msg); err != nil {
		return err
	}

	raw, err := buildMessage(m.cfg, msg, time.Now())
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	var auth smtp.Auth
	if m.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", m.cfg.SMTPUser, m.cfg.SMTPPassword, m.cfg.SMTPHost)
	}

	if err := m.send(addr, auth, m.cfg.FromAddress, msg.To, raw); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	if m.logger != nil {
		ctx = m.logger.WithFields(ctx, map[string]any{
			"recipients":  len(msg.To),
			"subject":     msg.Subject,
			"attachments": len(msg.Attachments),
		})
		m.logger.Info(ctx, "email sent")
	}
	return nil
}

func validateMessage(msg Message) error {
	if len(msg.To) == 0 {
		return errRecipientRequired
	}
	for _, to := range msg.To {
		if strings.TrimSpace(to) == "" {
			return errRecipientRequired
		}
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return errSubjectRequired
	}
	if strings.TrimSpace(msg.TextBody) == "" && strings.TrimSpace(msg.HTMLBody) == "" {
		return errBodyRequired
	}
	return nil
}

// buildMessage renders the full RFC 5322 message, multipart when attachments
// or both body flavors are present.
func buildMessage(cfg config.NotifierConfig, msg Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer

	from := cfg.FromAddress
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", cfg.FromName), cfg.FromAddress)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	if cfg.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", cfg.ReplyTo)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	simpleBody := len(msg.Attachments) == 0 && (msg.HTMLBody == "" || msg.TextBody == "")
	if simpleBody {
		contentType := "text/plain; charset=utf-8"
		body := msg.TextBody
		if msg.HTMLBody != "" {
			contentType = "text/html; charset=utf-8"
			body = msg.HTMLBody
		}
		fmt.Fprintf(&buf, "Content-Type: %s\r\n\r\n", contentType)
		buf.WriteString(body)
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mimeBoundary)

	writePart := func(contentType, body string) {
		fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
		fmt.Fprintf(&buf, "Content-Type: %s\r\n\r\n", contentType)
		buf.WriteString(body)
		buf.WriteString("\r\n")
	}

	if msg.TextBody != "" {
		writePart("text/plain; charset=utf-8", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		writePart("text/html; charset=utf-8", msg.HTMLBody)
	}

	for _, att := range msg.Attachments {
		if att.Filename == "" || len(att.Data) == 0 {
			return nil, fmt.Errorf("attachment requires filename and data")
		}
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fmt.Fprintf(&buf, "--%s\r\n", mimeBoundary)
		fmt.Fprintf(&buf, "Content-Type: %s\r\n", contentType)
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n", att.Filename)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")

		encoded := base64.StdEncoding.EncodeToString(att.Data)
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}

	fmt.Fprintf(&buf, "--%s--\r\n", mimeBoundary)
	return buf.Bytes(), nil
}
