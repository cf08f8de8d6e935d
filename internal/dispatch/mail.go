package dispatch

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"
)

// MailChannel delivers submissions to a recipient inbox over SMTP.
type MailChannel struct {
	Addr string // host:port
	From string
	To   string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailChannel creates an SMTP delivery channel. username may be empty for
// unauthenticated relays.
func NewMailChannel(host string, port int, username, password, from, to string) *MailChannel {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &MailChannel{
		Addr: fmt.Sprintf("%s:%d", host, port),
		From: from,
		To:   to,
		auth: auth,
		send: smtp.SendMail,
	}
}

func (m *MailChannel) Type() string {
	return "mail"
}

func (m *MailChannel) Send(ctx context.Context, sub *Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := m.compose(sub)
	if err := m.send(m.Addr, m.auth, m.From, []string{m.To}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// compose renders a plain-text message. Field values were sanitized by the
// pipeline, so they are safe to embed as-is.
func (m *MailChannel) compose(sub *Submission) []byte {
	var b strings.Builder

	subject := fmt.Sprintf("New %s submission", sub.Endpoint)
	if sub.Category != "" {
		subject += fmt.Sprintf(" [%s]", sub.Category)
	}

	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "Submission %s received %s\r\n\r\n", sub.ID, sub.ReceivedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	names := make([]string, 0, len(sub.Fields))
	for name := range sub.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(&b, "%s: %v\r\n", name, sub.Fields[name])
	}

	return []byte(b.String())
}
