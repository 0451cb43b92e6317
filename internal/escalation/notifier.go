// Package escalation notifies the sales desk when the automated pipeline
// cannot understand a buyer. A nil notifier is a valid no-op.
package escalation

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"

	"shrimpquote_backend/internal/session"
	"shrimpquote_backend/platform/config"
	"shrimpquote_backend/platform/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

type escalationData struct {
	Sender       string
	Message      string
	ReceivedAt   string
	History      []historyEntry
	HistoryCount int
}

type historyEntry struct {
	Role string
	Text string
	At   string
}

type Notifier struct {
	host     string
	port     int
	username string
	password string
	from     string
	to       string
	log      *logger.Logger
}

func NewNotifier(cfg config.MailConfig, log *logger.Logger) *Notifier {
	if !cfg.IsMailEnabled() {
		return nil
	}
	return &Notifier{
		host:     cfg.GetSMTPHost(),
		port:     cfg.GetSMTPPort(),
		username: cfg.GetSMTPUser(),
		password: cfg.GetSMTPPassword(),
		from:     cfg.GetMailFrom(),
		to:       cfg.GetSalesDeskAddress(),
		log:      log,
	}
}

// Escalate mails the buyer's message and recent history to the sales desk.
func (n *Notifier) Escalate(ctx context.Context, sender, text string, history []session.Message) error {
	if n == nil {
		return nil
	}

	data := escalationData{
		Sender:       sender,
		Message:      text,
		ReceivedAt:   time.Now().UTC().Format(time.RFC3339),
		HistoryCount: len(history),
	}
	for _, m := range history {
		data.History = append(data.History, historyEntry{
			Role: m.Role,
			Text: m.Text,
			At:   m.At.Format("15:04:05"),
		})
	}

	content, err := renderEscalation(data)
	if err != nil {
		return err
	}

	msg := gomail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("escalation from: %w", err)
	}
	if err := msg.To(n.to); err != nil {
		return fmt.Errorf("escalation to: %w", err)
	}
	msg.Subject(fmt.Sprintf("Chat sin resolver de %s", sender))
	msg.SetBodyString(gomail.TypeTextHTML, content)

	client, err := gomail.NewClient(n.host,
		gomail.WithPort(n.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(n.username),
		gomail.WithPassword(n.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("escalation client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("escalation send: %w", err)
	}

	n.log.Info("escalation mailed", "sender", sender, "history", len(history))
	return nil
}

func renderEscalation(data escalationData) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/escalation.html")
	if err != nil {
		return "", fmt.Errorf("parse escalation template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render escalation template: %w", err)
	}
	return buf.String(), nil
}
