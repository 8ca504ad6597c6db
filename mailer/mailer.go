package mailer

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"dealtracker/config"
	"dealtracker/models"
	"dealtracker/services"
	"dealtracker/storage"
)

// Mailer sends the daily new-low digest to subscribers via SendGrid.
type Mailer struct {
	cfg    config.EmailConfig
	store  storage.Store
	client *sendgrid.Client
}

func New(cfg config.EmailConfig, store storage.Store) (*Mailer, error) {
	if cfg.SendGridKey == "" {
		return nil, fmt.Errorf("SENDGRID_API_KEY not set")
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("EMAIL_SENDER not set")
	}
	return &Mailer{
		cfg:    cfg,
		store:  store,
		client: sendgrid.NewSendClient(cfg.SendGridKey),
	}, nil
}

// BuildContent renders the plain-text and HTML bodies for a digest.
func BuildContent(digest *services.Digest, maxDeals int) (plain, htmlBody string) {
	lows := services.NewLows(digest.Deals, maxDeals)
	if len(lows) == 0 {
		msg := "No new low deals today."
		return msg, "<p>" + msg + "</p>"
	}

	var pb, hb strings.Builder
	pb.WriteString("Today's new low prices:\n\n")
	hb.WriteString("<h2>Today's new low prices</h2><ul>")
	for _, d := range lows {
		pb.WriteString(fmt.Sprintf("- %s: %s (%s)\n  %s\n", d.Title, d.Price, d.Category, d.URL))
		hb.WriteString(fmt.Sprintf(
			`<li><a href="%s">%s</a> <strong>%s</strong>`,
			html.EscapeString(d.URL), html.EscapeString(d.Title), html.EscapeString(d.Price),
		))
		if d.OrigPrice != "" {
			hb.WriteString(" <del>" + html.EscapeString(d.OrigPrice) + "</del>")
		}
		hb.WriteString(" <em>" + html.EscapeString(d.Category) + "</em></li>")
	}
	hb.WriteString("</ul>")
	return pb.String(), hb.String()
}

// SendDigest mails the digest to every subscriber. Per-recipient failures
// are logged and do not stop the remaining sends.
func (m *Mailer) SendDigest(ctx context.Context, digest *services.Digest) error {
	subs, err := m.store.Subscribers(ctx)
	if err != nil {
		return fmt.Errorf("load subscribers: %w", err)
	}
	if len(subs) == 0 {
		log.Println("No subscribers, skipping digest email")
		return nil
	}

	plain, htmlBody := BuildContent(digest, m.cfg.MaxDeals)
	subject := fmt.Sprintf("New Low Deals for %s", digest.Date)
	from := mail.NewEmail("Deal Tracker", m.cfg.Sender)

	var failed int
	for _, sub := range subs {
		if err := m.sendOne(ctx, from, sub, subject, plain, htmlBody); err != nil {
			failed++
			log.Printf("Failed to email %s: %v", sub.Email, err)
		}
	}
	log.Printf("Digest emailed to %d of %d subscribers", len(subs)-failed, len(subs))
	if failed == len(subs) {
		return fmt.Errorf("all %d digest sends failed", failed)
	}
	return nil
}

func (m *Mailer) sendOne(ctx context.Context, from *mail.Email, sub models.Subscriber, subject, plain, htmlBody string) error {
	to := mail.NewEmail("", sub.Email)
	msg := mail.NewSingleEmail(from, subject, to, plain, htmlBody)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
