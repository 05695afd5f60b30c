package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendNewLeadEmail(ctx context.Context, toEmail string, lead LeadContact, adminURL string) error {
	content, err := renderNewLeadEmail(lead, adminURL)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectNewLeadFmt, lead.ServiceType, lead.City, lead.State), content)
}

func (s *SMTPSender) SendLeadAssignedEmail(ctx context.Context, toEmail, companyName string, lead LeadContact, remainingCredits int) error {
	content, err := renderLeadAssignedEmail(companyName, lead, remainingCredits)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadAssignedFmt, lead.ServiceType, lead.City), content)
}

func (s *SMTPSender) SendLeadPurchasedEmail(ctx context.Context, toEmail, companyName string, lead LeadContact, amountCents int64) error {
	content, err := renderLeadPurchasedEmail(companyName, lead, amountCents)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadPurchasedFmt, lead.ServiceType, lead.City), content)
}

func (s *SMTPSender) SendOversoldAlertEmail(ctx context.Context, toEmail, companyName string, lead LeadSummary, amountCents int64, adminURL string) error {
	content, err := renderOversoldEmail(companyName, lead, amountCents, adminURL)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectOversoldFmt, lead.ID), content)
}

func (s *SMTPSender) SendLeadAvailableEmail(ctx context.Context, toEmail, companyName string, lead LeadSummary, priceCents int64, purchaseURL string) error {
	content, err := renderLeadAvailableEmail(companyName, lead, priceCents, purchaseURL)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectLeadAvailableFmt, lead.LeadType, lead.City, lead.State), content)
}

func (s *SMTPSender) SendCreditsGrantedEmail(ctx context.Context, toEmail, companyName string, amount, balance int) error {
	content, err := renderCreditsGrantedEmail(companyName, amount, balance)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectCreditsGranted, content)
}
