// utils/email.go
package utils

import (
	"fmt"
	"html"
	"strings"

	"teashop/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// EmailSender delivers one message through a transactional email provider.
type EmailSender interface {
	Send(toEmail, subject, htmlBody, textBody string) error
}

type postmarkSender struct {
	client *postmark.Client
	from   string
}

func (s *postmarkSender) Send(toEmail, subject, htmlBody, textBody string) error {
	_, err := s.client.SendEmail(postmark.Email{
		From:     s.from,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	return nil
}

type sendgridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (s *sendgridSender) Send(toEmail, subject, htmlBody, textBody string) error {
	msg := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", toEmail), textBody, htmlBody)
	resp, err := s.client.Send(msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// logSender only logs; used in development.
type logSender struct{}

func (logSender) Send(toEmail, subject, _, _ string) error {
	Log.WithField("to", toEmail).WithField("subject", subject).Info("email (not sent)")
	return nil
}

// NewEmailSender picks the provider implementation by name.
func NewEmailSender(provider, postmarkToken, sendgridKey, from, fromName string) (EmailSender, error) {
	switch provider {
	case "postmark":
		if postmarkToken == "" {
			return nil, fmt.Errorf("EMAIL_POSTMARK_TOKEN is not set")
		}
		return &postmarkSender{client: postmark.NewClient(postmarkToken, ""), from: from}, nil
	case "sendgrid":
		if sendgridKey == "" {
			return nil, fmt.Errorf("EMAIL_SENDGRID_KEY is not set")
		}
		return &sendgridSender{client: sendgrid.NewSendClient(sendgridKey), from: mail.NewEmail(fromName, from)}, nil
	case "log":
		return logSender{}, nil
	}
	return nil, fmt.Errorf("unknown email provider %q", provider)
}

// EmailService renders the shop's transactional emails and hands them to a sender
type EmailService struct {
	sender  EmailSender
	baseURL string
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(sender EmailSender, baseURL string) *EmailService {
	return &EmailService{sender: sender, baseURL: strings.TrimRight(baseURL, "/")}
}

// SendEmail sends a basic email to the specified recipient
func (es *EmailService) SendEmail(toEmail, subject, htmlContent string) error {
	return es.sender.Send(toEmail, subject, htmlContent, stripTags(htmlContent))
}

// SendVerificationEmail sends an email verification link to the user
func (es *EmailService) SendVerificationEmail(toEmail, name, token string) error {
	link := fmt.Sprintf("%s/verify?token=%s", es.baseURL, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Please verify your email by clicking on the following link: <a href=\"%s\">Verify Email</a></p>",
		html.EscapeString(name), link,
	)
	return es.SendEmail(toEmail, "Verify your email", body)
}

// SendPasswordResetEmail sends a one-hour password reset link.
func (es *EmailService) SendPasswordResetEmail(toEmail, name, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", es.baseURL, token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Someone asked to reset your password. The link below is valid for one hour.</p><p><a href=\"%s\">Reset password</a></p><p>If this wasn't you, ignore this email.</p>",
		html.EscapeString(name), link,
	)
	return es.SendEmail(toEmail, "Reset your password", body)
}

// SendOrderConfirmation tells the buyer the order is paid.
func (es *EmailService) SendOrderConfirmation(order *models.Order) error {
	var lines strings.Builder
	for _, it := range order.Items {
		fmt.Fprintf(&lines, "<li>%d × %s - $%.2f</li>", it.Quantity, html.EscapeString(it.Name), it.LineTotal)
	}
	body := fmt.Sprintf(
		"<p>Dear %s,</p><p>Thank you for your order %s.</p><ul>%s</ul><p>Postage: $%.2f<br>Total: <strong>$%.2f</strong> (includes GST of $%.2f)</p><p>Receipt: %s</p>",
		html.EscapeString(order.Buyer.Name), order.ID.Hex(), lines.String(),
		order.Postage, order.Total, order.GSTTotal, order.Receipt.Number,
	)
	return es.SendEmail(order.Buyer.Email, "Order confirmation", body)
}

// SendDeliveryNotice tells the buyer the parcel has been delivered.
func (es *EmailService) SendDeliveryNotice(order *models.Order) error {
	body := fmt.Sprintf(
		"<p>Dear %s,</p><p>Your order %s has been delivered to %s, %s. Enjoy your tea!</p>",
		html.EscapeString(order.Buyer.Name), order.ID.Hex(),
		html.EscapeString(order.Delivery.Address.Line1), html.EscapeString(order.Delivery.Address.Suburb),
	)
	return es.SendEmail(order.Buyer.Email, "Your order has been delivered", body)
}

// SendRefundSucceeded confirms a refund after cancellation.
func (es *EmailService) SendRefundSucceeded(order *models.Order) error {
	body := fmt.Sprintf(
		"<p>Dear %s,</p><p>Your order %s has been cancelled and $%.2f has been refunded to your card. It can take 5-10 business days to appear.</p>",
		html.EscapeString(order.Buyer.Name), order.ID.Hex(), order.Total,
	)
	return es.SendEmail(order.Buyer.Email, "Your refund is on its way", body)
}

// SendRefundFailed tells the buyer the refund needs manual handling.
func (es *EmailService) SendRefundFailed(order *models.Order) error {
	body := fmt.Sprintf(
		"<p>Dear %s,</p><p>Your order %s has been cancelled, but we could not refund $%.2f automatically. Our team will process the refund manually and contact you.</p>",
		html.EscapeString(order.Buyer.Name), order.ID.Hex(), order.Total,
	)
	return es.SendEmail(order.Buyer.Email, "About your refund", body)
}

func stripTags(s string) string {
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '<':
			in = true
		case r == '>':
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return html.UnescapeString(b.String())
}
