package utils

import (
	"fmt"
	"html"
	"strings"

	"github.com/raushankrgupta/fish-scout/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	log "github.com/sirupsen/logrus"
)

// dealAlertSize caps how many recommendations go into one alert.
const dealAlertSize = 5

// Mailer sends notification emails through SendGrid
type Mailer struct {
	apiKey string
	from   *mail.Email
}

// NewMailer returns a mailer, or nil when apiKey is empty
func NewMailer(apiKey string) *Mailer {
	if apiKey == "" {
		return nil
	}
	return &Mailer{
		apiKey: apiKey,
		from:   mail.NewEmail("Fish Scout", "no-reply@fishscout.local"),
	}
}

// SendEmail sends an email using SendGrid
func (m *Mailer) SendEmail(toName, toEmail, subject, textContent, htmlContent string) error {
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(m.from, subject, to, textContent, htmlContent)
	client := sendgrid.NewSendClient(m.apiKey)

	response, err := client.Send(message)
	if err != nil {
		log.WithError(err).Errorf("Error sending email to %s", toEmail)
		return err
	}

	if response.StatusCode >= 400 {
		log.Errorf("SendGrid API Error: Status Code %d, Body: %s", response.StatusCode, response.Body)
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	log.Infof("Email sent successfully to %s. Status Code: %d", toEmail, response.StatusCode)
	return nil
}

// SendDealAlert mails the best recommendations for keyword to toEmail
func (m *Mailer) SendDealAlert(toEmail, keyword string, recs []models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	subject, text, htmlBody := DealAlertContent(keyword, recs)
	return m.SendEmail("", toEmail, subject, text, htmlBody)
}

// DealAlertContent renders the subject, plain text and HTML bodies of an alert
func DealAlertContent(keyword string, recs []models.Recommendation) (string, string, string) {
	if len(recs) > dealAlertSize {
		recs = recs[:dealAlertSize]
	}
	subject := fmt.Sprintf("[Fish Scout] %d picks for %s", len(recs), keyword)

	var text, body strings.Builder
	body.WriteString("<ul>")
	for _, r := range recs {
		fmt.Fprintf(&text, "%s | ¥%s | %.1f | %s\n", r.Title, r.Price, r.Score, r.Reason)
		fmt.Fprintf(&body, "<li><b>%s</b> ¥%s (score %.1f)<br>%s</li>",
			html.EscapeString(r.Title), html.EscapeString(r.Price), r.Score, html.EscapeString(r.Reason))
	}
	body.WriteString("</ul>")
	return subject, text.String(), body.String()
}
