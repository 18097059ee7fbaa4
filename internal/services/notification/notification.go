// Package notification sends best-effort loan status updates to applicants
// over email and SMS. Delivery never blocks or fails a verification flow; the
// orchestrator hands changes to a queue-backed notifier and workers deliver
// them asynchronously.
package notification

import (
	"fmt"
	"log"
	"net/http"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"github.com/veriloan/backend/internal/config"
	"github.com/veriloan/backend/internal/models"
)

// Service delivers loan status notifications
type Service struct {
	smtp        config.SMTPConfig
	sms         config.SMSConfig
	frontendURL string
	httpClient  *http.Client
}

// NewService creates a notification service from config
func NewService(cfg *config.Config) *Service {
	return &Service{
		smtp:        cfg.SMTP,
		sms:         cfg.SMS,
		frontendURL: cfg.FrontendURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// statusMessages maps loan statuses to applicant-facing copy
var statusMessages = map[models.LoanStatus]string{
	models.LoanStatusPending:           "Your loan application has been received and is awaiting verification.",
	models.LoanStatusDocumentsRequired: "Part of your verification is complete. Please finish the remaining documents or the video interview.",
	models.LoanStatusProcessing:        "All verifications are complete. Your application is now under review.",
	models.LoanStatusApproved:          "Congratulations! Your loan application has been approved.",
	models.LoanStatusRejected:          "We are sorry, your loan application was not approved at this time.",
}

// SendLoanStatusEmail emails the applicant about a loan status change
func (s *Service) SendLoanStatusEmail(user *models.User, loan *models.LoanApplication) error {
	message, ok := statusMessages[loan.Status]
	if !ok {
		message = fmt.Sprintf("Your loan application status changed to %s.", loan.Status)
	}
	subject := fmt.Sprintf("Loan Application %s: %s", loan.Reference, strings.ReplaceAll(string(loan.Status), "_", " "))
	trackLink := fmt.Sprintf("%s/loans/%s", s.frontendURL, loan.ID)

	body := fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: Arial, sans-serif; line-height: 1.6; }
			.container { max-width: 600px; margin: 0 auto; padding: 20px; }
			.header { background-color: #1D4ED8; color: white; padding: 10px; text-align: center; }
			.content { padding: 20px; }
			.button { display: inline-block; background-color: #1D4ED8; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>VeriLoan</h1>
			</div>
			<div class="content">
				<h2>Hello %s,</h2>
				<p>%s</p>
				<p>Application reference: <strong>%s</strong></p>
				<p><a href="%s" class="button">Track Your Application</a></p>
				<p>Best regards,<br>The VeriLoan Team</p>
			</div>
		</div>
	</body>
	</html>
	`, user.Name, message, loan.Reference, trackLink)

	return s.sendEmail(user.Email, subject, body)
}

// SendLoanStatusSMS texts the applicant about a loan status change. Skipped
// silently when the user has no phone number or SMS is not configured.
func (s *Service) SendLoanStatusSMS(user *models.User, loan *models.LoanApplication) error {
	if user.Phone == "" {
		return nil
	}
	if s.sms.AccountSID == "" || s.sms.AuthToken == "" || s.sms.FromNumber == "" {
		log.Println("SMS service not configured, skipping SMS notification")
		return nil
	}

	message, ok := statusMessages[loan.Status]
	if !ok {
		message = fmt.Sprintf("Your loan application status changed to %s.", loan.Status)
	}
	body := fmt.Sprintf("VeriLoan: %s Ref %s", message, loan.Reference)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.sms.BaseURL, s.sms.AccountSID)
	form := url.Values{}
	form.Set("To", user.Phone)
	form.Set("From", s.sms.FromNumber)
	form.Set("Body", body)

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.SetBasicAuth(s.sms.AccountSID, s.sms.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("SMS provider returned status %d", resp.StatusCode)
	}
	return nil
}

// sendEmail sends an email with HTML content
func (s *Service) sendEmail(toEmail, subject, htmlBody string) error {
	if s.smtp.Host == "" || s.smtp.Username == "" || s.smtp.Password == "" {
		log.Println("Email service not configured properly. Check environment variables.")
		return fmt.Errorf("email service not configured")
	}

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	from := fmt.Sprintf("From: VeriLoan <%s>\n", s.smtp.FromEmail)
	to := fmt.Sprintf("To: %s\n", toEmail)
	subjectLine := fmt.Sprintf("Subject: %s\n", subject)

	message := []byte(from + to + subjectLine + mime + htmlBody)

	auth := smtp.PlainAuth("", s.smtp.Username, s.smtp.Password, s.smtp.Host)
	addr := fmt.Sprintf("%s:%s", s.smtp.Host, s.smtp.Port)

	return smtp.SendMail(addr, auth, s.smtp.FromEmail, []string{toEmail}, message)
}
