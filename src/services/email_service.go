package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/budgetflow/backend/src/config"
	"github.com/username/budgetflow/backend/src/logger"
	"github.com/username/budgetflow/backend/src/models"
)

// NewEmailService picks the provider from configuration. Anything
// incomplete falls back to the mock, which only logs.
func NewEmailService() EmailService {
	if config.Cfg == nil {
		logger.L.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		return &SMTPEmailService{
			server:      config.Cfg.SMTPServer,
			port:        config.Cfg.SMTPPort,
			user:        config.Cfg.SMTPUser,
			password:    config.Cfg.SMTPPassword,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	default:
		return &MockEmailService{}
	}
}

func budgetAlertSubject(impact models.BudgetImpact) string {
	return fmt.Sprintf("BudgetFlow: you are over budget for %s", impact.Period)
}

func budgetAlertBody(username string, impact models.BudgetImpact) string {
	return fmt.Sprintf(
		"Hi %s,\n\n"+
			"Your latest statement upload put you over your budget for %s.\n\n"+
			"Available to spend: %s\n"+
			"Spent in this upload: %s\n"+
			"Over budget by: %s\n\n"+
			"Log in to review your transactions and adjust your budget.\n\n"+
			"— BudgetFlow",
		username, impact.Period,
		impact.AvailableToSpend.StringFixed(2),
		impact.TotalSpent.StringFixed(2),
		impact.Remaining.Neg().StringFixed(2),
	)
}

// MailgunEmailService sends via the Mailgun API.
type MailgunEmailService struct {
	mg          *mailgun.MailgunImpl
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) SendBudgetAlertEmail(toEmail, username string, impact models.BudgetImpact) error {
	sender := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	message := s.mg.NewMessage(sender, budgetAlertSubject(impact), budgetAlertBody(username, impact), toEmail)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, id, err := s.mg.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailgun send failed: %w", err)
	}
	logger.L.Info("Budget alert email sent via Mailgun", "to", toEmail, "messageID", id)
	return nil
}

// SMTPEmailService sends via plain SMTP with auth.
type SMTPEmailService struct {
	server      string
	port        int
	user        string
	password    string
	senderEmail string
	senderName  string
}

func (s *SMTPEmailService) SendBudgetAlertEmail(toEmail, username string, impact models.BudgetImpact) error {
	addr := fmt.Sprintf("%s:%d", s.server, s.port)
	auth := smtp.PlainAuth("", s.user, s.password, s.server)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.senderName, s.senderEmail, toEmail, budgetAlertSubject(impact), budgetAlertBody(username, impact)))

	if err := smtp.SendMail(addr, auth, s.senderEmail, []string{toEmail}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	logger.L.Info("Budget alert email sent via SMTP", "to", toEmail)
	return nil
}

// MockEmailService logs instead of sending. Used in development and tests.
type MockEmailService struct{}

func (s *MockEmailService) SendBudgetAlertEmail(toEmail, username string, impact models.BudgetImpact) error {
	logger.L.Info("MOCK EMAIL: budget alert",
		"to", toEmail,
		"username", username,
		"period", impact.Period,
		"overBy", impact.Remaining.Neg().StringFixed(2))
	return nil
}
