package service

import (
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/donatehub-next/internal/config"
	"github.com/donatehub-next/internal/i18n"
)

// EmailService 捐赠通知邮件发送服务（SMTP）
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// DonationEmailInput 捐赠通知邮件输入
type DonationEmailInput struct {
	ReceiptNo       string
	Category        string
	PickupDate      string
	Location        string
	Status          string
	Progress        int
	OtpCode         string
	OtpValidMinutes int
}

// SendDonationSubmittedEmail 发送捐赠提交确认
func (s *EmailService) SendDonationSubmittedEmail(toEmail string, input DonationEmailInput, locale string) error {
	subject, body := buildDonationSubmittedContent(input, locale)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendDonationStatusEmail 发送捐赠状态变更通知
func (s *EmailService) SendDonationStatusEmail(toEmail string, input DonationEmailInput, locale string) error {
	subject, body := buildDonationStatusContent(input, locale)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendDonationOtpEmail 发送取件验证码
func (s *EmailService) SendDonationOtpEmail(toEmail string, input DonationEmailInput, locale string) error {
	subject, body := buildDonationOtpContent(input, locale)
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if strings.TrimSpace(s.cfg.Host) == "" || s.cfg.Port <= 0 || strings.TrimSpace(s.cfg.From) == "" {
		return ErrEmailServiceNotConfigured
	}
	recipient, err := mail.ParseAddress(toEmail)
	if err != nil {
		return ErrInvalidEmail
	}
	msg := composeMessage(senderHeader(s.cfg.From, s.cfg.FromName), recipient.Address, subject, body)
	return s.deliver(recipient.Address, msg)
}

func buildDonationSubmittedContent(input DonationEmailInput, locale string) (string, string) {
	locale = i18n.Normalize(locale)
	subject := i18n.Sprintf(locale, "email.donation_submitted.subject", input.ReceiptNo)
	body := i18n.Sprintf(locale, "email.donation_submitted.body", input.ReceiptNo, input.Category, input.PickupDate, input.Location)
	return subject, body
}

func buildDonationStatusContent(input DonationEmailInput, locale string) (string, string) {
	locale = i18n.Normalize(locale)
	label := StatusLabel(input.Status)
	subject := i18n.Sprintf(locale, "email.donation_status.subject", input.ReceiptNo, label)
	body := i18n.Sprintf(locale, "email.donation_status.body", input.ReceiptNo, label, input.Progress)
	return subject, body
}

func buildDonationOtpContent(input DonationEmailInput, locale string) (string, string) {
	locale = i18n.Normalize(locale)
	subject := i18n.Sprintf(locale, "email.donation_otp.subject", input.ReceiptNo)
	body := i18n.Sprintf(locale, "email.donation_otp.body", input.OtpCode, input.OtpValidMinutes)
	return subject, body
}

func senderHeader(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	return (&mail.Address{Name: name, Address: from}).String()
}

func composeMessage(from, to, subject, body string) []byte {
	headers := [][2]string{
		{"From", from},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("UTF-8", subject)},
		{"Date", time.Now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
		{"Content-Transfer-Encoding", "8bit"},
	}
	var sb strings.Builder
	for _, h := range headers {
		sb.WriteString(h[0])
		sb.WriteString(": ")
		sb.WriteString(h[1])
		sb.WriteString("\r\n")
	}
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(sb.String())
}

const smtpDialTimeout = 10 * time.Second

// deliver 建连（SSL 直连或明文后按需 STARTTLS）、认证并投递单封邮件
func (s *EmailService) deliver(to string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	tlsConfig := &tls.Config{ServerName: s.cfg.Host}

	var conn net.Conn
	var err error
	dialer := &net.Dialer{Timeout: smtpDialTimeout}
	if s.cfg.UseSSL {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", addr, err)
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if s.cfg.UseTLS && !s.cfg.UseSSL {
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if s.cfg.Username != "" || s.cfg.Password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		if isEmailRecipientRejected(err) {
			return fmt.Errorf("%w: %v", ErrEmailRecipientRejected, err)
		}
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp data close: %w", err)
	}
	return client.Quit()
}

var recipientRejectHints = []string{"recipient", "user", "mailbox", "address", "rcpt"}

// isEmailRecipientRejected 550/551/553 且提示与收件人相关时视为地址无效，不再重试
func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 550, 551, 553:
			return true
		}
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if !strings.HasPrefix(message, "550") && !strings.HasPrefix(message, "551") && !strings.HasPrefix(message, "553") {
		return false
	}
	for _, hint := range recipientRejectHints {
		if strings.Contains(message, hint) {
			return true
		}
	}
	return false
}
