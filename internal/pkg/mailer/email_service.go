package mailer

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("smtp is not configured")

// Attachment is an in-memory file attached to an outgoing message.
type Attachment struct {
	Filename string
	Data     []byte
}

type IEmailService interface {
	Configured() bool
	SendReport(toEmail, patientInitials, verifyURL string, pdf Attachment) error
}

// Sender delivers a composed message; *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	sender      Sender
	senderEmail string
	senderName  string
	configured  bool
}

func NewEmailService(host string, port int, username, password, senderEmail, senderName string) IEmailService {
	return &emailService{
		sender:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
		senderName:  senderName,
		configured:  host != "" && senderEmail != "",
	}
}

// NewEmailServiceWithSender is used by tests and alternative transports.
func NewEmailServiceWithSender(sender Sender, senderEmail, senderName string) IEmailService {
	return &emailService{
		sender:      sender,
		senderEmail: senderEmail,
		senderName:  senderName,
		configured:  sender != nil && senderEmail != "",
	}
}

func (s *emailService) Configured() bool {
	return s.configured
}

func (s *emailService) SendReport(toEmail, patientInitials, verifyURL string, pdf Attachment) error {
	if !s.configured {
		return ErrNotConfigured
	}

	m := gomail.NewMessage()
	if s.senderName != "" {
		m.SetAddressHeader("From", s.senderEmail, s.senderName)
	} else {
		m.SetHeader("From", s.senderEmail)
	}
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Aman AI consultation report %s", patientInitials))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Consultation report</h2>
			<p>The consultation report for patient <b>%s</b> is attached.</p>
			<p>The document can be verified at:</p>
			<p><a href="%s">%s</a></p>
		</div>
	`, patientInitials, verifyURL, verifyURL)
	m.SetBody("text/html", body)

	data := pdf.Data
	m.Attach(pdf.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}))

	if err := s.sender.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send report to %s: %v\n", toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] Report sent to %s\n", toEmail)
	return nil
}
