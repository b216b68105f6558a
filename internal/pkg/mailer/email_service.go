package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendWelcome(to, username string) error
}

type emailService struct {
	host       string
	port       int
	email      string
	password   string
	senderName string
}

func NewEmailService(host string, port int, email, password, senderName string) IEmailService {
	return &emailService{
		host:       host,
		port:       port,
		email:      email,
		password:   password,
		senderName: senderName,
	}
}

func (s *emailService) SendWelcome(to, username string) error {
	if s.host == "" {
		// SMTP not configured; registration must not depend on it.
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", s.senderName, s.email))
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Welcome to DocChat")
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Hi <b>%s</b>,</p><p>Your account has been created. Log in with your new credentials to start chatting with your documents.</p>",
		username,
	))

	d := gomail.NewDialer(s.host, s.port, s.email, s.password)
	return d.DialAndSend(m)
}
