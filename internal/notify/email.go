package notify

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailNotifier struct {
	settings SMTPSettings
	to       []string
	sendMail sendMailFunc
}

func NewEmailNotifier(settings SMTPSettings, to []string) *EmailNotifier {
	return &EmailNotifier{settings: settings, to: to, sendMail: smtp.SendMail}
}

func (e *EmailNotifier) Name() string {
	return "email"
}

func (e *EmailNotifier) Notify(ctx context.Context, event MintConfirmed) error {
	if e.settings.Host == "" || len(e.to) == 0 {
		zap.L().Warn("Email not configured, skipping notification", zap.String("itemId", event.ItemID))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	from := e.settings.From
	if from == "" {
		from = e.settings.Username
	}
	var auth smtp.Auth
	if e.settings.Username != "" {
		auth = smtp.PlainAuth("", e.settings.Username, e.settings.Password, e.settings.Host)
	}

	subject, body := EmailContent(event)
	addr := net.JoinHostPort(e.settings.Host, strconv.Itoa(e.settings.Port))
	if err := e.sendMail(addr, auth, from, e.to, buildMessage(from, e.to, subject, body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}
	return nil
}

func EmailContent(event MintConfirmed) (subject, body string) {
	subject = fmt.Sprintf("NFT Mint 完了: %s", event.ItemID)
	body = fmt.Sprintf("NFT ID %s (%s)がMintされました。\n\nCreate NFTを開く： %s", event.ItemID, event.Name, event.CreateNftURL)
	return subject, body
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	sb.WriteString("Subject: " + mime.BEncoding.Encode("UTF-8", subject) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(sb.String())
}
