package email

import (
	"fmt"
	"net/smtp"
)

// Service handles email sending via SMTP
type Service struct {
	host    string
	port    string
	from    string
	opsAddr string
}

// NewService creates a new email service. opsAddr receives operational
// alerts such as failed settlement attempts.
func NewService(host, port, from, opsAddr string) *Service {
	return &Service{
		host:    host,
		port:    port,
		from:    from,
		opsAddr: opsAddr,
	}
}

// SendOrderConfirmation sends an order confirmation email
func (s *Service) SendOrderConfirmation(to, orderID, currency string, total int64, items []OrderItem) error {
	shortID := orderID
	if len(orderID) > 8 {
		shortID = orderID[:8]
	}
	subject := fmt.Sprintf("Order confirmation (order %s)", shortID)
	body := BuildOrderConfirmationBody(orderID, currency, total, items)
	return s.send(to, subject, body)
}

// SendSettlementAlert notifies the operations address about a settlement
// problem recorded on an order.
func (s *Service) SendSettlementAlert(orderID, message string) error {
	if s.opsAddr == "" {
		return nil
	}
	subject := fmt.Sprintf("Settlement alert for order %s", orderID)
	body := BuildSettlementAlertBody(orderID, message)
	return s.send(s.opsAddr, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
