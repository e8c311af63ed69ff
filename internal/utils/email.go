package utils

import (
	"fmt"
	"log"
	"strings"

	"github.com/wneessen/go-mail"

	"velora_back_end/internal/models"
)

// Mailer sends transactional order emails over SMTP. A zero-configured
// mailer (no host) is disabled and all sends become no-ops, so handlers
// can call it unconditionally.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	return &Mailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.host != ""
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Sending email to", to)
	return client.DialAndSend(msg)
}

// SendOrderConfirmation mails the customer their order summary.
func (m *Mailer) SendOrderConfirmation(order *models.Order) error {
	if !m.Enabled() {
		return nil
	}
	subject := fmt.Sprintf("✅ Order %s confirmed - Velora", order.OrderID)
	return m.send(order.Customer.Email, subject, orderConfirmationHTML(order))
}

// SendOrderStatusEmail notifies the customer of a status change.
func (m *Mailer) SendOrderStatusEmail(order *models.Order, newStatus string) error {
	if !m.Enabled() {
		return nil
	}
	err := m.send(order.Customer.Email, statusEmailSubject(newStatus), statusEmailHTML(order, newStatus))
	if err != nil {
		log.Printf("❌ Status email failed: %v", err)
		return err
	}
	log.Printf("📧 Status email sent: %s → %s", newStatus, order.Customer.Email)
	return nil
}

func statusEmailSubject(status string) string {
	switch status {
	case models.StatusShipped:
		return "📦 Your order has shipped - Velora"
	case models.StatusDelivered:
		return "🎉 Your order has been delivered - Velora"
	case models.StatusCancelled:
		return "❌ Your order was cancelled - Velora"
	default:
		return "📋 Update on your order - Velora"
	}
}

func orderConfirmationHTML(order *models.Order) string {
	var itemsHTML strings.Builder
	for _, item := range order.Items {
		itemsHTML.WriteString(fmt.Sprintf(`
			<tr>
				<td style="padding: 8px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%.2f</td>
				<td style="padding: 8px; border: 1px solid #ddd;">%.2f</td>
			</tr>`, item.Name, item.Quantity, item.Price, item.Price*float64(item.Quantity)))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Thank you for your order!</h2>
		<p>Hi %s,</p>
		<p>Your order <strong>%s</strong> has been confirmed.</p>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Item</th>
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Qty</th>
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Unit price</th>
					<th style="padding: 8px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>%s</tbody>
			<tfoot>
				<tr>
					<td colspan="3" style="padding: 8px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 8px; font-weight: bold;">%.2f</td>
				</tr>
			</tfoot>
		</table>
		<p style="margin-top: 30px; color: #555;">
			Best regards,<br>
			<strong>The Velora team</strong>
		</p>
	</div>
</body>
</html>`, order.Customer.Name, order.OrderID, itemsHTML.String(), order.TotalAmount)
}

func statusEmailHTML(order *models.Order, status string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Order update</h2>
		<p>Hi %s,</p>
		<p>Your order <strong>%s</strong> is now <strong>%s</strong>.</p>
		<p style="margin-top: 30px; color: #555;">
			Best regards,<br>
			<strong>The Velora team</strong>
		</p>
	</div>
</body>
</html>`, order.Customer.Name, order.OrderID, status)
}
