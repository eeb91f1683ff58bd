package mail

import (
	"fmt"
	"strings"

	"github.com/freezeflowai/hvac-pm-platform/app/models"
	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/env"
)

// SendActivationMail sends the account activation link to a new user.
func SendActivationMail(user *models.User) error {
	link := fmt.Sprintf("%s/activate?token=%s", baseURL(), user.ActivationToken)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your account is almost ready. Click the link below to activate it:</p><p><a href=\"%s\">%s</a></p>",
		user.Name, link, link,
	)
	return SendMail(user.Email, "Activate your account", body)
}

// SendAppointmentReminder mails the client ahead of a scheduled visit.
func SendAppointmentReminder(appt *models.Appointment, client *models.Client, companyName string) error {
	if client.Email == "" {
		return nil
	}
	when := appt.ScheduledStart.Format("Monday, January 2 at 3:04 PM")
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>This is a reminder that %s has a %s visit scheduled for <strong>%s</strong>.</p>",
		client.FirstName, companyName, strings.ReplaceAll(appt.JobType, "_", " "), when,
	)
	if appt.Description != "" {
		body += fmt.Sprintf("<p>%s</p>", appt.Description)
	}
	subject := fmt.Sprintf("Upcoming service visit on %s", appt.ScheduledStart.Format("Jan 2"))
	return SendMail(client.Email, subject, body)
}

// SendInvoiceMail delivers an issued invoice to the client.
func SendInvoiceMail(inv *models.Invoice, client *models.Client, companyName string) error {
	if client.Email == "" {
		return fmt.Errorf("client %d has no email address", client.ID)
	}
	var rows strings.Builder
	for _, item := range inv.Items {
		rows.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>",
			item.Description, item.Quantity, FormatCents(item.UnitPriceCents), FormatCents(item.AmountCents()),
		))
	}
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Please find invoice <strong>%s</strong> from %s below.</p>"+
			"<table border=\"1\" cellpadding=\"4\"><tr><th>Description</th><th>Qty</th><th>Unit</th><th>Amount</th></tr>%s</table>"+
			"<p>Subtotal: %s<br>Tax: %s<br><strong>Total: %s</strong></p>",
		client.FirstName, inv.Number, companyName, rows.String(),
		FormatCents(inv.SubtotalCents), FormatCents(inv.TaxCents), FormatCents(inv.TotalCents),
	)
	subject := fmt.Sprintf("Invoice %s from %s", inv.Number, companyName)
	return SendMail(client.Email, subject, body)
}

// SendLowStockMail alerts company admins when a part crosses its reorder level.
func SendLowStockMail(to string, part *models.Part) error {
	body := fmt.Sprintf(
		"<p>Part <strong>%s</strong> (SKU %s) is down to %d units, at or below its reorder level of %d.</p>",
		part.Name, part.SKU, part.QuantityOnHand, part.ReorderThreshold,
	)
	return SendMail(to, fmt.Sprintf("Low stock: %s", part.Name), body)
}

// FormatCents renders an integer cent amount as a dollar string.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func baseURL() string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base
}
