package email

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"log"
	"mime"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"path/filepath"

	"github.com/switzbillz/switzbillz/internal/config"
	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/invoice"
	"github.com/switzbillz/switzbillz/internal/qrbill"
)

// ErrNotConfigured is returned when no SMTP host is set and nothing was sent.
var ErrNotConfigured = errors.New("SMTP not configured")

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Client handles email sending with templates and logging
type Client struct {
	config  *config.Config
	queries *db.Queries
	send    sendFunc
}

// Attachment is a file attached to an email.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// SendParams contains parameters for sending a templated email
type SendParams struct {
	OrderID      sql.NullInt64
	Recipient    string
	Subject      string
	TemplateName string
	Data         interface{}
	Attachments  []Attachment
}

// Configured reports whether an SMTP host is set.
func (c *Client) Configured() bool {
	return c.config.SMTPHost != ""
}

// New creates a new email client
func New(cfg *config.Config, queries *db.Queries) *Client {
	return &Client{
		config:  cfg,
		queries: queries,
		send:    smtp.SendMail,
	}
}

// SendTemplated sends an email using an HTML template
func (c *Client) SendTemplated(ctx context.Context, params SendParams) error {
	if c.config.SMTPHost == "" {
		log.Printf("[Email] SMTP not configured, skipping email to %s (template: %s)", params.Recipient, params.TemplateName)
		return ErrNotConfigured
	}

	templatePath := filepath.Join(c.config.WebRoot, "templates", "email", params.TemplateName)
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return c.logEmail(ctx, params, fmt.Errorf("template parse error: %w", err))
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, params.Data); err != nil {
		return c.logEmail(ctx, params, fmt.Errorf("template execution error: %w", err))
	}

	message, err := c.formatMessage(params.Recipient, params.Subject, body.String(), params.Attachments)
	if err != nil {
		return c.logEmail(ctx, params, err)
	}

	var auth smtp.Auth
	if c.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", c.config.SMTPUsername, c.config.SMTPPassword, c.config.SMTPHost)
	}
	addr := fmt.Sprintf("%s:%d", c.config.SMTPHost, c.config.SMTPPort)

	err = c.send(addr, auth, c.config.SMTPFrom, []string{params.Recipient}, message)

	return c.logEmail(ctx, params, err)
}

// formatMessage creates an RFC 2822 message. Emails with attachments are
// sent as multipart/mixed.
func (c *Client) formatMessage(to, subject, body string, attachments []Attachment) ([]byte, error) {
	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\n",
		c.config.SMTPFrom, to, mime.QEncoding.Encode("UTF-8", subject))

	if len(attachments) == 0 {
		fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n\r\n%s", body)
		return msg.Bytes(), nil
	}

	mw := multipart.NewWriter(&msg)
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message body: %w", err)
	}
	if _, err := part.Write([]byte(body)); err != nil {
		return nil, err
	}

	for _, a := range attachments {
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {fmt.Sprintf("%s; name=%q", a.ContentType, a.Filename)},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", a.Filename)},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create attachment %s: %w", a.Filename, err)
		}
		if _, err := part.Write(wrapBase64(a.Content)); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}

// wrapBase64 encodes data in lines of 76 characters.
func wrapBase64(data []byte) []byte {
	encoded := base64.StdEncoding.EncodeToString(data)
	var out bytes.Buffer
	for len(encoded) > 76 {
		out.WriteString(encoded[:76])
		out.WriteString("\r\n")
		encoded = encoded[76:]
	}
	out.WriteString(encoded)
	return out.Bytes()
}

// logEmail logs the email attempt to database
func (c *Client) logEmail(ctx context.Context, params SendParams, err error) error {
	level := "success"
	message := fmt.Sprintf("Email sent to %s: %s", params.Recipient, params.Subject)
	metadata := map[string]interface{}{
		"recipient":   params.Recipient,
		"subject":     params.Subject,
		"template":    params.TemplateName,
		"attachments": len(params.Attachments),
	}

	if err != nil {
		level = "error"
		message = fmt.Sprintf("Failed to send email to %s: %v", params.Recipient, err)
		delete(metadata, "attachments")
		metadata["error"] = err.Error()
	}
	log.Printf("[Email] %s", message)

	// Log to database (don't fail if this errors)
	if c.queries != nil {
		if _, dbErr := c.queries.CreateLog(ctx, db.CreateLogParams{
			Subsystem: "email",
			Level:     level,
			OrderID:   params.OrderID,
			Message:   message,
			Metadata:  db.Metadata(metadata),
		}); dbErr != nil {
			log.Printf("[Email] Warning: failed to log to database: %v", dbErr)
		}
	}

	return err
}

var qrBillSubjects = map[string]string{
	qrbill.LangEN: "Your QR bill for order %s",
	qrbill.LangDE: "Ihr QR-Einzahlungsschein zur Bestellung %s",
	qrbill.LangFR: "Votre QR-facture pour la commande %s",
	qrbill.LangIT: "La sua QR-fattura per l'ordine %s",
}

// SendQRBill emails the invoice and QR bill of an order to the customer.
func (c *Client) SendQRBill(ctx context.Context, order db.Order, doc *invoice.Document, downloadURL string) error {
	lang := qrbill.Language(order.Lang)
	data := map[string]interface{}{
		"Name":          order.CustomerFirstname + " " + order.CustomerLastname,
		"Reference":     order.Reference,
		"InvoiceNumber": doc.InvoiceNumber,
		"Total":         qrbill.FormatAmount(order.TotalPaid),
		"Currency":      order.Currency,
		"DownloadURL":   downloadURL,
		"ShopName":      c.config.ShopName,
		"Lang":          lang,
	}

	return c.SendTemplated(ctx, SendParams{
		OrderID:      sql.NullInt64{Int64: order.ID, Valid: true},
		Recipient:    order.CustomerEmail,
		Subject:      fmt.Sprintf(qrBillSubjects[lang], order.Reference),
		TemplateName: "qr_bill.html",
		Data:         data,
		Attachments: []Attachment{{
			Filename:    invoice.QRFilename(order.ID),
			ContentType: "application/pdf",
			Content:     doc.Content,
		}},
	})
}
