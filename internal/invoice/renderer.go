// Package invoice renders order invoices and merges them with the QR bill
// payment part into a single downloadable document.
package invoice

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/switzbillz/switzbillz/internal/db"
	"github.com/switzbillz/switzbillz/internal/qrbill"
)

// DefaultPrefix is prepended to invoice numbers when no prefix is configured.
const DefaultPrefix = "IN"

// FormatInvoiceNumber returns the printed invoice number.
//
//	FormatInvoiceNumber("IN", 7) // "IN000007"
func FormatInvoiceNumber(prefix string, number int64) string {
	return fmt.Sprintf("%s%06d", prefix, number)
}

// Renderer draws invoice documents.
type Renderer struct {
	shopName string
	prefix   string
}

// NewRenderer creates a new invoice renderer.
func NewRenderer(shopName, prefix string) *Renderer {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Renderer{shopName: shopName, prefix: prefix}
}

// Prefix returns the invoice number prefix.
func (r *Renderer) Prefix() string {
	return r.prefix
}

var invoiceLabels = map[string]map[string]string{
	qrbill.LangEN: {"invoice": "Invoice", "date": "Invoice date", "order": "Order reference", "description": "Description", "total": "Total", "item": "Order %s", "note": "Please use the attached QR bill for payment."},
	qrbill.LangDE: {"invoice": "Rechnung", "date": "Rechnungsdatum", "order": "Bestellreferenz", "description": "Beschreibung", "total": "Total", "item": "Bestellung %s", "note": "Bitte verwenden Sie für die Zahlung den beiliegenden QR-Einzahlungsschein."},
	qrbill.LangFR: {"invoice": "Facture", "date": "Date de facturation", "order": "Référence de commande", "description": "Description", "total": "Total", "item": "Commande %s", "note": "Veuillez utiliser la QR-facture ci-jointe pour le paiement."},
	qrbill.LangIT: {"invoice": "Fattura", "date": "Data fattura", "order": "Riferimento ordine", "description": "Descrizione", "total": "Totale", "item": "Ordine %s", "note": "Si prega di utilizzare la QR-fattura allegata per il pagamento."},
}

// InvoicePDF renders the invoice of an order.
func (r *Renderer) InvoicePDF(order db.Order, inv db.OrderInvoice) ([]byte, error) {
	labels := invoiceLabels[qrbill.Language(order.Lang)]

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 8, tr(r.shopName), "", 1, "L", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range customerAddress(order) {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr(labels["invoice"]+" "+FormatInvoiceNumber(r.prefix, inv.Number)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(45, 6, tr(labels["date"]), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, inv.CreatedAt.Format("02.01.2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(45, 6, tr(labels["order"]), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(order.Reference), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(130, 7, tr(labels["description"]), "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, tr(labels["total"]), "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(130, 7, tr(fmt.Sprintf(labels["item"], order.Reference)), "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, order.Currency+" "+qrbill.FormatAmount(inv.Total), "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(130, 7, tr(labels["total"]), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, order.Currency+" "+qrbill.FormatAmount(inv.Total), "1", 1, "R", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, tr(labels["note"]), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write invoice PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func customerAddress(order db.Order) []string {
	lines := []string{strings.TrimSpace(order.CustomerFirstname + " " + order.CustomerLastname)}
	street := strings.TrimSpace(order.Address1 + " " + order.Address2)
	if street != "" {
		lines = append(lines, street)
	}
	lines = append(lines, strings.TrimSpace(order.Postcode+" "+order.City), order.CountryIso)
	return lines
}
