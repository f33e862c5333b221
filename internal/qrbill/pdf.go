package qrbill

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Payment part geometry in millimetres.
const (
	PaymentPartHeight = 105.0
	receiptWidth      = 62.0
	partWidth         = 148.0
	partMargin        = 5.0
	qrCodeSide        = 46.0
	amountSectionY    = 68.0
	acceptanceY       = 82.0

	titleFontSize   = 11.0
	headingFontSize = 6.0
	valueFontSize   = 10.0
	receiptValueFS  = 8.0
	lineHeight      = 3.5
	headingHeight   = 3.0

	fontFamily = "Helvetica"
)

// PaymentPartPDF renders the receipt and payment part of a bill on an A4 page
// and returns the PDF document.
func PaymentPartPDF(bill *Bill, lang string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPage()

	if err := RenderPaymentPart(pdf, bill, lang); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write payment part PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// RenderPaymentPart draws the receipt and payment part of a bill on the
// bottom 105 mm of the current page of pdf.
func RenderPaymentPart(pdf *gofpdf.Fpdf, bill *Bill, lang string) error {
	payload, err := bill.Payload()
	if err != nil {
		return err
	}

	png, err := GenerateQRPNG(payload, DefaultQRSize)
	if err != nil {
		return err
	}

	_, pageHeight := pdf.GetPageSize()
	w := &partWriter{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		labels: LabelsFor(lang),
		top:    pageHeight - PaymentPartHeight,
	}

	w.separators()
	w.receipt(bill)
	w.paymentPart(bill, png, fmt.Sprintf("qrbill-%d-%s", pdf.PageNo(), bill.PaymentReference.Reference))

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render payment part: %w", err)
	}
	return nil
}

type partWriter struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	labels Labels
	top    float64
	y      float64
}

func (w *partWriter) separators() {
	pdf := w.pdf
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.1)
	pdf.SetDashPattern([]float64{1, 1}, 0)
	pdf.Line(0, w.top, receiptWidth+partWidth, w.top)
	pdf.Line(receiptWidth, w.top, receiptWidth, w.top+PaymentPartHeight)
	pdf.SetDashPattern([]float64{}, 0)

	pdf.SetFont(fontFamily, "", headingFontSize)
	pdf.SetXY(0, w.top-headingHeight)
	pdf.CellFormat(receiptWidth+partWidth, headingHeight, w.tr(w.labels.SeparateBeforePaidSymbolText), "", 0, "C", false, 0, "")
}

func (w *partWriter) receipt(bill *Bill) {
	x := partMargin
	width := receiptWidth - 2*partMargin

	w.title(x, w.labels.Receipt)
	w.y = w.top + partMargin + 7

	w.heading(x, width, w.labels.AccountPayableTo)
	w.value(x, width, FormatIBAN(bill.CreditorInformation.IBAN), receiptValueFS)
	w.addressLines(x, width, bill.Creditor, receiptValueFS)
	w.y += lineHeight

	if ref := bill.PaymentReference.FormattedReference(); ref != "" {
		w.heading(x, width, w.labels.Reference)
		w.value(x, width, ref, receiptValueFS)
		w.y += lineHeight
	}

	if bill.UltimateDebtor != nil {
		w.heading(x, width, w.labels.PayableBy)
		w.addressLines(x, width, bill.UltimateDebtor, receiptValueFS)
	} else {
		w.heading(x, width, w.labels.PayableByNameAddress)
		cornerMarks(w.pdf, x, w.y, 52, 20)
	}

	w.amount(x, w.top+amountSectionY, bill, 30, 22, 10)

	w.pdf.SetFont(fontFamily, "B", headingFontSize)
	w.pdf.SetXY(x, w.top+acceptanceY)
	w.pdf.CellFormat(width, headingHeight, w.tr(w.labels.AcceptancePoint), "", 0, "R", false, 0, "")
}

func (w *partWriter) paymentPart(bill *Bill, png []byte, imageName string) {
	left := receiptWidth + partMargin
	w.title(left, w.labels.PaymentPart)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	w.pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(png))
	w.pdf.ImageOptions(imageName, left, w.top+partMargin+12, qrCodeSide, qrCodeSide, false, opts, 0, "")

	w.amount(left, w.top+amountSectionY, bill, 40, 22, 15)

	x := left + qrCodeSide + partMargin
	width := receiptWidth + partWidth - partMargin - x
	w.y = w.top + partMargin

	w.heading(x, width, w.labels.AccountPayableTo)
	w.value(x, width, FormatIBAN(bill.CreditorInformation.IBAN), valueFontSize)
	w.addressLines(x, width, bill.Creditor, valueFontSize)
	w.y += lineHeight

	if ref := bill.PaymentReference.FormattedReference(); ref != "" {
		w.heading(x, width, w.labels.Reference)
		w.value(x, width, ref, valueFontSize)
		w.y += lineHeight
	}

	if info := bill.AdditionalInformation.FormattedString(); info != "" {
		w.heading(x, width, w.labels.AdditionalInformation)
		for _, line := range strings.Split(info, "\n") {
			w.value(x, width, line, valueFontSize)
		}
		w.y += lineHeight
	}

	if bill.UltimateDebtor != nil {
		w.heading(x, width, w.labels.PayableBy)
		w.addressLines(x, width, bill.UltimateDebtor, valueFontSize)
	} else {
		w.heading(x, width, w.labels.PayableByNameAddress)
		cornerMarks(w.pdf, x, w.y, 65, 25)
	}
}

func (w *partWriter) title(x float64, text string) {
	w.pdf.SetFont(fontFamily, "B", titleFontSize)
	w.pdf.SetXY(x, w.top+partMargin)
	w.pdf.CellFormat(0, 5, w.tr(text), "", 0, "L", false, 0, "")
}

func (w *partWriter) heading(x, width float64, text string) {
	w.pdf.SetFont(fontFamily, "B", headingFontSize)
	w.pdf.SetXY(x, w.y)
	w.pdf.CellFormat(width, headingHeight, w.tr(text), "", 0, "L", false, 0, "")
	w.y += headingHeight + 0.5
}

func (w *partWriter) value(x, width float64, text string, size float64) {
	w.pdf.SetFont(fontFamily, "", size)
	w.pdf.SetXY(x, w.y)
	w.pdf.MultiCell(width, size*0.42, w.tr(text), "", "L", false)
	w.y = w.pdf.GetY()
}

func (w *partWriter) addressLines(x, width float64, addr Address, size float64) {
	if addr == nil {
		return
	}
	for _, line := range addr.FullAddress() {
		w.value(x, width, line, size)
	}
}

// amount draws the currency and amount headings and values at y. When the
// bill has an open amount a corner-marked box is drawn instead of the value.
func (w *partWriter) amount(x, y float64, bill *Bill, boxWidth, boxOffset, boxHeight float64) {
	pdf := w.pdf

	pdf.SetFont(fontFamily, "B", headingFontSize)
	pdf.SetXY(x, y)
	pdf.CellFormat(boxOffset-2, headingHeight, w.tr(w.labels.Currency), "", 0, "L", false, 0, "")
	pdf.SetXY(x+boxOffset-10, y)
	pdf.CellFormat(boxWidth, headingHeight, w.tr(w.labels.Amount), "", 0, "L", false, 0, "")

	pdf.SetFont(fontFamily, "", valueFontSize)
	pdf.SetXY(x, y+headingHeight+1)
	pdf.CellFormat(boxOffset-2, lineHeight, bill.PaymentAmount.Currency, "", 0, "L", false, 0, "")

	if bill.PaymentAmount.Amount == nil {
		cornerMarks(pdf, x+boxOffset-10, y+headingHeight+1, boxWidth, boxHeight)
		return
	}
	pdf.SetXY(x+boxOffset-10, y+headingHeight+1)
	pdf.CellFormat(boxWidth, lineHeight, FormatAmount(*bill.PaymentAmount.Amount), "", 0, "L", false, 0, "")
}

// cornerMarks draws the four 3 mm corners of a blank field.
func cornerMarks(pdf *gofpdf.Fpdf, x, y, w, h float64) {
	const l = 3.0
	pdf.SetLineWidth(0.3)
	pdf.Line(x, y, x+l, y)
	pdf.Line(x, y, x, y+l)
	pdf.Line(x+w-l, y, x+w, y)
	pdf.Line(x+w, y, x+w, y+l)
	pdf.Line(x, y+h, x+l, y+h)
	pdf.Line(x, y+h-l, x, y+h)
	pdf.Line(x+w-l, y+h, x+w, y+h)
	pdf.Line(x+w, y+h-l, x+w, y+h)
	pdf.SetLineWidth(0.1)
}
