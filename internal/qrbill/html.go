package qrbill

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// previewQRSize is the pixel size of the QR code embedded in HTML output.
const previewQRSize = 300

var paymentPartTemplate = template.Must(template.New("payment_part").Parse(`<style>
#qr-bill { box-sizing: border-box; border-collapse: collapse; font-family: Helvetica, Arial, sans-serif; color: #000; }
#qr-bill td { vertical-align: top; padding: 5mm; }
#qr-bill-receipt { width: 52mm; border-right: 0.2mm dashed #000; }
#qr-bill-payment-part { width: 138mm; }
#qr-bill h1 { font-size: 11pt; font-weight: bold; margin: 0 0 5mm 0; }
#qr-bill h2 { font-size: 6pt; font-weight: bold; margin: 2mm 0 0 0; }
#qr-bill p { font-size: 8pt; line-height: 9pt; margin: 0; }
#qr-bill-payment-part p { font-size: 10pt; line-height: 11pt; }
#qr-bill-acceptance-point { text-align: right; }
#qr-bill .qr-bill-amount { display: inline-block; margin-right: 5mm; }
#qr-bill-qr-code { width: 46mm; height: 46mm; }
#qr-bill-blank { display: inline-block; width: 52mm; height: 20mm; border: 0.3mm solid #000; }
</style>
<table id="qr-bill">
<tr>
<td id="qr-bill-receipt">
<h1>{{.Labels.Receipt}}</h1>
<h2>{{.Labels.AccountPayableTo}}</h2>
<p>{{.IBAN}}{{range .Creditor}}<br>{{.}}{{end}}</p>
{{if .Reference}}<h2>{{.Labels.Reference}}</h2>
<p>{{.Reference}}</p>{{end}}
{{if .Debtor}}<h2>{{.Labels.PayableBy}}</h2>
<p>{{range $i, $l := .Debtor}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>
{{else}}<h2>{{.Labels.PayableByNameAddress}}</h2>
<span id="qr-bill-blank"></span>{{end}}
<div><span class="qr-bill-amount"><h2>{{.Labels.Currency}}</h2><p>{{.Currency}}</p></span><span class="qr-bill-amount"><h2>{{.Labels.Amount}}</h2><p>{{.Amount}}</p></span></div>
<h2 id="qr-bill-acceptance-point">{{.Labels.AcceptancePoint}}</h2>
</td>
<td id="qr-bill-payment-part">
<h1>{{.Labels.PaymentPart}}</h1>
<table><tr>
<td><img id="qr-bill-qr-code" src="{{.QRCode}}" alt="QR code">
<div><span class="qr-bill-amount"><h2>{{.Labels.Currency}}</h2><p>{{.Currency}}</p></span><span class="qr-bill-amount"><h2>{{.Labels.Amount}}</h2><p>{{.Amount}}</p></span></div></td>
<td>
<h2>{{.Labels.AccountPayableTo}}</h2>
<p>{{.IBAN}}{{range .Creditor}}<br>{{.}}{{end}}</p>
{{if .Reference}}<h2>{{.Labels.Reference}}</h2>
<p>{{.Reference}}</p>{{end}}
{{if .AdditionalInfo}}<h2>{{.Labels.AdditionalInformation}}</h2>
<p>{{range $i, $l := .AdditionalInfo}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>{{end}}
{{if .Debtor}}<h2>{{.Labels.PayableBy}}</h2>
<p>{{range $i, $l := .Debtor}}{{if $i}}<br>{{end}}{{$l}}{{end}}</p>
{{else}}<h2>{{.Labels.PayableByNameAddress}}</h2>
<span id="qr-bill-blank"></span>{{end}}
</td>
</tr></table>
</td>
</tr>
</table>
`))

type paymentPartView struct {
	Labels         Labels
	QRCode         template.URL
	IBAN           string
	Creditor       []string
	Debtor         []string
	Reference      string
	AdditionalInfo []string
	Currency       string
	Amount         string
}

// PaymentPartHTML renders a non-printable HTML version of the payment part,
// used to preview a bill in the browser. The QR code is embedded as a data URL.
func PaymentPartHTML(bill *Bill, lang string) (string, error) {
	payload, err := bill.Payload()
	if err != nil {
		return "", err
	}

	qr, err := GenerateQRBase64(payload, previewQRSize)
	if err != nil {
		return "", err
	}

	view := paymentPartView{
		Labels:    LabelsFor(lang),
		QRCode:    template.URL(qr),
		IBAN:      FormatIBAN(bill.CreditorInformation.IBAN),
		Reference: bill.PaymentReference.FormattedReference(),
		Currency:  bill.PaymentAmount.Currency,
	}
	if bill.Creditor != nil {
		view.Creditor = bill.Creditor.FullAddress()
	}
	if bill.UltimateDebtor != nil {
		view.Debtor = bill.UltimateDebtor.FullAddress()
	}
	if bill.PaymentAmount.Amount != nil {
		view.Amount = FormatAmount(*bill.PaymentAmount.Amount)
	}
	if info := bill.AdditionalInformation.FormattedString(); info != "" {
		view.AdditionalInfo = strings.Split(info, "\n")
	}

	var buf bytes.Buffer
	if err := paymentPartTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render payment part HTML: %w", err)
	}

	return buf.String(), nil
}
