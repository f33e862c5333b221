package qrbill

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
)

func TestGenerateQRPNG(t *testing.T) {
	payload := mustPayload(t)

	data, err := GenerateQRPNG(payload, 300)
	if err != nil {
		t.Fatalf("GenerateQRPNG() error = %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}

	// The center pixel lies on the white cross of the Swiss cross.
	b := img.Bounds()
	r, g, bl, _ := img.At(b.Min.X+b.Dx()/2, b.Min.Y+b.Dy()/2).RGBA()
	if r != 0xffff || g != 0xffff || bl != 0xffff {
		t.Errorf("center pixel = (%d, %d, %d), want white", r, g, bl)
	}
}

func TestGenerateQRBase64(t *testing.T) {
	result, err := GenerateQRBase64(mustPayload(t), 100)
	if err != nil {
		t.Fatalf("GenerateQRBase64() error = %v", err)
	}

	if !strings.HasPrefix(result, "data:image/png;base64,") {
		t.Errorf("GenerateQRBase64() should return data URL, got %q", result[:50])
	}
}

func TestPaymentPartPDF(t *testing.T) {
	for _, lang := range []string{LangDE, LangFR, LangIT, LangEN} {
		t.Run(lang, func(t *testing.T) {
			data, err := PaymentPartPDF(testBill(), lang)
			if err != nil {
				t.Fatalf("PaymentPartPDF() error = %v", err)
			}
			if !bytes.HasPrefix(data, []byte("%PDF-")) {
				t.Errorf("PaymentPartPDF() does not start with a PDF header")
			}
		})
	}
}

func TestPaymentPartPDFInvalidBill(t *testing.T) {
	bill := testBill()
	bill.CreditorInformation.IBAN = ""

	if _, err := PaymentPartPDF(bill, LangEN); err == nil {
		t.Errorf("PaymentPartPDF() error = nil, want error")
	}
}

func TestPaymentPartHTML(t *testing.T) {
	tests := []struct {
		lang     string
		contains []string
	}{
		{LangDE, []string{"Empfangsschein", "Zahlteil", "Konto / Zahlbar an", "Zusätzliche Informationen"}},
		{LangFR, []string{"Récépissé", "Section paiement", "Point de dépôt"}},
		{LangIT, []string{"Ricevuta", "Sezione pagamento", "Pagabile da"}},
		{"rm", []string{"Receipt", "Payment part", "Acceptance point"}},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			html, err := PaymentPartHTML(testBill(), tt.lang)
			if err != nil {
				t.Fatalf("PaymentPartHTML() error = %v", err)
			}

			want := append(tt.contains,
				"CH44 3199 9123 0008 8901 2",
				"21 00000 00003 13947 14300 09017",
				"1 949.75",
				"data:image/png;base64,",
			)
			for _, s := range want {
				if !strings.Contains(html, s) {
					t.Errorf("PaymentPartHTML() should contain %q", s)
				}
			}
		})
	}
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"de", LangDE},
		{"FR", LangFR},
		{"it-CH", LangIT},
		{"en_US", LangEN},
		{"rm", LangEN},
		{"", LangEN},
	}

	for _, tt := range tests {
		if got := Language(tt.code); got != tt.want {
			t.Errorf("Language(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
