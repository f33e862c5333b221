package qrbill

import "strings"

// Supported payment part languages.
const (
	LangDE = "de"
	LangFR = "fr"
	LangIT = "it"
	LangEN = "en"
)

// Labels are the captions printed on the receipt and payment part.
type Labels struct {
	Receipt                      string
	PaymentPart                  string
	AccountPayableTo             string
	Reference                    string
	AdditionalInformation        string
	PayableBy                    string
	Currency                     string
	Amount                       string
	AcceptancePoint              string
	PayableByNameAddress         string
	SeparateBeforePaidSymbolText string
}

var labels = map[string]Labels{
	LangDE: {
		Receipt:                      "Empfangsschein",
		PaymentPart:                  "Zahlteil",
		AccountPayableTo:             "Konto / Zahlbar an",
		Reference:                    "Referenz",
		AdditionalInformation:        "Zusätzliche Informationen",
		PayableBy:                    "Zahlbar durch",
		Currency:                     "Währung",
		Amount:                       "Betrag",
		AcceptancePoint:              "Annahmestelle",
		PayableByNameAddress:         "Zahlbar durch (Name/Adresse)",
		SeparateBeforePaidSymbolText: "Vor der Einzahlung abzutrennen",
	},
	LangFR: {
		Receipt:                      "Récépissé",
		PaymentPart:                  "Section paiement",
		AccountPayableTo:             "Compte / Payable à",
		Reference:                    "Référence",
		AdditionalInformation:        "Informations supplémentaires",
		PayableBy:                    "Payable par",
		Currency:                     "Monnaie",
		Amount:                       "Montant",
		AcceptancePoint:              "Point de dépôt",
		PayableByNameAddress:         "Payable par (nom/adresse)",
		SeparateBeforePaidSymbolText: "A détacher avant le versement",
	},
	LangIT: {
		Receipt:                      "Ricevuta",
		PaymentPart:                  "Sezione pagamento",
		AccountPayableTo:             "Conto / Pagabile a",
		Reference:                    "Riferimento",
		AdditionalInformation:        "Informazioni supplementari",
		PayableBy:                    "Pagabile da",
		Currency:                     "Valuta",
		Amount:                       "Importo",
		AcceptancePoint:              "Punto di accettazione",
		PayableByNameAddress:         "Pagabile da (nome/indirizzo)",
		SeparateBeforePaidSymbolText: "Da staccare prima del versamento",
	},
	LangEN: {
		Receipt:                      "Receipt",
		PaymentPart:                  "Payment part",
		AccountPayableTo:             "Account / Payable to",
		Reference:                    "Reference",
		AdditionalInformation:        "Additional information",
		PayableBy:                    "Payable by",
		Currency:                     "Currency",
		Amount:                       "Amount",
		AcceptancePoint:              "Acceptance point",
		PayableByNameAddress:         "Payable by (name/address)",
		SeparateBeforePaidSymbolText: "Separate before paying in",
	},
}

// Language maps an ISO language code to a supported payment part language,
// falling back to English.
func Language(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	if _, ok := labels[code]; ok {
		return code
	}
	return LangEN
}

// LabelsFor returns the captions for a language code.
func LabelsFor(lang string) Labels {
	return labels[Language(lang)]
}
