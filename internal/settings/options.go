package settings

// Option is an entry of a select input.
type Option struct {
	ID   string
	Name string
}

// AdditionalInfoOptions lists the sources of the additional information line.
var AdditionalInfoOptions = []Option{
	{ID: AdditionalInfoInvoiceRef, Name: "Invoice Unique Reference"},
	{ID: AdditionalInfoCustom, Name: "Custom"},
}

// ReferenceTypeOptions lists the sources of the payment reference.
var ReferenceTypeOptions = []Option{
	{ID: ReferenceTypeOrderID, Name: "Order ID"},
	{ID: ReferenceTypeInvoiceNumber, Name: "Invoice Number"},
	{ID: ReferenceTypeCustom, Name: "Custom Reference"},
}

// Countries lists the countries offered for the company address.
var Countries = []Option{
	{ID: "CH", Name: "Switzerland"},
	{ID: "LI", Name: "Liechtenstein"},
	{ID: "AT", Name: "Austria"},
	{ID: "BE", Name: "Belgium"},
	{ID: "CZ", Name: "Czechia"},
	{ID: "DE", Name: "Germany"},
	{ID: "DK", Name: "Denmark"},
	{ID: "ES", Name: "Spain"},
	{ID: "FR", Name: "France"},
	{ID: "GB", Name: "United Kingdom"},
	{ID: "IT", Name: "Italy"},
	{ID: "LU", Name: "Luxembourg"},
	{ID: "NL", Name: "Netherlands"},
	{ID: "PL", Name: "Poland"},
	{ID: "PT", Name: "Portugal"},
	{ID: "SE", Name: "Sweden"},
	{ID: "US", Name: "United States"},
}
