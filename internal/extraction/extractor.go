package extraction

// ProductData is a single extracted invoice line item.
type ProductData struct {
	Name             string  `json:"name"`
	Quantity         float64 `json:"quantity"`
	UnitPriceExclVAT float64 `json:"unitPriceExclVAT"`
	TotalExclVAT     float64 `json:"totalExclVAT"`
}

// InvoiceData contains the structured fields extracted from an invoice
// document. An empty InvoiceNumber means no invoice was detected in the file.
type InvoiceData struct {
	InvoiceNumber    string        `json:"invoiceNumber"`
	Date             string        `json:"date"` // YYYY-MM-DD
	CustomerName     string        `json:"customerName"`
	CustomerTaxID    string        `json:"customerTaxId"`
	CustomerEmail    string        `json:"customerEmail,omitempty"`
	CustomerAddress  string        `json:"customerAddress,omitempty"`
	CustomerPhone    string        `json:"customerPhone,omitempty"`
	SellerName       string        `json:"sellerName,omitempty"`
	PaymentMethod    string        `json:"paymentMethod,omitempty"`
	AmountPaidCash   float64       `json:"amountPaidCash,omitempty"`
	AmountPaidCard   float64       `json:"amountPaidCard,omitempty"`
	AmountPaidCredit float64       `json:"amountPaidCredit,omitempty"`
	Products         []ProductData `json:"products"`
	TotalExclVAT     float64       `json:"totalExclVAT"`
	TotalVAT         float64       `json:"totalVAT,omitempty"`
	Currency         string        `json:"currency,omitempty"`
}

// Extractor defines the interface for invoice extraction operations
type Extractor interface {
	// ExtractInvoice analyzes an invoice image/PDF and extracts structured fields
	ExtractInvoice(fileData []byte, contentType string) (*InvoiceData, error)
	// Close closes the extractor and releases resources
	Close() error
}
