package invoice

import "time"

// Product is one invoice line item. It has no lifecycle of its own; it is
// embedded by value in its parent record.
type Product struct {
	Name             string  `json:"name"`
	Quantity         float64 `json:"quantity"`
	UnitPriceExclVAT float64 `json:"unitPriceExclVAT"`
	TotalExclVAT     float64 `json:"totalExclVAT"`
}

// InvoiceRecord represents one digitized invoice. Records are created by the
// ingestion pipeline after extraction and deduplication and are never edited
// or deleted afterwards.
type InvoiceRecord struct {
	ID               string    `json:"id"`
	InvoiceNumber    string    `json:"invoiceNumber"` // deduplication key
	Date             string    `json:"date"`          // YYYY-MM-DD, daily partition key
	CustomerName     string    `json:"customerName"`
	CustomerTaxID    string    `json:"customerTaxId"`
	CustomerEmail    string    `json:"customerEmail,omitempty"`
	CustomerAddress  string    `json:"customerAddress,omitempty"`
	CustomerPhone    string    `json:"customerPhone,omitempty"`
	SellerName       string    `json:"sellerName,omitempty"`
	PaymentMethod    string    `json:"paymentMethod,omitempty"`
	AmountPaidCash   float64   `json:"amountPaidCash,omitempty"`
	AmountPaidCard   float64   `json:"amountPaidCard,omitempty"`
	AmountPaidCredit float64   `json:"amountPaidCredit,omitempty"`
	Products         []Product `json:"products"`
	TotalExclVAT     float64   `json:"totalExclVAT"`
	TotalVAT         float64   `json:"totalVAT"`
	Currency         string    `json:"currency"`
	Timestamp        time.Time `json:"timestamp"`
}

// ItemCount returns the total product units on the invoice
func (r *InvoiceRecord) ItemCount() float64 {
	var count float64
	for _, p := range r.Products {
		count += p.Quantity
	}
	return count
}

// Customer is the per-day aggregation of all records sharing a tax
// identifier. It is derived by the stats engine and never persisted.
type Customer struct {
	Name              string  `json:"name"`
	TaxID             string  `json:"taxId"`
	Email             string  `json:"email,omitempty"`
	Address           string  `json:"address,omitempty"`
	Phone             string  `json:"phone,omitempty"`
	TotalSpentExclVAT float64 `json:"totalSpentExclVAT"`
	PurchaseCount     int     `json:"purchaseCount"`
	TotalItemsBought  float64 `json:"totalItemsBought"`
}
