package invoice

import (
	"sort"
	"strings"
	"time"
)

// UnspecifiedSeller is the rollup key for records without a seller name
const UnspecifiedSeller = "Sin especificar"

// SellerSales is the per-seller daily total, net of VAT
type SellerSales struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

// ProductSales is the per-product daily rollup
type ProductSales struct {
	Name  string  `json:"name"`
	Qty   float64 `json:"qty"`
	Total float64 `json:"total"`
}

// DailyStats is the statistics bundle for a single analysis date
type DailyStats struct {
	TotalSales     float64        `json:"totalSales"`
	TotalContado   float64        `json:"totalContado"`
	TotalCredito   float64        `json:"totalCredito"`
	DailyItemsSold float64        `json:"dailyItemsSold"`
	CustomerCount  int            `json:"customerCount"`
	BestSeller     string         `json:"bestSeller"`
	TotalItems     int            `json:"totalItems"`
	Customers      []Customer     `json:"customers"`
	SalesBySeller  []SellerSales  `json:"salesBySeller"`
	Products       []ProductSales `json:"products"`
}

// MonthComparison is one row of the three-year comparison series
type MonthComparison struct {
	Month    string  `json:"month"`
	Year2023 float64 `json:"year2023"`
	Year2024 float64 `json:"year2024"`
	Year2025 float64 `json:"year2025"`
}

// ComputeDailyStats reduces the full record set into the statistics bundle
// for analysisDate. It is a pure function: it never mutates its input and
// depends on nothing but its arguments.
func ComputeDailyStats(records []*InvoiceRecord, analysisDate string) DailyStats {
	stats := DailyStats{
		Customers:     []Customer{},
		SalesBySeller: []SellerSales{},
		Products:      []ProductSales{},
	}

	customerMap := make(map[string]*Customer)
	productMap := make(map[string]*ProductSales)
	sellerMap := make(map[string]*SellerSales)

	// Key slices keep first-seen order so the final sort is deterministic
	// regardless of map iteration order.
	var customerKeys, productKeys, sellerKeys []string

	for _, rec := range records {
		if rec.Date != analysisDate {
			continue
		}

		stats.TotalItems++
		stats.TotalSales += rec.TotalExclVAT

		itemsInThisInvoice := rec.ItemCount()
		stats.DailyItemsSold += itemsInThisInvoice

		// Net factor (base / total incl. VAT) prorates tax-inclusive
		// payment amounts into their tax-exclusive share.
		totalWithVAT := rec.TotalExclVAT + rec.TotalVAT
		netFactor := 1.0
		if totalWithVAT > 0 {
			netFactor = rec.TotalExclVAT / totalWithVAT
		}
		stats.TotalContado += rec.AmountPaidCash * netFactor
		stats.TotalCredito += (rec.AmountPaidCard + rec.AmountPaidCredit) * netFactor

		customer, ok := customerMap[rec.CustomerTaxID]
		if !ok {
			customer = &Customer{
				Name:    rec.CustomerName,
				TaxID:   rec.CustomerTaxID,
				Email:   rec.CustomerEmail,
				Address: rec.CustomerAddress,
				Phone:   rec.CustomerPhone,
			}
			customerMap[rec.CustomerTaxID] = customer
			customerKeys = append(customerKeys, rec.CustomerTaxID)
		}
		customer.TotalSpentExclVAT += rec.TotalExclVAT
		customer.PurchaseCount++
		customer.TotalItemsBought += itemsInThisInvoice

		// Contact fields follow the last record that supplies a non-empty
		// value; absence never resets a known value.
		if rec.CustomerEmail != "" {
			customer.Email = rec.CustomerEmail
		}
		if rec.CustomerAddress != "" {
			customer.Address = rec.CustomerAddress
		}
		if rec.CustomerPhone != "" {
			customer.Phone = rec.CustomerPhone
		}

		for _, p := range rec.Products {
			product, ok := productMap[p.Name]
			if !ok {
				product = &ProductSales{Name: p.Name}
				productMap[p.Name] = product
				productKeys = append(productKeys, p.Name)
			}
			product.Qty += p.Quantity
			product.Total += p.TotalExclVAT
		}

		sellerName := strings.TrimSpace(rec.SellerName)
		if sellerName == "" {
			sellerName = UnspecifiedSeller
		}
		seller, ok := sellerMap[sellerName]
		if !ok {
			seller = &SellerSales{Name: sellerName}
			sellerMap[sellerName] = seller
			sellerKeys = append(sellerKeys, sellerName)
		}
		seller.Total += rec.TotalExclVAT
	}

	stats.CustomerCount = len(customerMap)

	for _, key := range customerKeys {
		stats.Customers = append(stats.Customers, *customerMap[key])
	}
	sort.SliceStable(stats.Customers, func(i, j int) bool {
		return stats.Customers[i].TotalSpentExclVAT > stats.Customers[j].TotalSpentExclVAT
	})

	for _, key := range productKeys {
		stats.Products = append(stats.Products, *productMap[key])
	}
	sort.SliceStable(stats.Products, func(i, j int) bool {
		return stats.Products[i].Qty > stats.Products[j].Qty
	})
	if len(stats.Products) > 0 {
		stats.BestSeller = stats.Products[0].Name
	}

	for _, key := range sellerKeys {
		stats.SalesBySeller = append(stats.SalesBySeller, *sellerMap[key])
	}
	sort.SliceStable(stats.SalesBySeller, func(i, j int) bool {
		return stats.SalesBySeller[i].Total > stats.SalesBySeller[j].Total
	})

	return stats
}

// ComputeAnnualSeries produces the month-by-month three-year comparison.
// The 2023 and 2024 columns come straight from the baseline table; the 2025
// column is the baseline figure plus the total of all ingested records
// dated in that calendar month of 2025.
func ComputeAnnualSeries(records []*InvoiceRecord, baseline HistoricalBaseline) []MonthComparison {
	var monthly2025 [12]float64
	for _, rec := range records {
		d, err := time.Parse("2006-01-02", rec.Date)
		if err != nil {
			continue
		}
		if d.Year() == 2025 {
			monthly2025[int(d.Month())-1] += rec.TotalExclVAT
		}
	}

	series := make([]MonthComparison, 0, 12)
	for i, label := range MonthLabels {
		series = append(series, MonthComparison{
			Month:    label,
			Year2023: baseline.Year2023[i],
			Year2024: baseline.Year2024[i],
			Year2025: baseline.Year2025[i] + monthly2025[i],
		})
	}
	return series
}
