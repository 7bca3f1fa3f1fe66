package invoice

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/factura-flow/internal/extraction"
)

// ErrNoSupportedFiles is returned when an uploaded batch contains no file of
// an accepted media type.
var ErrNoSupportedFiles = errors.New("no supported files in batch")

// acceptedMediaTypes are the upload types handed to the extractor; anything
// else is excluded from the batch before extraction is attempted.
var acceptedMediaTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// UploadedFile is one file of an upload batch
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProgressFunc reports how many files of a batch have been attempted so far
type ProgressFunc func(current, total int)

// IDGenerator generates unique IDs for invoice records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates record IDs using UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service holds the in-memory record set and runs the ingestion pipeline.
// It is the only writer of the set; the mutex keeps snapshot reads from
// observing a partially merged batch.
type Service struct {
	db          DB
	extractor   extraction.Extractor
	idGenerator IDGenerator
	timeSource  TimeSource

	mu      sync.Mutex
	records []*InvoiceRecord
}

// NewService creates a new Service with default ID generator and time
// source. The record set is reloaded from the database; a load failure is
// logged and the set starts empty.
func NewService(db DB, extractor extraction.Extractor) *Service {
	return NewServiceWithDeps(db, extractor, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor extraction.Extractor, idGen IDGenerator, timeSrc TimeSource) *Service {
	records, err := db.ListRecords()
	if err != nil {
		slog.Error("Failed to load stored records, starting empty", "error", err)
		records = nil
	}
	return &Service{
		db:          db,
		extractor:   extractor,
		idGenerator: idGen,
		timeSource:  timeSrc,
		records:     records,
	}
}

// Ingest turns an upload batch into deduplicated records appended to the
// store. Files are extracted sequentially: one file finishes (success or
// failure) before the next begins, which keeps first-seen-wins dedup within
// the batch well defined. Per-file problems never abort the batch.
func (s *Service) Ingest(files []UploadedFile, analysisDate string, progress ProgressFunc) ([]*InvoiceRecord, error) {
	accepted := make([]UploadedFile, 0, len(files))
	for _, f := range files {
		if acceptedMediaTypes[f.ContentType] {
			accepted = append(accepted, f)
		}
	}
	if len(accepted) == 0 {
		return nil, ErrNoSupportedFiles
	}

	var added []*InvoiceRecord
	for i, f := range accepted {
		if progress != nil {
			progress(i+1, len(accepted))
		}

		data, err := s.extractor.ExtractInvoice(f.Data, f.ContentType)
		if err != nil {
			slog.Error("Failed to extract invoice",
				"filename", f.Filename,
				"content_type", f.ContentType,
				"file_size", len(f.Data),
				"error", err,
			)
			continue
		}

		// No invoice number means no invoice was detected: a no-match,
		// not an error.
		if data.InvoiceNumber == "" {
			continue
		}

		// Only invoices for the selected analysis date are kept.
		if data.Date != analysisDate {
			slog.Debug("Dropping invoice outside analysis date",
				"invoice_number", data.InvoiceNumber,
				"date", data.Date,
				"analysis_date", analysisDate,
			)
			continue
		}

		if s.hasInvoiceNumber(data.InvoiceNumber) || containsInvoiceNumber(added, data.InvoiceNumber) {
			slog.Debug("Dropping duplicate invoice", "invoice_number", data.InvoiceNumber)
			continue
		}

		added = append(added, newRecord(data, s.idGenerator.Generate(), s.timeSource.Now()))
	}

	if len(added) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(append([]*InvoiceRecord{}, added...), s.records...)
	if err := s.db.ReplaceRecords(s.records); err != nil {
		return added, fmt.Errorf("persisting records: %w", err)
	}
	return added, nil
}

// Records returns a snapshot copy of the record set, newest first
func (s *Service) Records() []*InvoiceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]*InvoiceRecord, len(s.records))
	copy(snapshot, s.records)
	return snapshot
}

// DailyStats computes the statistics bundle for the given analysis date
func (s *Service) DailyStats(analysisDate string) DailyStats {
	return ComputeDailyStats(s.Records(), analysisDate)
}

// AnnualSeries computes the three-year monthly comparison
func (s *Service) AnnualSeries() []MonthComparison {
	return ComputeAnnualSeries(s.Records(), DefaultBaseline)
}

func (s *Service) hasInvoiceNumber(invoiceNumber string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return containsInvoiceNumber(s.records, invoiceNumber)
}

func containsInvoiceNumber(records []*InvoiceRecord, invoiceNumber string) bool {
	for _, r := range records {
		if r.InvoiceNumber == invoiceNumber {
			return true
		}
	}
	return false
}

// newRecord builds an InvoiceRecord from extracted fields
func newRecord(data *extraction.InvoiceData, id string, now time.Time) *InvoiceRecord {
	products := make([]Product, 0, len(data.Products))
	for _, p := range data.Products {
		products = append(products, Product{
			Name:             p.Name,
			Quantity:         p.Quantity,
			UnitPriceExclVAT: p.UnitPriceExclVAT,
			TotalExclVAT:     p.TotalExclVAT,
		})
	}
	return &InvoiceRecord{
		ID:               id,
		InvoiceNumber:    data.InvoiceNumber,
		Date:             data.Date,
		CustomerName:     data.CustomerName,
		CustomerTaxID:    data.CustomerTaxID,
		CustomerEmail:    data.CustomerEmail,
		CustomerAddress:  data.CustomerAddress,
		CustomerPhone:    data.CustomerPhone,
		SellerName:       data.SellerName,
		PaymentMethod:    data.PaymentMethod,
		AmountPaidCash:   data.AmountPaidCash,
		AmountPaidCard:   data.AmountPaidCard,
		AmountPaidCredit: data.AmountPaidCredit,
		Products:         products,
		TotalExclVAT:     data.TotalExclVAT,
		TotalVAT:         data.TotalVAT,
		Currency:         data.Currency,
		Timestamp:        now,
	}
}
