package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// parseInvoiceJSON parses the JSON response from the model
func parseInvoiceJSON(text string) (*InvoiceData, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var data InvoiceData
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	// An empty invoice number is not an error: it means no invoice was
	// detected in the document and the caller drops the file.
	data.InvoiceNumber = strings.TrimSpace(data.InvoiceNumber)

	data.Date = normalizeDate(data.Date)
	data.CustomerName = strings.TrimSpace(data.CustomerName)
	data.CustomerTaxID = strings.TrimSpace(data.CustomerTaxID)

	return &data, nil
}

// normalizeDate converts common date formats to YYYY-MM-DD. A date that
// cannot be parsed is returned unchanged; the ingestion date filter will
// discard the record.
func normalizeDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return date
	}

	if parsed, err := time.Parse("2006-01-02", date); err == nil {
		return parsed.Format("2006-01-02")
	}

	formats := []string{
		"2006/01/02",
		"01/02/2006",
		"02-01-2006",
	}
	for _, format := range formats {
		if d, err := time.Parse(format, date); err == nil {
			return d.Format("2006-01-02")
		}
	}

	return date
}
