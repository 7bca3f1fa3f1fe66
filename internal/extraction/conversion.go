package extraction

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	_ "golang.org/x/image/webp" // Register WEBP decoder
)

// invoiceScanPrompt is the shared prompt used by all LLM providers for extracting invoices
const invoiceScanPrompt = `You are analyzing an invoice document. Carefully read all text in the image and extract the following information:

1. **Invoice Number**: The business identifier of the invoice, usually labeled "Factura", "Invoice", "No.", or similar. If the document is not an invoice, use an empty string.

2. **Date**: The invoice date, converted to ISO 8601 format (YYYY-MM-DD).

3. **Customer**: Full customer name and tax identifier (RUT, Cedula, NIT, VAT ID). Also extract email, address, and phone number when present.

4. **Seller**: Locate the specific row labeled "Vendedor", "Cajero", "Seller", or "Cashier" and extract that exact name.

5. **Payment**: The payment method description (e.g. "Efectivo", "Tarjeta", "Mixto"). If the invoice shows a MIXED payment, split the amounts into amountPaidCash, amountPaidCard, and amountPaidCredit.

6. **Products**: Every line item with name, quantity, unit price excluding VAT, and line total excluding VAT. Calculate the VAT-exclusive values if they are not explicit.

7. **Totals**: The invoice total excluding VAT, the total VAT amount, and the currency code (e.g. USD, EUR, CLP, MXN).

Return ONLY valid JSON in this exact format:
{
  "invoiceNumber": "",
  "date": "YYYY-MM-DD",
  "customerName": "",
  "customerTaxId": "",
  "customerEmail": "",
  "customerAddress": "",
  "customerPhone": "",
  "sellerName": "",
  "paymentMethod": "",
  "amountPaidCash": 0.00,
  "amountPaidCard": 0.00,
  "amountPaidCredit": 0.00,
  "products": [{"name": "", "quantity": 0, "unitPriceExclVAT": 0.00, "totalExclVAT": 0.00}],
  "totalExclVAT": 0.00,
  "totalVAT": 0.00,
  "currency": ""
}

Important:
- The date must be in YYYY-MM-DD format
- All amounts must be numbers (not strings)
- Omit fields you cannot find rather than guessing
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// pdfToImage converts a PDF to a PNG image
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	// Render the first page (most invoices are single page)
	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// imageToPNG converts a JPEG or WEBP image to PNG
func imageToPNG(imageData []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// convertToPNG converts PDFs and non-PNG images to PNG format
// Returns the PNG data and a boolean indicating if conversion occurred
func convertToPNG(fileData []byte, mimeType string) ([]byte, bool, error) {
	if mimeType == "application/pdf" {
		pngData, err := pdfToImage(fileData)
		if err != nil {
			return nil, false, fmt.Errorf("converting PDF to image: %w", err)
		}
		return pngData, true, nil
	} else if mimeType != "image/png" {
		pngData, err := imageToPNG(fileData)
		if err != nil {
			return nil, false, fmt.Errorf("converting image to PNG: %w", err)
		}
		return pngData, true, nil
	}
	// Already PNG, return as-is
	return fileData, false, nil
}

// prepareImageData normalizes the MIME type and converts the document to PNG if needed
// Returns the final image data, the MIME type to use, and whether conversion occurred
func prepareImageData(fileData []byte, contentType string) ([]byte, string, bool, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg" // default
	}

	finalImageData, converted, err := convertToPNG(fileData, mimeType)
	if err != nil {
		return nil, "", false, err
	}

	// After conversion the data is always PNG
	return finalImageData, "image/png", converted, nil
}
