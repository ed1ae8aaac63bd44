package scanning

import (
	"fmt"
	"strings"
)

// ReceiptFields contains the structured guess a vision model produced for a
// single receipt image. Every field is optional; the model may fail to read
// any of them.
type ReceiptFields struct {
	MerchantName string      `json:"merchant_name"`
	Date         string      `json:"date"` // YYYY-MM-DD
	Items        []ItemField `json:"items"`
	TotalAmount  float64     `json:"total_amount"`
	TaxID        string      `json:"tax_id"`
	Category     string      `json:"category"`
}

// ItemField is one extracted line item.
type ItemField struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// Scanner defines the interface for receipt scanning operations
type Scanner interface {
	// ScanReceipt analyzes a receipt image/PDF and extracts its fields
	ScanReceipt(imageData []byte, contentType string) (*ReceiptFields, error)
	// Close closes the scanner and releases resources
	Close() error
}

// Categories is the closed label set the model is asked to choose from.
// Stored records are not constrained to it; downstream aggregation buckets
// anything unexpected under "Other".
var Categories = []string{
	"Food",
	"Transport",
	"Shopping",
	"Utility",
	"Healthcare",
	"Entertainment",
	"Other",
}

// receiptScanPrompt is the shared instruction prompt used by all model
// backends for scanning receipts
var receiptScanPrompt = fmt.Sprintf(`You are analyzing a receipt or invoice document. Carefully read all text in the image and extract the following information:

1. **Merchant Name**: The store or business name, usually the largest text at the top of the receipt.

2. **Date**: The transaction or purchase date, converted to ISO 8601 format (YYYY-MM-DD). Common printed formats: MM/DD/YYYY, DD/MM/YYYY, or written dates.

3. **Line Items**: Individual purchased items when clearly visible, each with its name, unit price, and quantity.

4. **Total Amount**: The final total or amount due, usually at the bottom and labeled "TOTAL", "Amount Due", "Grand Total", or similar. Extract only the numeric value.

5. **Tax ID**: The merchant's tax identification number if printed on the receipt.

6. **Category**: Choose exactly ONE from: %s. Pick the category that best matches the type of store or items purchased.

Return ONLY valid JSON in this exact format:
{
  "merchant_name": "Store Name",
  "date": "YYYY-MM-DD",
  "items": [{"name": "Item", "unit_price": 0.00, "quantity": 1}],
  "total_amount": 0.00,
  "tax_id": "123456789",
  "category": "Food"
}

Important:
- The date must be in YYYY-MM-DD format
- Monetary values must be numbers (not strings), with currency symbols removed
- If you cannot find a field, use null for that field
- If items are not clearly itemized, return an empty items array
- Do not include any text before or after the JSON
- Do not use markdown code blocks`, strings.Join(Categories, ", "))
