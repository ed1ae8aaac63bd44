package scanning

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// receiptFieldsSchema is the shape the sanitized model output must conform to
// before it is allowed past the ingestion boundary. No field is required; the
// fallback policies downstream handle absence.
const receiptFieldsSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"merchant_name": {"type": "string"},
		"date": {"type": "string"},
		"total_amount": {"type": "number", "minimum": 0},
		"tax_id": {"type": "string"},
		"category": {"type": "string"},
		"items": {
			"type": "array",
			"items": {
				"type": "object",
				"additionalProperties": false,
				"properties": {
					"name": {"type": "string"},
					"unit_price": {"type": "number", "minimum": 0},
					"quantity": {"type": "integer", "minimum": 1}
				}
			}
		}
	}
}`

var receiptSchema = jsonschema.MustCompileString("receipt.json", receiptFieldsSchema)

// dateFormats are the printed date layouts the models commonly echo back when
// they ignore the ISO instruction.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02-01-2006",
}

// parseReceiptFields converts a raw model reply into validated ReceiptFields.
// The reply is untrusted and untyped: fields may be absent, null, or the
// wrong type. Everything coercible is coerced, everything else is dropped,
// and the sanitized object is checked against the JSON schema so unvalidated
// data never reaches storage or the aggregator.
func parseReceiptFields(text string) (*ReceiptFields, error) {
	raw, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	sanitizeFields(m)

	if err := receiptSchema.Validate(m); err != nil {
		return nil, fmt.Errorf("validating receipt fields: %w", err)
	}

	clean, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("re-encoding sanitized fields: %w", err)
	}
	var fields ReceiptFields
	if err := json.Unmarshal(clean, &fields); err != nil {
		return nil, fmt.Errorf("decoding sanitized fields: %w", err)
	}

	normalizeFields(&fields)
	return &fields, nil
}

// extractJSONObject strips markdown fences and surrounding prose, returning
// the outermost JSON object in the text.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return "", fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return "", fmt.Errorf("invalid JSON object in response")
	}
	return text[start : end+1], nil
}

// sanitizeFields coerces a decoded model reply in place: strings are trimmed,
// numeric strings become numbers, negatives are clamped, and null, empty, or
// unknown members are removed. Numbers stay float64 so the schema validator
// sees plain encoding/json types.
func sanitizeFields(m map[string]any) {
	for _, k := range []string{"merchant_name", "date", "tax_id", "category"} {
		s, ok := m[k].(string)
		if !ok || strings.TrimSpace(s) == "" {
			delete(m, k)
			continue
		}
		m[k] = strings.TrimSpace(s)
	}

	if v, ok := coerceAmount(m["total_amount"]); ok {
		m["total_amount"] = v
	} else {
		delete(m, "total_amount")
	}

	if rawItems, ok := m["items"].([]any); ok {
		items := make([]any, 0, len(rawItems))
		for _, ri := range rawItems {
			im, ok := ri.(map[string]any)
			if !ok {
				continue
			}
			item := map[string]any{}
			if s, ok := im["name"].(string); ok && strings.TrimSpace(s) != "" {
				item["name"] = strings.TrimSpace(s)
			}
			if v, ok := coerceAmount(im["unit_price"]); ok {
				item["unit_price"] = v
			}
			qty := 1.0
			if q, ok := im["quantity"].(float64); ok && q >= 1 {
				qty = math.Floor(q)
			}
			item["quantity"] = qty
			items = append(items, item)
		}
		m["items"] = items
	} else {
		delete(m, "items")
	}

	allowed := map[string]struct{}{
		"merchant_name": {}, "date": {}, "items": {},
		"total_amount": {}, "tax_id": {}, "category": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
		}
	}
}

// coerceAmount accepts a number or a numeric string and returns a
// non-negative float64.
func coerceAmount(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0, true
		}
		return t, true
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(t, "$"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		if f < 0 {
			return 0, true
		}
		return f, true
	}
	return 0, false
}

// normalizeFields settles the typed fields: dates are reformatted to
// YYYY-MM-DD or blanked when unparseable, and the category is canonicalized
// to the known label set with "Other" as the fallback for anything the model
// invented. A blank date is deliberate; the record's creation timestamp
// covers it during aggregation.
func normalizeFields(f *ReceiptFields) {
	if f.Date != "" {
		parsed := false
		for _, layout := range dateFormats {
			if d, err := time.Parse(layout, f.Date); err == nil {
				f.Date = d.Format("2006-01-02")
				parsed = true
				break
			}
		}
		if !parsed {
			f.Date = ""
		}
	}

	if f.Category != "" {
		canonical := ""
		for _, c := range Categories {
			if strings.EqualFold(f.Category, c) {
				canonical = c
				break
			}
		}
		if canonical == "" {
			canonical = "Other"
		}
		f.Category = canonical
	}
}
