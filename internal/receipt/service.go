package receipt

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kzel/receiptwise/internal/scanning"
)

// IDGenerator generates unique IDs for records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

// systemClock provides the current time
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Service handles receipt operations
type Service struct {
	db      DB
	scanner scanning.Scanner
	images  Storage
	ids     IDGenerator
	clock   TimeSource
}

// NewService creates a new Service with UUID IDs and the system clock
func NewService(db DB, scanner scanning.Scanner, images Storage) *Service {
	return &Service{
		db:      db,
		scanner: scanner,
		images:  images,
		ids:     uuidGenerator{},
		clock:   systemClock{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, images Storage, ids IDGenerator, clock TimeSource) *Service {
	return &Service{
		db:      db,
		scanner: scanner,
		images:  images,
		ids:     ids,
		clock:   clock,
	}
}

var (
	filenameJunk   = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	filenameSpaces = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and
// truncating phone-generated long names
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = filenameJunk.ReplaceAllString(base, "")
	base = filenameSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	const maxLen = 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// ProcessReceipt stores the uploaded image, sends it to the vision model,
// and persists the extracted record. The image file is removed again when
// scanning or persisting fails, so no orphan files accumulate.
func (s *Service) ProcessReceipt(filename string, data []byte, contentType string) (*Record, error) {
	id := s.ids.Generate()
	now := s.clock.Now()

	savedName, err := s.images.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving image: %w", err)
	}

	fields, err := s.scanner.ScanReceipt(data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.images.Delete(savedName)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	rec := &Record{
		ID:           id,
		MerchantName: fields.MerchantName,
		Date:         fields.Date,
		Items:        toItems(fields.Items),
		TotalAmount:  fields.TotalAmount,
		TaxID:        fields.TaxID,
		Category:     fields.Category,
		CreatedAt:    now,
		ImageName:    savedName,
		ContentType:  contentType,
	}

	if err := s.db.SaveReceipt(rec); err != nil {
		s.images.Delete(savedName)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	return rec, nil
}

// toItems converts extracted line items into the stored representation
func toItems(fields []scanning.ItemField) []Item {
	if len(fields) == 0 {
		return nil
	}
	items := make([]Item, len(fields))
	for i, f := range fields {
		items[i] = Item{Name: f.Name, UnitPrice: f.UnitPrice, Quantity: f.Quantity}
	}
	return items
}

// GetReceipt retrieves a record by ID
func (s *Service) GetReceipt(id string) (*Record, error) {
	rec, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return rec, nil
}

// ListReceipts returns all records
func (s *Service) ListReceipts() ([]*Record, error) {
	records, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return records, nil
}

// DeleteReceipt removes a record and its stored image
func (s *Service) DeleteReceipt(id string) error {
	rec, err := s.db.GetReceipt(id)
	if err != nil {
		return fmt.Errorf("getting receipt for deletion: %w", err)
	}

	if rec.ImageName != "" {
		if err := s.images.Delete(rec.ImageName); err != nil {
			slog.Warn("Failed to delete image", "image", rec.ImageName, "error", err)
		}
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return fmt.Errorf("deleting receipt from database: %w", err)
	}
	return nil
}

// GetReceiptImage retrieves the stored image for a record
func (s *Service) GetReceiptImage(id string) ([]byte, string, error) {
	rec, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt: %w", err)
	}
	if rec.ImageName == "" {
		return nil, "", fmt.Errorf("receipt has no stored image: %s", id)
	}

	data, err := s.images.Get(rec.ImageName)
	if err != nil {
		return nil, "", fmt.Errorf("getting receipt image: %w", err)
	}

	return data, rec.ContentType, nil
}
