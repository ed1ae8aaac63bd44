package receipt

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// testRecord returns a fully populated record for persistence tests.
func testRecord(id string, created time.Time) *Record {
	return &Record{
		ID:           id,
		MerchantName: "CVS Pharmacy",
		Date:         "2024-01-15",
		Items: []Item{
			{Name: "Bandages", UnitPrice: 5.99, Quantity: 2},
			{Name: "Aspirin", UnitPrice: 14.01, Quantity: 1},
		},
		TotalAmount: 25.99,
		TaxID:       "12-3456789",
		Category:    "Healthcare",
		CreatedAt:   created,
		ImageName:   id + "_test.jpg",
		ContentType: "image/jpeg",
	}
}

var _ = Describe("BoltDB", func() {
	var (
		dbPath string
		db     *BoltDB
	)

	BeforeEach(func() {
		dbPath = filepath.Join(GinkgoT().TempDir(), "test.db")
		var err error
		db, err = NewBoltDB(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("SaveReceipt", func() {
		It("should round-trip a full record", func() {
			rec := testRecord("test-id", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
			Expect(db.SaveReceipt(rec)).To(Succeed())

			saved, err := db.GetReceipt("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved).To(Equal(rec))
		})
	})

	Describe("GetReceipt", func() {
		When("the record does not exist", func() {
			It("returns a not-found error", func() {
				_, err := db.GetReceipt("nonexistent")
				Expect(err).To(MatchError(errors.New("receipt not found: nonexistent")))
			})
		})
	})

	Describe("ListReceipts", func() {
		When("records exist", func() {
			BeforeEach(func() {
				Expect(db.SaveReceipt(testRecord("id2", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)))).To(Succeed())
				Expect(db.SaveReceipt(testRecord("id1", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)))).To(Succeed())
			})

			It("should return all records ordered by creation time", func() {
				records, err := db.ListReceipts()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(2))
				Expect(records[0].ID).To(Equal("id1"))
				Expect(records[1].ID).To(Equal("id2"))
			})
		})

		When("no records exist", func() {
			It("should return an empty list", func() {
				records, err := db.ListReceipts()
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(BeEmpty())
			})
		})
	})

	Describe("DeleteReceipt", func() {
		BeforeEach(func() {
			Expect(db.SaveReceipt(testRecord("test-id", time.Now().UTC()))).To(Succeed())
		})

		It("should remove the record", func() {
			Expect(db.DeleteReceipt("test-id")).To(Succeed())
			_, err := db.GetReceipt("test-id")
			Expect(err).To(HaveOccurred())
		})
	})
})
