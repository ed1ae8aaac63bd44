package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SQLiteDB", func() {
	var db *SQLiteDB

	BeforeEach(func() {
		path := filepath.Join(GinkgoT().TempDir(), "test.sqlite")
		var err error
		db, err = NewSQLiteDB(path)
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

		It("should update an existing record on re-save", func() {
			rec := testRecord("test-id", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
			Expect(db.SaveReceipt(rec)).To(Succeed())

			rec.MerchantName = "Walgreens"
			rec.TotalAmount = 42.50
			Expect(db.SaveReceipt(rec)).To(Succeed())

			saved, err := db.GetReceipt("test-id")
			Expect(err).NotTo(HaveOccurred())
			Expect(saved.MerchantName).To(Equal("Walgreens"))
			Expect(saved.TotalAmount).To(Equal(42.50))

			records, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(1))
		})
	})

	Describe("GetReceipt", func() {
		When("the record does not exist", func() {
			It("returns a not-found error", func() {
				_, err := db.GetReceipt("nonexistent")
				Expect(err).To(MatchError(ContainSubstring("receipt not found: nonexistent")))
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
		It("should remove the record", func() {
			Expect(db.SaveReceipt(testRecord("test-id", time.Now().UTC()))).To(Succeed())
			Expect(db.DeleteReceipt("test-id")).To(Succeed())
			_, err := db.GetReceipt("test-id")
			Expect(err).To(HaveOccurred())
		})
	})
})
