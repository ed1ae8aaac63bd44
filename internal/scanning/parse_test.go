package scanning

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestScanning(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Scanning Suite")
}

var _ = Describe("parseReceiptFields", func() {
	var (
		input  string
		fields *ReceiptFields
		err    error
	)

	JustBeforeEach(func() {
		fields, err = parseReceiptFields(input)
	})

	When("parsing a valid reply", func() {
		BeforeEach(func() {
			input = `{
				"merchant_name": "CVS Pharmacy",
				"date": "2024-01-15",
				"items": [{"name": "Bandages", "unit_price": 5.99, "quantity": 2}],
				"total_amount": 25.99,
				"tax_id": "12-3456789",
				"category": "Healthcare"
			}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse every field", func() {
			Expect(fields.MerchantName).To(Equal("CVS Pharmacy"))
			Expect(fields.Date).To(Equal("2024-01-15"))
			Expect(fields.TotalAmount).To(Equal(25.99))
			Expect(fields.TaxID).To(Equal("12-3456789"))
			Expect(fields.Category).To(Equal("Healthcare"))
			Expect(fields.Items).To(HaveLen(1))
			Expect(fields.Items[0].Name).To(Equal("Bandages"))
			Expect(fields.Items[0].UnitPrice).To(Equal(5.99))
			Expect(fields.Items[0].Quantity).To(Equal(2))
		})
	})

	When("the reply is wrapped in markdown code fences", func() {
		BeforeEach(func() {
			input = "```json\n{\"merchant_name\": \"Test\", \"total_amount\": 10.50}\n```"
		})

		It("should strip the fences and parse", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.MerchantName).To(Equal("Test"))
			Expect(fields.TotalAmount).To(Equal(10.50))
		})
	})

	When("the reply has prose around the JSON object", func() {
		BeforeEach(func() {
			input = `Here is the extracted data: {"merchant_name": "Test"} Let me know if you need more.`
		})

		It("should extract the object", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.MerchantName).To(Equal("Test"))
		})
	})

	When("the reply contains no JSON object", func() {
		BeforeEach(func() {
			input = "I could not read the receipt."
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("no JSON object"))
		})
	})

	When("fields are null or the wrong type", func() {
		BeforeEach(func() {
			input = `{"merchant_name": null, "date": 20240115, "total_amount": "$25.99", "category": null}`
		})

		It("drops what it cannot coerce and keeps what it can", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.MerchantName).To(BeEmpty())
			Expect(fields.Date).To(BeEmpty())
			Expect(fields.TotalAmount).To(Equal(25.99))
			Expect(fields.Category).To(BeEmpty())
		})
	})

	When("the amount is negative", func() {
		BeforeEach(func() {
			input = `{"total_amount": -12.30}`
		})

		It("clamps it to zero", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.TotalAmount).To(BeZero())
		})
	})

	When("the date uses an alternate printed layout", func() {
		BeforeEach(func() {
			input = `{"date": "2024/01/15"}`
		})

		It("reformats it to ISO", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Date).To(Equal("2024-01-15"))
		})
	})

	When("the date is unparseable", func() {
		BeforeEach(func() {
			input = `{"date": "sometime last week"}`
		})

		It("blanks it out", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Date).To(BeEmpty())
		})
	})

	When("the category differs only in case", func() {
		BeforeEach(func() {
			input = `{"category": "FOOD"}`
		})

		It("canonicalizes it", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Category).To(Equal("Food"))
		})
	})

	When("the category is not a known label", func() {
		BeforeEach(func() {
			input = `{"category": "Groceries"}`
		})

		It("falls back to Other", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Category).To(Equal("Other"))
		})
	})

	When("the reply carries extra members", func() {
		BeforeEach(func() {
			input = `{"merchant_name": "Test", "confidence": 0.92, "notes": "blurry photo"}`
		})

		It("silently discards them", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.MerchantName).To(Equal("Test"))
		})
	})

	When("item entries are malformed", func() {
		BeforeEach(func() {
			input = `{"items": ["just a string", {"name": "  Milk  ", "unit_price": "3.20", "quantity": 2.7}, {"quantity": -4}]}`
		})

		It("keeps coercible items and floors quantities", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(fields.Items).To(HaveLen(2))
			Expect(fields.Items[0].Name).To(Equal("Milk"))
			Expect(fields.Items[0].UnitPrice).To(Equal(3.20))
			Expect(fields.Items[0].Quantity).To(Equal(2))
			Expect(fields.Items[1].Quantity).To(Equal(1))
		})
	})
})

var _ = Describe("isHEICFormat", func() {
	It("recognizes a heic ftyp box", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
		data = append(data, make([]byte, 16)...)
		Expect(isHEICFormat(data)).To(BeTrue())
	})

	It("rejects a png header", func() {
		Expect(isHEICFormat([]byte("\x89PNG\r\n\x1a\n        "))).To(BeFalse())
	})
})
