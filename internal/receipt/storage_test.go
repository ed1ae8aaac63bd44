package receipt

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewLocalStorage", func() {
		When("the directory does not exist yet", func() {
			It("creates it", func() {
				path := filepath.Join(GinkgoT().TempDir(), "images")
				_, err := NewLocalStorage(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(path).To(BeADirectory())
			})
		})
	})

	Describe("Save", func() {
		It("writes the image and returns its stored name", func() {
			name, err := storage.Save("abc_receipt.jpg", []byte("image bytes"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("abc_receipt.jpg"))
			Expect(filepath.Join(tmpDir, "abc_receipt.jpg")).To(BeAnExistingFile())
		})
	})

	Describe("Get", func() {
		When("the image exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("abc_receipt.jpg", []byte("image bytes"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns the stored data", func() {
				data, err := storage.Get("abc_receipt.jpg")
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("image bytes"))
			})
		})

		When("the image does not exist", func() {
			It("returns the error", func() {
				_, err := storage.Get("missing.jpg")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("reading file"))
			})
		})
	})

	Describe("Delete", func() {
		When("the image exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("abc_receipt.jpg", []byte("image bytes"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("removes it from disk", func() {
				Expect(storage.Delete("abc_receipt.jpg")).To(Succeed())
				Expect(filepath.Join(tmpDir, "abc_receipt.jpg")).NotTo(BeAnExistingFile())
			})
		})

		When("the image does not exist", func() {
			It("returns the error", func() {
				err := storage.Delete("missing.jpg")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("deleting file"))
			})
		})
	})
})
