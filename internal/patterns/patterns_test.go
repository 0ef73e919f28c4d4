package patterns_test

import (
	"os"
	"path/filepath"

	"github.com/zombor/invoice-qc/internal/patterns"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Default library", func() {
	It("supports german and english", func() {
		Expect(patterns.Default().Languages()).To(Equal([]patterns.Language{patterns.German, patterns.English}))
	})

	It("appends the english rules after the german ones", func() {
		de, err := patterns.Default().Lookup(patterns.German)
		Expect(err).NotTo(HaveOccurred())
		en, err := patterns.Default().Lookup(patterns.English)
		Expect(err).NotTo(HaveOccurred())
		Expect(len(de)).To(BeNumerically(">", len(en)))
		Expect(de[len(de)-len(en)].Pattern.String()).To(Equal(en[0].Pattern.String()))
	})

	It("rejects an unknown language", func() {
		_, err := patterns.Default().Lookup("fr")
		Expect(err).To(MatchError(patterns.ErrUnsupportedLanguage))
	})

	It("tries the anchored net total before the generic one", func() {
		de, err := patterns.Default().Lookup(patterns.German)
		Expect(err).NotTo(HaveOccurred())
		text := "Netto 5,00\nGesamtwert EUR 100,00"
		for _, rule := range de {
			if rule.Field != "net_total" {
				continue
			}
			v, ok := rule.Find(text)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal("100,00"))
			break
		}
	})
})

var _ = Describe("ParseLanguage", func() {
	It("normalizes case and whitespace", func() {
		lang, err := patterns.ParseLanguage(" DE ")
		Expect(err).NotTo(HaveOccurred())
		Expect(lang).To(Equal(patterns.German))
	})

	It("fails for an unknown tag", func() {
		_, err := patterns.ParseLanguage("xx")
		Expect(err).To(MatchError(patterns.ErrUnsupportedLanguage))
	})
})

var _ = Describe("Rule.Find", func() {
	var lib *patterns.Library

	BeforeEach(func() {
		var err error
		lib, err = patterns.Parse([]byte(`
languages:
  en:
    rules:
      - field: total
        pattern: 'Total:\s*(\d+)'
      - field: last_total
        pattern: 'Total:\s*(\d+)'
        first_match_wins: false
      - field: number
        pattern: 'Invoice\s*(Number|No)[:\s]*(\w+)'
`))
		Expect(err).NotTo(HaveOccurred())
	})

	rule := func(field string) patterns.Rule {
		rules, err := lib.Lookup(patterns.English)
		Expect(err).NotTo(HaveOccurred())
		for _, r := range rules {
			if r.Field == field {
				return r
			}
		}
		Fail("no rule for " + field)
		return patterns.Rule{}
	}

	const text = "page 1 Total: 10\npage 2 total: 20"

	It("takes the first occurrence by default", func() {
		v, ok := rule("total").Find(text)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("10"))
	})

	It("takes the last occurrence when first_match_wins is false", func() {
		v, ok := rule("last_total").Find(text)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("20"))
	})

	It("returns the last non-empty capture group", func() {
		v, ok := rule("number").Find("Invoice No: ABC123")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("ABC123"))
	})

	It("reports no match", func() {
		_, ok := rule("number").Find("nothing here")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Parse", func() {
	It("rejects an invalid pattern", func() {
		_, err := patterns.Parse([]byte("languages:\n  en:\n    rules:\n      - field: x\n        pattern: '(['\n"))
		Expect(err).To(HaveOccurred())
	})

	It("rejects a rule without a field", func() {
		_, err := patterns.Parse([]byte("languages:\n  en:\n    rules:\n      - pattern: 'x'\n"))
		Expect(err).To(MatchError(ContainSubstring("missing field")))
	})

	It("rejects an unknown fallback", func() {
		_, err := patterns.Parse([]byte("languages:\n  de:\n    fallback: en\n    rules: []\n"))
		Expect(err).To(MatchError(ContainSubstring("unknown fallback")))
	})

	It("rejects an empty document", func() {
		_, err := patterns.Parse([]byte("{}"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Load", func() {
	It("reads a library from disk", func() {
		path := filepath.Join(GinkgoT().TempDir(), "patterns.yaml")
		Expect(os.WriteFile(path, []byte("languages:\n  fr:\n    rules:\n      - field: invoice_number\n        pattern: 'Facture\\s+(\\S+)'\n"), 0644)).To(Succeed())
		lib, err := patterns.Load(path)
		Expect(err).NotTo(HaveOccurred())
		lang, err := lib.ParseLanguage("fr")
		Expect(err).NotTo(HaveOccurred())
		Expect(lang).To(Equal(patterns.Language("fr")))
	})

	It("fails for a missing file", func() {
		_, err := patterns.Load(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
		Expect(err).To(HaveOccurred())
	})
})
