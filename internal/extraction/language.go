package extraction

import (
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/zombor/invoice-qc/internal/patterns"
)

var detectOptions = whatlanggo.Options{
	Whitelist: map[whatlanggo.Lang]bool{
		whatlanggo.Eng: true,
		whatlanggo.Deu: true,
	},
}

// germanMarkers are invoice labels that settle the choice when statistical
// detection has too little prose to go on
var germanMarkers = []string{"rechnung", "mwst", "kundennummer", "gesamtwert", "zahlungsbedingungen"}

// DetectLanguage picks the pattern set for text, German or English. English is the default.
func DetectLanguage(text string) patterns.Language {
	if strings.TrimSpace(text) == "" {
		return patterns.English
	}

	lower := strings.ToLower(text)
	hits := 0
	for _, m := range germanMarkers {
		if strings.Contains(lower, m) {
			hits++
		}
	}
	if hits >= 2 {
		return patterns.German
	}

	info := whatlanggo.DetectWithOptions(text, detectOptions)
	if info.Lang == whatlanggo.Deu {
		return patterns.German
	}
	return patterns.English
}
