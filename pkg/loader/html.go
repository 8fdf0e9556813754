package loader

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "p, li, h1, h2, h3, h4, h5, h6, pre, blockquote, td, th, dt, dd"

var mainSelectors = []string{
	"main",
	"article",
	".content",
	"#content",
	".documentation",
	"#documentation",
}

var noisePatterns = []string{
	"Cookie Policy",
	"Accept Cookies",
	"Privacy Policy",
	"Terms of Service",
}

func cleanContent(content string) string {
	// Remove extra whitespace
	content = strings.Join(strings.Fields(content), " ")
	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}
	return strings.TrimSpace(content)
}

// extractMainContent returns the text of the main content area with one
// paragraph per block element, so chunking can split on paragraph breaks.
func extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, footer").Remove()

	root := doc.Find("body")
	for _, selector := range mainSelectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			root = selected.First()
			break
		}
	}

	var paragraphs []string
	root.Find(blockSelector).
		FilterFunction(func(_ int, s *goquery.Selection) bool {
			// Outermost blocks inside root only; nested blocks are covered by
			// their parent.
			return s.ParentsFilteredUntilSelection(blockSelector, root).Length() == 0
		}).
		Each(func(_ int, s *goquery.Selection) {
			if text := cleanContent(s.Text()); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})

	if len(paragraphs) == 0 {
		return cleanContent(root.Text())
	}
	return strings.Join(paragraphs, "\n\n")
}
