package parse

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pable/hltv-harvester/internal/model"
)

var matchURLPattern = regexp.MustCompile(`/matches/(\d+)/`)

// ParseResults parses one results-listing page into the entries it names.
// Only entries bearing a timestamp attribute are selected — this is what
// suppresses the listing's duplicated "featured matches" block, which
// repeats the first few real entries without that attribute.
func ParseResults(html string) ([]model.ResultsEntry, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, wrapParseErr("results", "document", err)
	}

	var entries []model.ResultsEntry
	var firstErr error

	doc.Find("div.result-con[data-zonedgrouping-entry-unix]").Each(func(_ int, sel *goquery.Selection) {
		if firstErr != nil {
			return
		}

		ts, ok := sel.Attr("data-zonedgrouping-entry-unix")
		if !ok {
			return
		}
		tsMs, err := atoi64(ts)
		if err != nil {
			firstErr = wrapParseErr("results", "timestamp", err)
			return
		}

		href, ok := sel.Find("a.a-reset").First().Attr("href")
		if !ok {
			firstErr = wrapParseErr("results", "entry href", errMissingHref)
			return
		}
		m := matchURLPattern.FindStringSubmatch(href)
		if m == nil {
			firstErr = wrapParseErr("results", "entry href: "+href, errMalformedMatchURL)
			return
		}
		matchID, err := atoi64(m[1])
		if err != nil {
			firstErr = wrapParseErr("results", "match id", err)
			return
		}

		forfeitHint := sel.Find(".forfeit-notice, .wo").Length() > 0

		entries = append(entries, model.ResultsEntry{
			MatchID:     matchID,
			URL:         href,
			ForfeitHint: forfeitHint,
			TimestampMs: tsMs,
		})
	})

	if firstErr != nil {
		return nil, firstErr
	}
	return entries, nil
}
