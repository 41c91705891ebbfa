package footballia

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	isoDateRegex      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	seasonSuffixRegex = regexp.MustCompile(`\s*\d{4}-\d{4}\s*$`)
	yearSuffixRegex   = regexp.MustCompile(`\s*\d{4}\s*$`)
	seasonInURLRegex  = regexp.MustCompile(`-(\d{4}-\d{4})$`)
	seasonRangeRegex  = regexp.MustCompile(`\d{4}-\d{4}`)
	seasonStartRegex  = regexp.MustCompile(`^(\d{4})`)
	punctRegex        = regexp.MustCompile(`['".]`)
	nonAlnumRegex     = regexp.MustCompile(`[^a-z0-9]+`)
)

// flexibleDateLayouts are tried in order against every date candidate on a
// match page. Day and month are unpadded on purpose: Go's reference layouts
// accept both "4/3/1999" and "04/03/1999".
var flexibleDateLayouts = []string{
	"2006-01-02",
	"2/1/2006",
	"2-1-2006",
	"2 January 2006",
	"2 Jan 2006",
}

// extractMatchDate tries the page's known date carriers in order of
// reliability: the playing_date block, schema.org startDate markup, then a
// handful of date-bearing class names.
func extractMatchDate(doc *goquery.Document) (string, bool) {
	var candidates []string
	addAttr := func(sel *goquery.Selection, attr string) {
		if value, ok := sel.Attr(attr); ok && strings.TrimSpace(value) != "" {
			candidates = append(candidates, value)
		}
	}
	addText := func(sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			candidates = append(candidates, text)
		}
	}

	playingDate := doc.Find("div.playing_date").First()
	addAttr(playingDate, "content")
	addText(playingDate)

	addAttr(doc.Find(`meta[itemprop="startDate"]`).First(), "content")

	timeNode := doc.Find(`time[itemprop="startDate"]`).First()
	addAttr(timeNode, "datetime")
	addText(timeNode)

	for _, class := range []string{"date", "game-date", "match-date"} {
		addText(doc.Find("div." + class + ", span." + class).First())
	}

	for _, raw := range candidates {
		if parsed, ok := parseFlexibleDate(raw); ok {
			return parsed, true
		}
	}
	return "", false
}

// parseFlexibleDate normalizes one raw date string to ISO yyyy-mm-dd. After
// the known layouts it falls back to grabbing an embedded ISO date, which
// covers datetime attributes like "2021-08-14T20:00:00+02:00".
func parseFlexibleDate(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	for _, layout := range flexibleDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format("2006-01-02"), true
		}
	}
	if match := isoDateRegex.FindString(value); match != "" {
		return match, true
	}
	return "", false
}

func extractTeam(doc *goquery.Document, itemprop string) (string, string) {
	teamDiv := doc.Find(`div[itemprop="` + itemprop + `"]`).First()
	if teamDiv.Length() == 0 {
		return "Unknown", "unknown"
	}

	name := strings.TrimSpace(teamDiv.Text())
	href, ok := teamDiv.Find("a[href]").First().Attr("href")
	if ok && strings.Contains(href, "/teams/") {
		return name, idFromHref(href, "/teams/", name)
	}
	return name, Slugify(name)
}

// extractCompetition strips trailing season decorations ("1991-1992", a bare
// year) from the competition label. The year pass matches any trailing
// four-digit number, so "Euro 2020" loses its year as well.
func extractCompetition(doc *goquery.Document) (string, bool) {
	for _, class := range []string{"competition", "tournament", "match-competition"} {
		node := doc.Find("div." + class + ", span." + class).First()
		text := strings.TrimSpace(node.Text())
		if text == "" {
			continue
		}
		text = seasonSuffixRegex.ReplaceAllString(text, "")
		text = yearSuffixRegex.ReplaceAllString(text, "")
		return strings.TrimSpace(text), true
	}
	return "", false
}

func seasonFromURL(url string) (string, bool) {
	if m := seasonInURLRegex.FindStringSubmatch(strings.TrimRight(url, "/")); m != nil {
		return m[1], true
	}
	return "", false
}

func seasonFromPage(doc *goquery.Document) (string, bool) {
	text := strings.TrimSpace(doc.Find("span.season").First().Text())
	if text == "" {
		return "", false
	}
	if m := seasonRangeRegex.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

// seasonStartYear reads the leading year of a season label like "1991-92".
func seasonStartYear(text string) (int, bool) {
	m := seasonStartRegex.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

func matchIDFromURL(url string) string {
	url = strings.TrimRight(url, "/")
	if idx := strings.LastIndex(url, "/matches/"); idx >= 0 {
		return url[idx+len("/matches/"):]
	}
	return url
}

func idFromHref(href, marker, fallbackName string) string {
	href = strings.TrimRight(href, "/")
	if idx := strings.LastIndex(href, marker); idx >= 0 {
		if slug := href[idx+len(marker):]; slug != "" {
			return slug
		}
	}
	return Slugify(fallbackName)
}

// Slugify turns a display name into the URL slug footballia uses:
// apostrophes, quotes and dots vanish, every other non-alphanumeric run
// becomes a single dash.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = punctRegex.ReplaceAllString(slug, "")
	slug = nonAlnumRegex.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
