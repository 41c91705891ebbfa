package footballia

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestParseFlexibleDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2021-08-14", "2021-08-14", true},
		{"14/8/2021", "2021-08-14", true},
		{"14/08/2021", "2021-08-14", true},
		{"14-08-2021", "2021-08-14", true},
		{"14 August 2021", "2021-08-14", true},
		{"14 Aug 2021", "2021-08-14", true},
		{"2021-08-14T20:00:00+02:00", "2021-08-14", true},
		{"  2021-08-14  ", "2021-08-14", true},
		{"next saturday", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := parseFlexibleDate(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("parseFlexibleDate(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractMatchDate_PrefersPlayingDateContent(t *testing.T) {
	doc := parseHTML(t, `
		<div class="playing_date" content="2004-11-20">20 November 2004</div>
		<div class="date">21 November 2004</div>`)

	got, ok := extractMatchDate(doc)
	if !ok || got != "2004-11-20" {
		t.Fatalf("extractMatchDate = (%q, %v)", got, ok)
	}
}

func TestExtractMatchDate_FallsBackThroughSources(t *testing.T) {
	doc := parseHTML(t, `<time itemprop="startDate" datetime="1999-04-03T16:00:00Z">afternoon</time>`)
	got, ok := extractMatchDate(doc)
	if !ok || got != "1999-04-03" {
		t.Fatalf("extractMatchDate = (%q, %v)", got, ok)
	}

	doc = parseHTML(t, `<span class="match-date">3 April 1999</span>`)
	got, ok = extractMatchDate(doc)
	if !ok || got != "1999-04-03" {
		t.Fatalf("extractMatchDate = (%q, %v)", got, ok)
	}

	doc = parseHTML(t, `<div class="kickoff">soon</div>`)
	if _, ok := extractMatchDate(doc); ok {
		t.Fatal("expected no date")
	}
}

func TestExtractCompetition_StripsSeasonSuffixes(t *testing.T) {
	cases := []struct {
		html string
		want string
	}{
		{`<div class="competition">La Liga 1991-1992</div>`, "La Liga"},
		{`<span class="tournament">Audi Cup 2011</span>`, "Audi Cup"},
		{`<div class="match-competition">Champions League</div>`, "Champions League"},
		// The year strip hits any trailing four-digit number, even one that
		// is part of the proper name. Shorter trailing digits survive.
		{`<div class="competition">Euro 2020</div>`, "Euro"},
		{`<div class="competition">Cup 2</div>`, "Cup 2"},
	}
	for _, tc := range cases {
		got, ok := extractCompetition(parseHTML(t, tc.html))
		if !ok || got != tc.want {
			t.Fatalf("extractCompetition(%q) = (%q, %v), want %q", tc.html, got, ok, tc.want)
		}
	}

	if _, ok := extractCompetition(parseHTML(t, `<div class="header">x</div>`)); ok {
		t.Fatal("expected no competition")
	}
}

func TestSeasonExtraction(t *testing.T) {
	if season, ok := seasonFromURL("https://footballia.eu/matches/barcelona-v-real-madrid-2004-2005"); !ok || season != "2004-2005" {
		t.Fatalf("seasonFromURL = (%q, %v)", season, ok)
	}
	if _, ok := seasonFromURL("https://footballia.eu/matches/barcelona-v-real-madrid"); ok {
		t.Fatal("expected no season in url")
	}

	doc := parseHTML(t, `<span class="season">Season 2004-2005</span>`)
	if season, ok := seasonFromPage(doc); !ok || season != "2004-2005" {
		t.Fatalf("seasonFromPage = (%q, %v)", season, ok)
	}

	if year, ok := seasonStartYear("1991-92"); !ok || year != 1991 {
		t.Fatalf("seasonStartYear = (%d, %v)", year, ok)
	}
	if _, ok := seasonStartYear("Friendly"); ok {
		t.Fatal("expected no start year")
	}
}

func TestMatchIDFromURL(t *testing.T) {
	cases := map[string]string{
		"https://footballia.eu/matches/barcelona-v-real-madrid-2004-2005":  "barcelona-v-real-madrid-2004-2005",
		"https://footballia.eu/matches/barcelona-v-real-madrid-2004-2005/": "barcelona-v-real-madrid-2004-2005",
		"plain-id": "plain-id",
	}
	for in, want := range cases {
		if got := matchIDFromURL(in); got != want {
			t.Fatalf("matchIDFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Real Madrid C.F.":    "real-madrid-cf",
		"Bor. M'gladbach":     "bor-mgladbach",
		"  FC Barcelona  ":    "fc-barcelona",
		"Saint-Étienne":       "saint-tienne",
		`Newell's "Old" Boys`: "newells-old-boys",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
