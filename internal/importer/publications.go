package importer

import (
	"context"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/report"
)

// yearCodes maps the accepted coded year phrases onto their numeric codes.
// Matching ignores case and spaces, so "in press" and "In Press" both code.
var yearCodes = map[string]int{
	"submitted":     10000,
	"inpress":       10010,
	"inpreparation": 10020,
	"workingpaper":  10030,
	"forthcoming":   10040,
}

var (
	yearDayPattern   = regexp.MustCompile(`^([0-9]{1,2})/([0-9]{1,2})/([0-9]{4})$`)
	yearMonthPattern = regexp.MustCompile(`^([0-9]{1,2})/([0-9]{4})$`)
	yearPlainPattern = regexp.MustCompile(`^[0-9]{1,5}$`)
)

type publicationsImporter struct {
	base
}

func (i *publicationsImporter) Kind() domain.Kind { return domain.KindPublications }

func (i *publicationsImporter) ValidateHeaders(rows []domain.ImportRow) *report.Report {
	return validateHeaders(domain.KindPublications, rows)
}

func (i *publicationsImporter) Validate(ctx context.Context, rows []domain.ImportRow) *report.Report {
	rep := report.New()
	requireColumn(rep, rows, "Title", "title", "The Title is required.")

	var badYear []int
	for _, row := range rows {
		if !validYear(row.Value("Year")) {
			badYear = append(badYear, row.Number())
		}
	}
	rep.Add("year", badYear, "Year format is invalid.")

	rep.Add("url", i.invalidURLRows(ctx, cells(rows, "URL")), "URL is invalid.")
	validateCreatedDate(rep, rows)
	return rep
}

func (i *publicationsImporter) PrepareRow(ctx context.Context, run *domain.ImportRun, row domain.ImportRow) (*domain.ContentItem, error) {
	title := decodeLatex(html.UnescapeString(strings.TrimSpace(row.Value("Title"))))
	item := i.newItem(domain.KindPublications, row, title)

	authors := splitList(row.Value("Authors"))
	if len(authors) == 0 {
		authors = []string{"Not Known"}
	}
	item.SetField("authors", authors)

	year, month, day := parseYear(row.Value("Year"))
	item.SetField("year", year)
	if month > 0 {
		item.SetField("month", month)
	}
	if day > 0 {
		item.SetField("day", day)
	}

	setIfPresent(item, "type", row.Value("Type"))
	setIfPresent(item, "journal", decodeLatex(row.Value("Journal")))
	if abstract := strings.TrimSpace(row.Value("Abstract")); abstract != "" {
		item.SetField("abstract", decodeLatex(html.UnescapeString(abstract)))
	}
	if url := strings.TrimSpace(row.Value("URL")); url != "" {
		item.SetField("publishers_version", map[string]string{
			"title": "Publisher's Version",
			"url":   url,
		})
	}
	if editors := splitList(row.Value("Editors")); len(editors) > 0 {
		item.SetField("editors", editors)
	}

	if err := i.applyPath(ctx, item, row); err != nil {
		return nil, err
	}
	return item, nil
}

// latexReplacer covers the accented letters and punctuation escapes that
// show up in BibTeX-sourced spreadsheets. Brace-wrapped forms come first
// so the bare forms do not leave stray braces behind.
var latexReplacer = strings.NewReplacer(
	`{\'a}`, "á", `{\'e}`, "é", `{\'i}`, "í", `{\'o}`, "ó", `{\'u}`, "ú",
	"{\\`a}", "à", "{\\`e}", "è", "{\\`i}", "ì", "{\\`o}", "ò", "{\\`u}", "ù",
	`{\"a}`, "ä", `{\"e}`, "ë", `{\"i}`, "ï", `{\"o}`, "ö", `{\"u}`, "ü",
	`{\~n}`, "ñ", `{\~a}`, "ã", `{\~o}`, "õ", `{\c{c}}`, "ç",
	`\'a`, "á", `\'e`, "é", `\'i`, "í", `\'o`, "ó", `\'u`, "ú",
	"\\`a", "à", "\\`e", "è", "\\`i", "ì", "\\`o", "ò", "\\`u", "ù",
	`\"a`, "ä", `\"e`, "ë", `\"i`, "ï", `\"o`, "ö", `\"u`, "ü",
	`\~n`, "ñ", `\~a`, "ã", `\~o`, "õ", `\c{c}`, "ç",
	`\&`, "&", `\%`, "%", `\$`, "$", `\_`, "_", `\#`, "#",
	"---", "—", "--", "–", "``", "“", "''", "”",
)

// decodeLatex rewrites BibTeX escape sequences into their unicode forms.
func decodeLatex(value string) string {
	if !strings.ContainsAny(value, "\\-`'") {
		return value
	}
	return latexReplacer.Replace(value)
}

func codedYear(value string) (int, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(value), " ", ""))
	code, ok := yearCodes[key]
	return code, ok
}

// validYear accepts a coded phrase, a plain year of 1000 or later, or a
// year with month (MM/YYYY) or month and day (MM/DD/YYYY) where the month
// part stays within twelve.
func validYear(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if _, ok := codedYear(value); ok {
		return true
	}
	if m := yearDayPattern.FindStringSubmatch(value); m != nil {
		month, _ := strconv.Atoi(m[1])
		return month <= 12
	}
	if m := yearMonthPattern.FindStringSubmatch(value); m != nil {
		month, _ := strconv.Atoi(m[1])
		return month <= 12
	}
	if yearPlainPattern.MatchString(value) {
		year, _ := strconv.Atoi(value)
		return year >= 1000
	}
	return false
}

// parseYear extracts the numeric year plus optional month and day. Coded
// phrases land as their code with no month or day.
func parseYear(value string) (year, month, day int) {
	value = strings.TrimSpace(value)
	if code, ok := codedYear(value); ok {
		return code, 0, 0
	}
	if m := yearDayPattern.FindStringSubmatch(value); m != nil {
		month, _ = strconv.Atoi(m[1])
		day, _ = strconv.Atoi(m[2])
		year, _ = strconv.Atoi(m[3])
		return year, month, day
	}
	if m := yearMonthPattern.FindStringSubmatch(value); m != nil {
		month, _ = strconv.Atoi(m[1])
		year, _ = strconv.Atoi(m[2])
		return year, month, 0
	}
	year, _ = strconv.Atoi(value)
	return year, 0, 0
}
