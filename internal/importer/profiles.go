package importer

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/contentpub/importer/internal/domain"
	"github.com/contentpub/importer/internal/report"
)

type profilesImporter struct {
	base
}

func (i *profilesImporter) Kind() domain.Kind { return domain.KindProfiles }

func (i *profilesImporter) ValidateHeaders(rows []domain.ImportRow) *report.Report {
	return validateHeaders(domain.KindProfiles, rows)
}

func (i *profilesImporter) Validate(ctx context.Context, rows []domain.ImportRow) *report.Report {
	rep := report.New()
	requireColumn(rep, rows, "First name", "first_name", "First name is required.")
	requireColumn(rep, rows, "Last name", "last_name", "Last name is required.")

	var badEmail []int
	for _, row := range rows {
		value := strings.TrimSpace(row.Value("Email"))
		if value == "" {
			continue
		}
		if _, err := mail.ParseAddress(value); err != nil {
			badEmail = append(badEmail, row.Number())
		}
	}
	rep.Add("email", badEmail, "Email format is invalid.")

	rep.Add("photo", i.invalidURLRows(ctx, cells(rows, "Photo")), "Photo url is invalid.")

	for n := 1; n <= 3; n++ {
		column := fmt.Sprintf("Websites url %d", n)
		var invalid []int
		for _, row := range rows {
			value := strings.TrimSpace(row.Value(column))
			if value != "" && !validURL(value) {
				invalid = append(invalid, row.Number())
			}
		}
		rep.Add(fmt.Sprintf("website_%d", n), invalid, fmt.Sprintf("Websites url %d is invalid.", n))
	}

	validateCreatedDate(rep, rows)
	return rep
}

func (i *profilesImporter) PrepareRow(ctx context.Context, run *domain.ImportRun, row domain.ImportRow) (*domain.ContentItem, error) {
	first := strings.TrimSpace(row.Value("First name"))
	last := strings.TrimSpace(row.Value("Last name"))
	fullName := strings.TrimSpace(first + " " + last)

	item := i.newItem(domain.KindProfiles, row, fullName)
	item.SetField("first_name", first)
	item.SetField("last_name", last)
	setIfPresent(item, "prefix", row.Value("Prefix"))
	setIfPresent(item, "middle_name", row.Value("Middle name"))
	setIfPresent(item, "address", row.Value("Address"))
	setIfPresent(item, "phone", row.Value("Phone"))
	setIfPresent(item, "email", row.Value("Email"))
	setIfPresent(item, "short_bio", row.Value("Short bio"))
	setIfPresent(item, "links", row.Value("links"))

	var titles []string
	for n := 1; n <= 3; n++ {
		if title := strings.TrimSpace(row.Value(fmt.Sprintf("Title %d", n))); title != "" {
			titles = append(titles, title)
		}
	}
	if len(titles) > 0 {
		item.SetField("titles", titles)
	}

	var websites []map[string]string
	for n := 1; n <= 3; n++ {
		url := strings.TrimSpace(row.Value(fmt.Sprintf("Websites url %d", n)))
		if url == "" {
			continue
		}
		websites = append(websites, map[string]string{
			"title": strings.TrimSpace(row.Value(fmt.Sprintf("Websites title %d", n))),
			"url":   url,
		})
	}
	if len(websites) > 0 {
		item.SetField("websites", websites)
	}

	if err := i.applyPath(ctx, item, row); err != nil {
		return nil, err
	}
	return item, nil
}

func (i *profilesImporter) PreSave(ctx context.Context, run *domain.ImportRun, item *domain.ContentItem, row domain.ImportRow) error {
	// The portrait's alt text is the underscore-joined name.
	alt := strings.TrimSpace(row.Value("First name")) + "_" + strings.TrimSpace(row.Value("Last name"))
	return i.attachMedia(ctx, run, item, row, "Photo", "photo", alt)
}

func setIfPresent(item *domain.ContentItem, field, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		item.SetField(field, trimmed)
	}
}
