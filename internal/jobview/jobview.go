// Package jobview turns opaque job records into the fields a details screen
// shows.
package jobview

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"jobsportal/internal/domain"
	"jobsportal/internal/summarizer"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"mvdan.cc/xurls/v2"
)

const (
	// NotAvailable stands in for every missing field.
	NotAvailable = "N/A"

	fallbackSummaryMaxChars = 160
)

type Details struct {
	ID           domain.JobID
	Title        string
	Company      string
	Place        string
	Salary       string
	Experience   string
	JobType      string
	Contact      string
	OtherDetails string
	Links        []string
	Summary      string
}

type Builder struct {
	summarizer summarizer.Summarizer
	cache      *summaryCache
	log        *slog.Logger
	now        func() time.Time
}

// NewBuilder returns a Builder. s may be nil, in which case summaries are
// shortened plain text.
func NewBuilder(s summarizer.Summarizer, log *slog.Logger) *Builder {
	return &Builder{
		summarizer: s,
		cache:      newSummaryCache(summaryCacheMaxEntries),
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (b *Builder) Build(ctx context.Context, job domain.Job) Details {
	d := Details{
		ID:           job.ID,
		Title:        textField(job, "title"),
		Company:      textField(job, "company_name"),
		Place:        textField(job, "primary_details.Place"),
		Salary:       textField(job, "primary_details.Salary"),
		Experience:   textField(job, "primary_details.Experience"),
		JobType:      textField(job, "primary_details.Job_Type"),
		Contact:      textField(job, "whatsapp_no"),
		OtherDetails: textField(job, "other_details"),
	}

	var rawText []string
	for _, path := range []string{"other_details", "custom_link", "contact_preference.whatsapp_link"} {
		if v := job.Field(path); v.Exists() {
			rawText = append(rawText, v.String())
		}
	}
	d.Links = extractLinks(strings.Join(rawText, "\n"))

	d.Summary = b.summarize(ctx, d)

	return d
}

// textField reads path as plain text, stripping any HTML markup. Missing,
// null and blank values become NotAvailable.
func textField(job domain.Job, path string) string {
	v := job.Field(path)
	if !v.Exists() || v.Type == gjson.Null {
		return NotAvailable
	}

	text := strings.TrimSpace(HTMLToText(v.String()))
	if text == "" {
		return NotAvailable
	}

	return text
}

// HTMLToText renders markup as plain text, turning <br> and block
// boundaries into line breaks. Input without markup is returned trimmed.
func HTMLToText(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.ContainsAny(raw, "<&") {
		return raw
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	doc.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml("\n")
	})
	doc.Find("p, div, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	lines := strings.Split(doc.Text(), "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}

	return strings.Join(out, "\n")
}

func extractLinks(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})
	for _, link := range xurls.Strict().FindAllString(text, -1) {
		link = strings.TrimRight(link, ".,;")
		if _, ok := seen[link]; ok {
			continue
		}

		seen[link] = struct{}{}
		links = append(links, link)
	}

	return links
}

func (b *Builder) summarize(ctx context.Context, d Details) string {
	text := summaryInput(d)
	if text == "" {
		return NotAvailable
	}

	now := b.now()
	key := summaryCacheKey(d.ID, text)

	if summary, ok := b.cache.get(key, now); ok {
		return summary
	}

	if b.summarizer == nil {
		return fallbackSummary(text)
	}

	summary, err := b.summarizer.Summarize(ctx, summarizer.Input{
		Text: text,
	})
	if err != nil {
		b.log.ErrorContext(ctx, "Failed to summarize job",
			"error", err,
			"jobID", d.ID,
			"fallback", true,
			"textLen", len(text))

		return fallbackSummary(text)
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fallbackSummary(text)
	}

	b.cache.set(key, summary, now.Add(summaryCacheTTL), now)

	return summary
}

func summaryInput(d Details) string {
	var sb strings.Builder

	for _, field := range []struct{ label, value string }{
		{"Title", d.Title},
		{"Company", d.Company},
		{"Place", d.Place},
		{"Salary", d.Salary},
		{"Experience", d.Experience},
		{"Job type", d.JobType},
		{"Details", d.OtherDetails},
	} {
		if field.value == NotAvailable {
			continue
		}

		fmt.Fprintf(&sb, "%s: %s\n", field.label, field.value)
	}

	return strings.TrimSpace(sb.String())
}

func summaryCacheKey(id domain.JobID, text string) string {
	if id == "" || text == "" {
		return ""
	}

	hash := sha256.Sum256([]byte(text))

	return string(id) + "|" + hex.EncodeToString(hash[:])
}

func fallbackSummary(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")

	runes := []rune(normalized)
	if len(runes) <= fallbackSummaryMaxChars {
		return normalized
	}

	return strings.TrimSpace(string(runes[:fallbackSummaryMaxChars])) + "..."
}
