package bot

import (
	"fmt"
	"strings"

	"jobsportal/internal/domain"
	"jobsportal/internal/jobview"
	"jobsportal/internal/markdown"
)

const maxJobsPerMessage = 20

func formatJobList(header string, offset int, jobs []domain.Job, bookmarked func(domain.JobID) bool) string {
	var sb strings.Builder

	sb.WriteString(header)

	for i, job := range jobs {
		sb.WriteString("\n\n")
		sb.WriteString(jobLine(offset+i+1, job, bookmarked(job.ID)))
	}

	return sb.String()
}

func formatDetails(d jobview.Details, bookmarked bool) string {
	var sb strings.Builder

	if bookmarked {
		sb.WriteString("⭐ ")
	}
	sb.WriteString(markdown.Bold(d.Title))
	sb.WriteString("\n")

	if d.Summary != jobview.NotAvailable && d.Summary != d.Title {
		sb.WriteString("_")
		sb.WriteString(markdown.EscapeV2(d.Summary))
		sb.WriteString("_\n")
	}

	sb.WriteString("\n")

	for _, field := range []struct{ label, value string }{
		{"Company", d.Company},
		{"Location", d.Place},
		{"Salary", d.Salary},
		{"Experience", d.Experience},
		{"Job Type", d.JobType},
		{"Contact", d.Contact},
		{"Other Details", d.OtherDetails},
	} {
		sb.WriteString(markdown.Field(field.label, field.value))
		sb.WriteString("\n")
	}

	for i, link := range d.Links {
		if i == 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(markdown.Link(fmt.Sprintf("🔗 Link %d", i+1), link))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func chunkJobs(jobs []domain.Job, size int) [][]domain.Job {
	var chunks [][]domain.Job
	for start := 0; start < len(jobs); start += size {
		chunks = append(chunks, jobs[start:min(start+size, len(jobs))])
	}

	return chunks
}
