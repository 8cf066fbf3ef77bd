package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/scanvault/api/internal/model"
)

func renderJobsTable(jobs []model.JobRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Title", "Status", "Submitted", "Updated", "Completed"})

	for _, j := range jobs {
		tw.AppendRow(table.Row{
			j.ID,
			j.Title,
			colorStatus(j.Status),
			formatTimestamp(j.SubmittedAt),
			formatTimestamp(j.UpdatedAt),
			formatOptional(j.CompletedAt),
		})
	}
	tw.AppendFooter(table.Row{"", "", "", "", "Total", len(jobs)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

func renderJobDetail(j *model.JobRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendRows([]table.Row{
		{"ID", j.ID},
		{"Source", j.SourceName},
		{"Title", j.Title},
		{"Status", colorStatus(j.Status)},
		{"Submitted", formatTimestamp(j.SubmittedAt)},
		{"Updated", formatTimestamp(j.UpdatedAt)},
		{"Completed", formatOptional(j.CompletedAt)},
		{"Model URL", j.ModelURL},
		{"Thumbnail URL", j.ThumbnailURL},
		{"Error", j.ErrorMessage},
		{"Format", j.FileFormat},
	})
	return tw.Render()
}

func colorStatus(s model.JobStatus) string {
	switch s {
	case model.JobStatusCompleted:
		return text.FgGreen.Sprint(s)
	case model.JobStatusFailed, model.JobStatusExpired:
		return text.FgRed.Sprint(s)
	default:
		return text.FgYellow.Sprint(s)
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTimestamp(*t)
}
