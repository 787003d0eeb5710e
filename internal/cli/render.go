package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ppiankov/sourcebrief/internal/model"
)

const (
	idColumnWidth      = 36
	createdColumnWidth = 16
	summaryColumnWidth = 60
)

// writeBrief prints a brief as readable sections
func writeBrief(w io.Writer, b *model.ResearchBrief) {
	fmt.Fprintf(w, "Research brief %s\n", b.ID)
	fmt.Fprintf(w, "Created: %s\n\n", b.CreatedAt.Local().Format("2006-01-02 15:04:05"))

	fmt.Fprintln(w, "Sources:")
	for _, u := range b.URLs {
		fmt.Fprintf(w, "  - %s\n", u)
	}

	fmt.Fprintf(w, "\nSummary:\n  %s\n", b.Summary)
	writeList(w, "Key points", b.KeyPoints)
	writeList(w, "Conflicting claims", b.ConflictingClaims)
	writeList(w, "What to verify", b.WhatToVerify)

	if len(b.Citations) > 0 {
		fmt.Fprintln(w, "\nCitations:")
		for i, c := range b.Citations {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, c.Source)
			if c.Snippet != "" {
				fmt.Fprintf(w, "      %q\n", c.Snippet)
			}
			if c.UsedFor != "" {
				fmt.Fprintf(w, "      used for: %s\n", c.UsedFor)
			}
		}
	}

	if len(b.TopicTags) > 0 {
		fmt.Fprintf(w, "\nTags: %s\n", strings.Join(b.TopicTags, ", "))
	}
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

// writeBriefTable prints one row per brief. Summaries are cut by display
// width so wide characters keep the columns aligned.
func writeBriefTable(w io.Writer, briefs []model.ResearchBrief) {
	if len(briefs) == 0 {
		fmt.Fprintln(w, "No research briefs found.")
		return
	}

	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		runewidth.FillRight("ID", idColumnWidth),
		runewidth.FillRight("CREATED", createdColumnWidth),
		runewidth.FillRight("URLS", 4),
		"SUMMARY")

	for _, b := range briefs {
		summary := strings.Join(strings.Fields(b.Summary), " ")
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			runewidth.FillRight(b.ID, idColumnWidth),
			runewidth.FillRight(b.CreatedAt.Local().Format("2006-01-02 15:04"), createdColumnWidth),
			runewidth.FillRight(fmt.Sprint(len(b.URLs)), 4),
			runewidth.Truncate(summary, summaryColumnWidth, "…"))
	}
}
