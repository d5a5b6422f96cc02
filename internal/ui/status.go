package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// StatusInfo is the CLI-facing rendering of engine.Status (spec §6.1
// get_status): one entry per field the tool protocol reports, plus the
// project name for the header.
type StatusInfo struct {
	ProjectName     string         `json:"project_name"`
	IndexPath       string         `json:"index_path"`
	FileCount       int            `json:"file_count"`
	Languages       map[string]int `json:"languages"`
	LastIndexed     *time.Time     `json:"last_indexed"`
	SemanticEnabled bool           `json:"semantic_enabled"`
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out     io.Writer
	styles  Styles
	noColor bool
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:     out,
		styles:  GetStyles(noColor),
		noColor: noColor,
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Index Status: "+info.ProjectName))

	_, _ = fmt.Fprintf(r.out, "  Index path: %s\n", info.IndexPath)
	_, _ = fmt.Fprintf(r.out, "  Files:      %d\n", info.FileCount)
	if info.LastIndexed != nil {
		_, _ = fmt.Fprintf(r.out, "  Last indexed: %s\n", formatTime(*info.LastIndexed))
	} else {
		_, _ = fmt.Fprintln(r.out, "  Last indexed: never")
	}
	_, _ = fmt.Fprintln(r.out)

	if len(info.Languages) > 0 {
		_, _ = fmt.Fprintln(r.out, "  Languages:")
		langs := make([]string, 0, len(info.Languages))
		for lang := range info.Languages {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			_, _ = fmt.Fprintf(r.out, "    %-12s %d\n", lang, info.Languages[lang])
		}
		_, _ = fmt.Fprintln(r.out)
	}

	_, _ = fmt.Fprintf(r.out, "  Semantic index: %s\n", r.renderStatus(boolStatus(info.SemanticEnabled)))

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func boolStatus(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

// renderStatus formats a status string with color.
func (r *StatusRenderer) renderStatus(status string) string {
	switch status {
	case "ready", "running", "enabled":
		return r.styles.Success.Render(status)
	case "offline", "stopped", "disabled":
		return r.styles.Warning.Render(status)
	case "error":
		return r.styles.Error.Render(status)
	default:
		return status
	}
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
