// Package output provides styled terminal output helpers (success, error,
// warning, task formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/taskpad/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	syncStyles   = map[models.SyncStatus]lipgloss.Style{
		models.SyncPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.SyncInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.SyncSynced:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.SyncError:      lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		models.SyncFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// FormatSyncStatus formats a sync status with color
func FormatSyncStatus(s models.SyncStatus) string {
	style, ok := syncStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(fmt.Sprintf("[%s]", s))
}

// FormatTaskShort formats a task as a single list line
func FormatTaskShort(task *models.Task) string {
	var parts []string
	parts = append(parts, titleStyle.Render(task.ID))

	if task.Completed {
		parts = append(parts, doneStyle.Render("✓"))
	} else {
		parts = append(parts, subtleStyle.Render("·"))
	}

	parts = append(parts, task.Title)
	parts = append(parts, FormatSyncStatus(task.SyncStatus))

	return strings.Join(parts, "  ")
}

// FormatTaskLong formats a task with full detail for `taskpad show`
func FormatTaskLong(task *models.Task) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", task.ID, task.Title)))
	sb.WriteString("\n")
	if task.Completed {
		sb.WriteString(fmt.Sprintf("Completed: %s\n", doneStyle.Render("yes")))
	} else {
		sb.WriteString("Completed: no\n")
	}
	sb.WriteString(fmt.Sprintf("Sync: %s", FormatSyncStatus(task.SyncStatus)))
	if task.ServerID != "" {
		sb.WriteString(subtleStyle.Render(fmt.Sprintf("  server:%s", task.ServerID)))
	}
	sb.WriteString("\n")

	sb.WriteString(subtleStyle.Render(fmt.Sprintf("Created: %s  Updated: %s",
		FormatRelativeTime(task.CreatedAt), FormatRelativeTime(task.UpdatedAt))))
	sb.WriteString("\n")
	if task.LastSyncedAt != nil {
		sb.WriteString(subtleStyle.Render(fmt.Sprintf("Last synced: %s", FormatRelativeTime(*task.LastSyncedAt))))
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatRelativeTime formats a time as a human-friendly relative string
func FormatRelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
