package monitor

import (
	"fmt"
	"strings"
	"time"
)

// View renders the dashboard.
func (m Model) View() string {
	var sb strings.Builder

	header := titleStyle.Render("taskpad sync monitor")
	if m.Refreshing {
		header += "  " + m.Spinner.View()
	}
	sb.WriteString(header)
	sb.WriteString("\n\n")

	if m.Err != nil {
		sb.WriteString(errTextStyle.Render(fmt.Sprintf("error: %v", m.Err)))
		sb.WriteString("\n\n")
	}

	if m.Snapshot == nil {
		sb.WriteString(subtleStyle.Render("loading..."))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(m.renderOverview())
	sb.WriteString("\n")
	sb.WriteString(m.renderQueue())
	sb.WriteString("\n")
	sb.WriteString(m.renderDeadLetters())
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("r refresh · q quit"))
	sb.WriteString("\n")

	return sb.String()
}

func (m Model) renderOverview() string {
	snap := m.Snapshot

	conn := offlineStyle.Render("OFFLINE")
	if snap.Online {
		conn = onlineStyle.Render("ONLINE")
	}

	lastSync := "never"
	if snap.LastSyncedAt != nil {
		lastSync = relativeTime(*snap.LastSyncedAt)
	}

	body := fmt.Sprintf("Server: %s\nPending intents: %d\nDead letters: %d\nLast synced: %s",
		conn, snap.Pending, len(snap.DeadLetters), lastSync)

	return m.panel("Overview", body)
}

func (m Model) renderQueue() string {
	snap := m.Snapshot
	if len(snap.NeedingSync) == 0 {
		return m.panel("Needs sync", subtleStyle.Render("nothing waiting"))
	}

	var lines []string
	for i, task := range snap.NeedingSync {
		if i >= 8 {
			lines = append(lines, subtleStyle.Render(fmt.Sprintf("… and %d more", len(snap.NeedingSync)-i)))
			break
		}
		style, ok := syncStyles[task.SyncStatus]
		status := string(task.SyncStatus)
		if ok {
			status = style.Render(string(task.SyncStatus))
		}
		lines = append(lines, fmt.Sprintf("%s  %s  %s", task.ID, status, truncate(task.Title, 40)))
	}
	return m.panel("Needs sync", strings.Join(lines, "\n"))
}

func (m Model) renderDeadLetters() string {
	snap := m.Snapshot
	if len(snap.DeadLetters) == 0 {
		return m.panel("Dead letters", subtleStyle.Render("empty"))
	}

	var lines []string
	for i, dl := range snap.DeadLetters {
		if i >= 5 {
			lines = append(lines, subtleStyle.Render(fmt.Sprintf("… and %d more", len(snap.DeadLetters)-i)))
			break
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s  %s",
			timestampStyle.Render(dl.FailedAt.Format("01-02 15:04")),
			dl.TaskID, dl.Operation, errTextStyle.Render(truncate(dl.FinalErrorMessage, 40))))
	}
	return m.panel("Dead letters", strings.Join(lines, "\n"))
}

func (m Model) panel(title, body string) string {
	width := m.Width - 4
	if width < 40 {
		width = 40
	}
	content := panelTitleStyle.Render(title) + "\n" + body
	return panelStyle.Width(width).Render(content) + "\n"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return s[:max-1] + "…"
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format(time.RFC3339)
	}
}
