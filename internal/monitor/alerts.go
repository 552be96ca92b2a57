package monitor

import (
	"fmt"

	"github.com/flemzord/deadlineguard/internal/tracker"
	"github.com/flemzord/deadlineguard/pkg/message"
)

const (
	slaIcon      = "https://cdn-icons-png.flaticon.com/512/595/595067.png"
	scheduleIcon = "https://cdn-icons-png.flaticon.com/512/2693/2693554.png"
)

// SLAAlert composes the alert for a task close to or past its due date.
func SLAAlert(name, owner, priority, timeText string) message.Payload {
	text := fmt.Sprintf("⚠️ **SLA BREACH:** Task '%s' is **%s**.\n👤 **Owner:** %s", name, timeText, owner)
	if priority != "" {
		text += "\n🔺 **Priority:** " + priority
	}
	return message.NewPayload(text, message.Card{
		Title:     "CRITICAL ALERT",
		Thumbnail: slaIcon,
		Theme:     message.ThemeInline,
	})
}

// ScheduleChangeAlert composes the alert for a moved due date. An earlier
// date is preponed and urgent; anything else is postponed.
func ScheduleChangeAlert(name string, was, now tracker.Date) (message.Payload, ChangeKind) {
	kind, label, theme := ChangePostponed, "🗓️ **POSTPONED**", message.ThemeInline
	if now.Before(was) {
		kind, label, theme = ChangePreponed, "⚠️ **PREPONED**", message.ThemePrompt
	}
	text := fmt.Sprintf("%s: Task '%s'\n🔹 **Was:** %s\n🔹 **Now:** %s", label, name, was, now)
	return message.NewPayload(text, message.Card{
		Title:     "SCHEDULE UPDATE",
		Thumbnail: scheduleIcon,
		Theme:     theme,
	}), kind
}
