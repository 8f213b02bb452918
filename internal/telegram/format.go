package telegram

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"digimess/internal/app"
	"digimess/internal/clock"
	"digimess/internal/mealtime"
	"digimess/internal/menu"
	"digimess/internal/metrics"
	"digimess/internal/resolver"
)

// maxMessageLen is Telegram's limit on a single text message.
const maxMessageLen = 4096

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// formatItem renders highlighted runs in bold.
func formatItem(it menu.Item) string {
	var sb strings.Builder
	for _, seg := range it.Segments() {
		if seg.Highlight {
			sb.WriteString("*" + escape(seg.Text) + "*")
		} else {
			sb.WriteString(escape(seg.Text))
		}
	}
	return sb.String()
}

func formatItems(items []menu.Item) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, formatItem(it))
	}
	return strings.Join(parts, ", ")
}

func prettyDate(key string) string {
	t, err := clock.ParseDateKey(key)
	if err != nil {
		return key
	}
	return t.Format("Mon, 02 Jan 2006")
}

func stateMark(s mealtime.State) string {
	switch s {
	case mealtime.Past:
		return "▫️ "
	case mealtime.Active:
		return "▶️ "
	default:
		return ""
	}
}

func formatEvent(name, description string) string {
	if name == "" {
		return ""
	}
	if description == "" {
		return fmt.Sprintf("🎉 *%s*\n", escape(name))
	}
	return fmt.Sprintf("🎉 *%s*: %s\n", escape(name), escape(description))
}

// formatDay renders one day's menu as Markdown.
func formatDay(view *app.DayView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🍽 *%s*\n", escape(view.CategoryLabel)))
	sb.WriteString(fmt.Sprintf("📅 %s · Week %s\n", prettyDate(view.Date), view.Week))
	sb.WriteString(formatEvent(view.EventName, view.EventDescription))

	for _, m := range view.Meals {
		sb.WriteString(fmt.Sprintf("\n%s*%s* _(%s)_\n", stateMark(m.State), escape(m.Label), m.Timing))
		if len(m.Items) == 0 {
			sb.WriteString("_Not served_\n")
			continue
		}
		for _, it := range m.Items {
			sb.WriteString("• " + formatItem(it) + "\n")
		}
		if m.Common != "" {
			sb.WriteString(fmt.Sprintf("_Also: %s_\n", escape(m.Common)))
		}
	}
	return sb.String()
}

// formatWeek renders a week, one line per meal.
func formatWeek(view *app.WeekView) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🗓 *%s* · Week %s from %s\n", escape(view.CategoryLabel), view.Week, prettyDate(view.StartDate)))

	for _, d := range view.Days {
		sb.WriteString(fmt.Sprintf("\n*%s*", prettyDate(d.Date)))
		if d.EventName != "" {
			sb.WriteString(fmt.Sprintf(" 🎉 %s", escape(d.EventName)))
		}
		sb.WriteString("\n")
		if d.NoData {
			sb.WriteString("_No menu published_\n")
			continue
		}
		for _, m := range d.Meals {
			if len(m.Items) == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("_%s_: %s\n", escape(m.Label), formatItems(m.Items)))
		}
	}

	if len(view.CommonItems) > 0 {
		sb.WriteString("\n*Every day*\n")
		for _, slot := range menu.MealSlots {
			if common, ok := view.CommonItems[slot]; ok {
				sb.WriteString(fmt.Sprintf("_%s_: %s\n", slot, escape(common)))
			}
		}
	}
	return sb.String()
}

func formatCyclePreference(title string, cp *app.CyclePreference) string {
	if cp == nil {
		return ""
	}
	choice := "_not set_"
	if cp.Category != "" {
		choice = escape(cp.CategoryLabel)
	}
	return fmt.Sprintf("*%s*: %s (%s to %s)\n  ➜ %s\n",
		title, escape(cp.Cycle.Name),
		clock.DateKey(cp.Cycle.StartDate), clock.DateKey(cp.Cycle.EndDate), choice)
}

// formatPreferences renders the settings view.
func formatPreferences(view *app.PreferencesView) string {
	var sb strings.Builder
	sb.WriteString("⚙️ *Your mess preferences*\n\n")
	if view.Previous == nil && view.Current == nil && view.Next == nil {
		sb.WriteString("_No cycles are configured._\n")
		return sb.String()
	}
	sb.WriteString(formatCyclePreference("Previous", view.Previous))
	sb.WriteString(formatCyclePreference("Current", view.Current))
	sb.WriteString(formatCyclePreference("Next", view.Next))
	return sb.String()
}

// formatMetrics renders the admin usage and health report.
func formatMetrics(usage []metrics.DailyUsage, ops []metrics.OperationCount, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent Lookups*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d lookups, %d misses, %dµs avg\n", d.Date, d.Lookups, d.Misses, d.AvgLatencyUs))
	}

	if len(ops) > 0 {
		sb.WriteString("\n🔎 *By Surface*\n")
		for _, o := range ops {
			sb.WriteString(fmt.Sprintf("• %s/%s: %d\n", escape(o.Surface), escape(o.Operation), o.Lookups))
		}
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	sb.WriteString(fmt.Sprintf("• Menu Data: %s in %d files\n", health.DataDiskSize, health.DataFiles))
	return sb.String()
}

// formatError turns a lookup error into a reply.
func formatError(err error) string {
	switch {
	case errors.Is(err, app.ErrMissingPreference):
		return "🤔 You have not picked a mess for this cycle yet. Use /mess to choose one."
	case errors.Is(err, app.ErrCategoryUnavailable):
		return "🚫 Your mess is not served on that date. Use /mess to pick another."
	case errors.Is(err, app.ErrInvalidDate):
		return "📅 I could not read that date. Try /date 2025-08-15, /date tomorrow or /date yesterday."
	case errors.Is(err, resolver.ErrNoVersionForDate):
		return "📭 No menu has been published for that date."
	default:
		return "❌ Something went wrong. Please try again later."
	}
}

const helpText = `🍛 *DigiMess*

/today - today's menu
/date YYYY-MM-DD - menu for a date (or tomorrow, yesterday)
/week - this week, or /week YYYY-MM-DD
/mess - pick your mess for this cycle
/prefs - your preferences per cycle
/reset - forget everything about you`

// splitMessage cuts text into chunks Telegram accepts, preferring line
// breaks.
func splitMessage(text string, limit int) []string {
	var out []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		out = append(out, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}

// categoryKeyboard offers one button per category; data is prefix|value.
func categoryKeyboard(prefix string, cats []menu.CategoryInfo) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Label, prefix+"|"+string(c.Value)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
