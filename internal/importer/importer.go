// Package importer turns a published mess menu, an HTML table with one row
// per day and one column per meal, into an override patch.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"digimess/internal/menu"
)

// WeekTable is one category-week as read from the page.
type WeekTable struct {
	Schedule    map[menu.Day]menu.DayMenu
	CommonItems map[menu.MealSlot]string
}

// Importer fetches menu pages.
type Importer struct {
	client *http.Client
}

// New creates an Importer. A nil client gets a 15 second timeout.
func New(client *http.Client) *Importer {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Importer{client: client}
}

// FetchWeekTable downloads url and parses its first menu table.
func (im *Importer) FetchWeekTable(ctx context.Context, url string) (*WeekTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := im.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	return ParseWeekTable(resp.Body)
}

// ParseWeekTable reads the first table whose header names at least one
// meal. The first column holds day names; a row labelled "Common" holds
// the items served with every day's meal. Cells split on commas and line
// breaks, and bold text is marked special.
func ParseWeekTable(r io.Reader) (*WeekTable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var (
		table   *goquery.Selection
		columns map[int]menu.MealSlot
	)
	doc.Find("table").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if cols := mealColumns(t.Find("tr").First()); len(cols) > 0 {
			table, columns = t, cols
			return false
		}
		return true
	})
	if table == nil {
		return nil, fmt.Errorf("no table with meal columns found")
	}

	wt := &WeekTable{Schedule: make(map[menu.Day]menu.DayMenu)}
	var rowErr error
	table.Find("tr").Slice(1, goquery.ToEnd).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("th, td")
		if cells.Length() == 0 {
			return true
		}
		label := cellText(cells.First())
		if label == "" {
			return true
		}

		if isCommonLabel(label) {
			wt.CommonItems = make(map[menu.MealSlot]string)
			cells.Each(func(i int, c *goquery.Selection) {
				if slot, ok := columns[i]; ok {
					if text := strings.Join(splitCell(c), ", "); text != "" {
						wt.CommonItems[slot] = text
					}
				}
			})
			return true
		}

		day, ok := matchDay(label)
		if !ok {
			rowErr = fmt.Errorf("row %q is not a day", label)
			return false
		}
		dm := make(menu.DayMenu)
		cells.Each(func(i int, c *goquery.Selection) {
			slot, ok := columns[i]
			if !ok {
				return
			}
			var items []menu.Item
			for _, s := range splitCell(c) {
				items = append(items, menu.ParseItem(s))
			}
			if len(items) > 0 {
				dm[slot] = items
			}
		})
		wt.Schedule[day] = dm
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	if len(wt.Schedule) == 0 {
		return nil, fmt.Errorf("table has no day rows")
	}
	return wt, nil
}

func mealColumns(header *goquery.Selection) map[int]menu.MealSlot {
	cols := make(map[int]menu.MealSlot)
	header.Find("th, td").Each(func(i int, c *goquery.Selection) {
		text := strings.ToLower(c.Text())
		for _, slot := range menu.MealSlots {
			// "Snacks" is often printed as "Snack" or "Evening Snacks".
			if strings.Contains(text, strings.TrimSuffix(strings.ToLower(string(slot)), "s")) {
				cols[i] = slot
				return
			}
		}
	})
	return cols
}

func isCommonLabel(label string) bool {
	return strings.HasPrefix(strings.ToLower(label), "common")
}

func matchDay(label string) (menu.Day, bool) {
	l := strings.ToLower(strings.TrimSpace(label))
	if len(l) < 3 {
		return "", false
	}
	// Three letters tell every day apart.
	for _, d := range menu.Days {
		if strings.ToLower(string(d))[:3] == l[:3] {
			return d, true
		}
	}
	return "", false
}

func cellText(c *goquery.Selection) string {
	return strings.TrimSpace(c.Text())
}

// splitCell returns the trimmed, non-empty entries of a cell. Line breaks
// count as separators and bold runs become *marked* names.
func splitCell(c *goquery.Selection) []string {
	c = c.Clone()
	c.Find("b, strong").Each(func(_ int, b *goquery.Selection) {
		if text := strings.TrimSpace(b.Text()); text != "" {
			b.ReplaceWithHtml("*" + html.EscapeString(text) + "*")
		}
	})
	c.Find("br").ReplaceWithHtml("\n")
	c.Find("li").Each(func(_ int, li *goquery.Selection) {
		li.AppendHtml("\n")
	})

	var out []string
	for _, part := range strings.FieldsFunc(c.Text(), func(r rune) bool { return r == ',' || r == '\n' }) {
		if part = strings.Join(strings.Fields(part), " "); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// BuildPatch wraps a week table as an override patch for one category and
// week. Only the meals present in the table are replaced when merged.
func BuildPatch(category menu.Category, week menu.Week, wt *WeekTable, source string) (*menu.Node, error) {
	if category == "" || category == menu.AllCategories {
		return nil, fmt.Errorf("invalid category %q", category)
	}
	if week.Index() < 0 {
		return nil, fmt.Errorf("invalid week %q", week)
	}

	weekDoc := map[string]any{}
	if len(wt.Schedule) > 0 {
		weekDoc["schedule"] = wt.Schedule
	}
	if len(wt.CommonItems) > 0 {
		weekDoc["common_items"] = wt.CommonItems
	}
	if source != "" {
		weekDoc["source"] = source
	}

	data, err := json.Marshal(map[string]any{
		string(category): map[string]any{string(week): weekDoc},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch: %w", err)
	}
	return menu.ParseNode(data)
}
