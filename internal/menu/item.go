package menu

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Item is a single dish. Special items are highlighted by the surfaces.
// Both authored shapes ("*Paneer*" and {"name": "Paneer", "isSpecial": true})
// collapse into this type at parse time.
type Item struct {
	Name    string
	Special bool
}

// ParseItem applies the asterisk convention to a plain string. Only a
// single wrapped name is special; strings with several markers, such as
// "*Omelette* / *Boiled Egg*", stay plain and are split by Segments.
func ParseItem(s string) Item {
	if len(s) > 2 && strings.HasPrefix(s, "*") && strings.HasSuffix(s, "*") &&
		!strings.Contains(s[1:len(s)-1], "*") {
		return Item{Name: s[1 : len(s)-1], Special: true}
	}
	return Item{Name: s}
}

// String renders the authored form.
func (i Item) String() string {
	if i.Special {
		return "*" + i.Name + "*"
	}
	return i.Name
}

type itemObject struct {
	Name      string `json:"name"`
	IsSpecial bool   `json:"isSpecial"`
}

// UnmarshalJSON accepts either a string or a {name, isSpecial} object.
func (i *Item) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*i = ParseItem(s)
		return nil
	}
	var obj itemObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("item must be a string or {name, isSpecial}: %w", err)
	}
	*i = Item{Name: obj.Name, Special: obj.IsSpecial}
	return nil
}

// MarshalJSON writes the string form, or the object form when the string
// would not parse back to the same item.
func (i Item) MarshalJSON() ([]byte, error) {
	s := i.String()
	if ParseItem(s) != i {
		return json.Marshal(itemObject{Name: i.Name, IsSpecial: i.Special})
	}
	return json.Marshal(s)
}

// Segment is a run of text inside an item name.
type Segment struct {
	Text      string
	Highlight bool
}

// Segments splits inline markers such as "*Omelette* / Oats" into
// highlighted and plain runs. A Special item is one highlighted run.
func (i Item) Segments() []Segment {
	if i.Special {
		return []Segment{{Text: i.Name, Highlight: true}}
	}
	var out []Segment
	rest := i.Name
	for rest != "" {
		open := strings.IndexByte(rest, '*')
		if open < 0 {
			break
		}
		closing := strings.IndexByte(rest[open+1:], '*')
		if closing <= 0 {
			break
		}
		if open > 0 {
			out = append(out, Segment{Text: rest[:open]})
		}
		out = append(out, Segment{Text: rest[open+1 : open+1+closing], Highlight: true})
		rest = rest[open+closing+2:]
	}
	if rest != "" {
		out = append(out, Segment{Text: rest})
	}
	return out
}

// VisibleItems drops entries with an empty name.
func VisibleItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			continue
		}
		out = append(out, it)
	}
	return out
}
