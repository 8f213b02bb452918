package importer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"digimess/internal/menu"
)

const weekPage = `<html><body>
<h1>Mess menu</h1>
<table class="legend"><tr><td>Veg</td><td>Non-veg</td></tr></table>
<table>
  <thead>
    <tr><th>Day</th><th>Breakfast</th><th>Lunch</th><th>Evening Snack</th><th>Dinner</th></tr>
  </thead>
  <tbody>
    <tr><td>Mon</td><td>Idli, Vada</td><td>Rice<br>Sambar<br><b>Payasam</b></td><td>Sundal</td><td>Chapati, Kurma</td></tr>
    <tr><td>Tuesday</td><td>*Masala Dosa*</td><td><ul><li>Lemon Rice</li><li>Rasam</li></ul></td><td></td><td>Parotta ,  Salna</td></tr>
    <tr><td>Common items</td><td>Tea, Coffee</td><td>Curd</td><td></td><td>Pickle</td></tr>
  </tbody>
</table>
</body></html>`

func names(items []menu.Item) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.String())
	}
	return out
}

func TestParseWeekTable(t *testing.T) {
	wt, err := ParseWeekTable(strings.NewReader(weekPage))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(wt.Schedule) != 2 {
		t.Fatalf("Expected 2 days, got %v", wt.Schedule)
	}

	tests := []struct {
		day  menu.Day
		meal menu.MealSlot
		want []string
	}{
		{menu.Monday, menu.Breakfast, []string{"Idli", "Vada"}},
		{menu.Monday, menu.Lunch, []string{"Rice", "Sambar", "*Payasam*"}},
		{menu.Monday, menu.Snacks, []string{"Sundal"}},
		{menu.Tuesday, menu.Breakfast, []string{"*Masala Dosa*"}},
		{menu.Tuesday, menu.Lunch, []string{"Lemon Rice", "Rasam"}},
		{menu.Tuesday, menu.Dinner, []string{"Parotta", "Salna"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.day, tt.meal), func(t *testing.T) {
			if got := names(wt.Schedule[tt.day][tt.meal]); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}

	if _, ok := wt.Schedule[menu.Tuesday][menu.Snacks]; ok {
		t.Error("Expected empty cells to be left out")
	}
	if !wt.Schedule[menu.Monday][menu.Lunch][2].Special {
		t.Error("Expected bold text to be special")
	}

	wantCommon := map[menu.MealSlot]string{menu.Breakfast: "Tea, Coffee", menu.Lunch: "Curd", menu.Dinner: "Pickle"}
	if !reflect.DeepEqual(wt.CommonItems, wantCommon) {
		t.Errorf("Expected common items %v, got %v", wantCommon, wt.CommonItems)
	}
}

func TestParseWeekTableErrors(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{"NoTable", `<p>closed for holidays</p>`, "no table"},
		{"NoMealColumns", `<table><tr><th>Name</th><th>Room</th></tr></table>`, "no table"},
		{"UnknownRow", `<table><tr><th></th><th>Lunch</th></tr><tr><td>Holiday</td><td>x</td></tr></table>`, "not a day"},
		{"NoDays", `<table><tr><th></th><th>Lunch</th></tr></table>`, "no day rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWeekTable(strings.NewReader(tt.page))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildPatch(t *testing.T) {
	wt, err := ParseWeekTable(strings.NewReader(weekPage))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	patch, err := BuildPatch("South_Veg", menu.WeekB, wt, "circular-42")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	lunch, ok := patch.Path("South_Veg", "B", "schedule", "Monday", "Lunch")
	if !ok || len(lunch.Items()) != 3 {
		t.Fatalf("Expected Monday lunch in the patch, got %v", lunch)
	}
	if src, ok := patch.Path("South_Veg", "B", "source"); !ok || src.Kind() != menu.KindScalar {
		t.Error("Expected the source in the patch")
	}

	// Merged onto a full week, only the imported meals change.
	base, _ := menu.ParseNode([]byte(`{"South_Veg":{"B":{"schedule":{"Monday":{"Lunch":["old"],"Dinner":["keep"]},"Sunday":{"Lunch":["sun"]}},"source":"v1"}}}`))
	content, err := menu.DecodeContent(menu.Merge(base, patch))
	if err != nil {
		t.Fatalf("Expected the merged patch to decode, got %v", err)
	}
	if got, _ := content.Meal("South_Veg", menu.WeekB, menu.Sunday, menu.Lunch); names(got)[0] != "sun" {
		t.Errorf("Expected Sunday untouched, got %v", names(got))
	}
	if got, _ := content.Meal("South_Veg", menu.WeekB, menu.Monday, menu.Dinner); names(got)[0] != "Chapati" {
		t.Errorf("Expected imported dinner, got %v", names(got))
	}
	if wm, _ := content.Week("South_Veg", menu.WeekB); wm.Source != "circular-42" || wm.CommonItems[menu.Lunch] != "Curd" {
		t.Errorf("Unexpected week metadata %+v", wm)
	}

	if _, err := BuildPatch(menu.AllCategories, menu.WeekA, wt, ""); err == nil {
		t.Error("Expected All_Categories to be rejected")
	}
	if _, err := BuildPatch("South_Veg", "E", wt, ""); err == nil {
		t.Error("Expected an invalid week to be rejected")
	}
}

func TestFetchWeekTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/menu" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, weekPage)
	}))
	defer server.Close()

	im := New(server.Client())

	wt, err := im.FetchWeekTable(context.Background(), server.URL+"/menu")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(wt.Schedule) != 2 {
		t.Errorf("Expected 2 days, got %d", len(wt.Schedule))
	}

	if _, err := im.FetchWeekTable(context.Background(), server.URL+"/missing"); err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Errorf("Expected a status error, got %v", err)
	}
}
