package app

import (
	"context"
	"fmt"

	"digimess/internal/menu"
)

// currentCycleName is the cycle today's lookups file preferences under.
// It is empty before the first cycle starts.
func (a *App) currentCycleName() string {
	if c, ok := a.engine.CycleForDate(a.Now()); ok {
		return c.Name
	}
	return ""
}

// NeedsSetup reports whether the user should be asked to pick a mess:
// either setup never finished, or a new cycle started that the user has
// neither configured nor been prompted about.
func (a *App) NeedsSetup(ctx context.Context, userID string) (bool, error) {
	store := a.prefs.ForUser(userID)

	done, err := store.SetupComplete(ctx)
	if err != nil {
		return false, err
	}
	if !done {
		return true, nil
	}

	current := a.currentCycleName()
	if current == "" {
		return false, nil
	}
	if _, ok, err := store.PreferenceForCycle(ctx, current); err != nil || ok {
		return false, err
	}
	seen, err := store.LastSeenCycle(ctx)
	if err != nil {
		return false, err
	}
	return seen != current, nil
}

// CategoriesOn lists the categories served on the current date, for setup
// pickers.
func (a *App) CategoriesOn(ctx context.Context) ([]menu.CategoryInfo, error) {
	rctx, err := a.context(a.Now())
	if err != nil {
		return nil, err
	}
	return rctx.AvailableCategories, nil
}

// CompleteSetup stores category for the current cycle and finishes
// onboarding.
func (a *App) CompleteSetup(ctx context.Context, userID string, category menu.Category) error {
	rctx, err := a.context(a.Now())
	if err != nil {
		return err
	}
	if !rctx.HasCategory(category) {
		return fmt.Errorf("%w: %s", ErrCategoryUnavailable, category)
	}

	store := a.prefs.ForUser(userID)
	if err := store.SetPreferenceForCycle(ctx, rctx.CycleName, category); err != nil {
		return err
	}
	if err := store.MarkSetupComplete(ctx); err != nil {
		return err
	}
	return store.SetLastSeenCycle(ctx, rctx.CycleName)
}

// DismissCyclePrompt records that the user saw the new-cycle prompt
// without choosing.
func (a *App) DismissCyclePrompt(ctx context.Context, userID string) error {
	return a.prefs.ForUser(userID).SetLastSeenCycle(ctx, a.currentCycleName())
}

// SetPreference stores category for the named cycle. The category must be
// served when that cycle starts.
func (a *App) SetPreference(ctx context.Context, userID, cycleName string, category menu.Category) error {
	cycle, ok := a.engine.Cycles().ByName(cycleName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCycle, cycleName)
	}
	rctx, err := a.engine.ContextForCycle(cycle)
	if err != nil {
		return err
	}
	if rctx == nil || !rctx.HasCategory(category) {
		return fmt.Errorf("%w: %s in %s", ErrCategoryUnavailable, category, cycleName)
	}

	store := a.prefs.ForUser(userID)
	if err := store.SetPreferenceForCycle(ctx, cycleName, category); err != nil {
		return err
	}
	if cycleName == a.currentCycleName() {
		return store.SetLastSeenCycle(ctx, cycleName)
	}
	return nil
}

// CyclePreference is one cycle in the settings screen.
type CyclePreference struct {
	Cycle               menu.Cycle          `json:"cycle"`
	Category            menu.Category       `json:"category,omitempty"`
	CategoryLabel       string              `json:"category_label,omitempty"`
	AvailableCategories []menu.CategoryInfo `json:"available_categories"`
}

// PreferencesView is the previous, current and next cycle with the user's
// choice for each, plus every stored choice.
type PreferencesView struct {
	Previous *CyclePreference         `json:"previous,omitempty"`
	Current  *CyclePreference         `json:"current,omitempty"`
	Next     *CyclePreference         `json:"next,omitempty"`
	All      map[string]menu.Category `json:"all"`
}

// Preferences builds the settings view for a user.
func (a *App) Preferences(ctx context.Context, userID string) (*PreferencesView, error) {
	all, err := a.prefs.ForUser(userID).AllPreferences(ctx)
	if err != nil {
		return nil, err
	}

	n := a.engine.Cycles().Neighboring(a.Now())
	view := &PreferencesView{All: all}
	for _, slot := range []struct {
		cycle *menu.Cycle
		dst   **CyclePreference
	}{
		{n.Previous, &view.Previous},
		{n.Current, &view.Current},
		{n.Next, &view.Next},
	} {
		if slot.cycle == nil {
			continue
		}
		cp := &CyclePreference{Cycle: *slot.cycle}
		if cat, ok := all[slot.cycle.Name]; ok {
			cp.Category = cat
			cp.CategoryLabel = a.Catalog().Label(cat)
		}
		rctx, err := a.engine.ContextForCycle(*slot.cycle)
		if err != nil {
			return nil, err
		}
		if rctx != nil {
			cp.AvailableCategories = rctx.AvailableCategories
		}
		*slot.dst = cp
	}
	return view, nil
}

// ClearUserData forgets everything stored for the user.
func (a *App) ClearUserData(ctx context.Context, userID string) error {
	return a.prefs.ForUser(userID).ClearAll(ctx)
}
