package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/trackboard/internal/cli/formatter"
	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/alexanderramin/trackboard/internal/service"
	"github.com/alexanderramin/trackboard/internal/cli/views"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// trackboardHuhTheme returns a huh theme matching the CLI palette.
func trackboardHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// editValues backs the `issues edit` form. Every field is a string so huh
// can bind it directly.
type editValues struct {
	Name        string
	State       string
	Priority    string
	Target      string
	Estimate    string
	Description string
}

func newEditValues(is domain.Issue) editValues {
	v := editValues{
		Name:        is.Name,
		State:       is.StateID,
		Priority:    string(is.Priority),
		Target:      domain.FormatDate(is.TargetDate),
		Description: is.Description,
	}
	if is.EstimatePoint != nil {
		v.Estimate = strconv.Itoa(*is.EstimatePoint)
	}
	return v
}

// patch returns the changes the form made to is.
func (v editValues) patch(is domain.Issue, lookup domain.Lookup) (domain.IssuePatch, error) {
	before := newEditValues(is)
	var out domain.IssuePatch
	cells := []struct {
		column        string
		before, after string
	}{
		{"name", before.Name, v.Name},
		{"state", before.State, v.State},
		{"priority", before.Priority, v.Priority},
		{"target_date", before.Target, v.Target},
		{"estimate", before.Estimate, v.Estimate},
	}
	for _, c := range cells {
		if strings.TrimSpace(c.after) == strings.TrimSpace(c.before) {
			continue
		}
		p, err := views.ParseCell(c.column, c.after, lookup)
		if err != nil {
			return out, err
		}
		mergePatch(&out, p)
	}
	if v.Description != before.Description {
		desc := v.Description
		out.Description = &desc
	}
	return out, nil
}

func issueEditForm(v *editValues, meta service.Metadata) *huh.Form {
	states := append([]domain.State(nil), meta.States...)
	sort.SliceStable(states, func(i, j int) bool { return states[i].Sequence < states[j].Sequence })
	stateOpts := make([]huh.Option[string], 0, len(states))
	for _, s := range states {
		stateOpts = append(stateOpts, huh.NewOption(s.Name, s.ID))
	}
	prioOpts := make([]huh.Option[string], 0, len(domain.Priorities))
	for _, p := range domain.Priorities {
		prioOpts = append(prioOpts, huh.NewOption(domain.Title(string(p)), string(p)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&v.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("State").
				Options(stateOpts...).
				Value(&v.State),
			huh.NewSelect[string]().
				Title("Priority").
				Options(prioOpts...).
				Value(&v.Priority),
			huh.NewInput().
				Title("Target Date (YYYY-MM-DD, blank for none)").
				Placeholder(time.Now().Format(domain.DateLayout)).
				Value(&v.Target).
				Validate(validateOptionalDate),
			huh.NewInput().
				Title("Estimate").
				Value(&v.Estimate).
				Validate(validateNonNegativeInt),
			huh.NewText().
				Title("Description").
				Value(&v.Description),
		),
	).WithTheme(trackboardHuhTheme()).WithShowHelp(false)
}

// confirmForm asks a yes/no question.
func confirmForm(title string, result *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(result),
		),
	).WithTheme(trackboardHuhTheme()).WithShowHelp(false)
}

// validateOptionalDate accepts empty or YYYY-MM-DD.
func validateOptionalDate(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse(domain.DateLayout, s); err != nil {
		return fmt.Errorf("use YYYY-MM-DD format")
	}
	return nil
}

// validateNonNegativeInt accepts empty or a non-negative integer.
func validateNonNegativeInt(s string) error {
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return fmt.Errorf("enter a non-negative number")
	}
	return nil
}
