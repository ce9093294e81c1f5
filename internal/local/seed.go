package local

import (
	"fmt"
	"os"
	"strings"

	"github.com/alexanderramin/trackboard/internal/domain"
	"gopkg.in/yaml.v3"
)

// Seed is the import file format. YAML and JSON are both accepted. Entities
// refer to each other by ref; ids are generated where omitted.
type Seed struct {
	Project SeedProject  `yaml:"project" json:"project"`
	States  []SeedState  `yaml:"states" json:"states"`
	Labels  []SeedLabel  `yaml:"labels" json:"labels"`
	Members []SeedMember `yaml:"members" json:"members"`
	Issues  []SeedIssue  `yaml:"issues" json:"issues"`
}

type SeedProject struct {
	Workspace  string `yaml:"workspace" json:"workspace"`
	Identifier string `yaml:"identifier" json:"identifier"`
	Name       string `yaml:"name" json:"name"`
}

type SeedState struct {
	Ref   string `yaml:"ref" json:"ref"`
	ID    string `yaml:"id,omitempty" json:"id,omitempty"`
	Name  string `yaml:"name" json:"name"`
	Group string `yaml:"group" json:"group"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

type SeedLabel struct {
	Ref   string `yaml:"ref" json:"ref"`
	ID    string `yaml:"id,omitempty" json:"id,omitempty"`
	Name  string `yaml:"name" json:"name"`
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

type SeedMember struct {
	Ref         string `yaml:"ref" json:"ref"`
	ID          string `yaml:"id,omitempty" json:"id,omitempty"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Email       string `yaml:"email,omitempty" json:"email,omitempty"`
}

type SeedIssue struct {
	Ref           string   `yaml:"ref" json:"ref"`
	ID            string   `yaml:"id,omitempty" json:"id,omitempty"`
	Name          string   `yaml:"name" json:"name"`
	Description   string   `yaml:"description,omitempty" json:"description,omitempty"`
	State         string   `yaml:"state,omitempty" json:"state,omitempty"`
	Priority      string   `yaml:"priority,omitempty" json:"priority,omitempty"`
	Assignees     []string `yaml:"assignees,omitempty" json:"assignees,omitempty"`
	Labels        []string `yaml:"labels,omitempty" json:"labels,omitempty"`
	StartDate     string   `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	TargetDate    string   `yaml:"target_date,omitempty" json:"target_date,omitempty"`
	SortOrder     *float64 `yaml:"sort_order,omitempty" json:"sort_order,omitempty"`
	Cycle         string   `yaml:"cycle,omitempty" json:"cycle,omitempty"`
	Module        string   `yaml:"module,omitempty" json:"module,omitempty"`
	Parent        string   `yaml:"parent,omitempty" json:"parent,omitempty"`
	EstimatePoint *int     `yaml:"estimate_point,omitempty" json:"estimate_point,omitempty"`
	CreatedBy     string   `yaml:"created_by,omitempty" json:"created_by,omitempty"`
}

// LoadSeed reads a seed file. JSON parses as YAML, so one decoder serves both.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return &seed, nil
}

// ValidateSeed checks a seed before import and returns every problem found.
func ValidateSeed(seed *Seed) []error {
	var errs []error

	p := domain.Project{Identifier: strings.ToUpper(seed.Project.Identifier)}
	if err := p.ValidateIdentifier(); err != nil {
		errs = append(errs, fmt.Errorf("project.identifier: %w", err))
	}
	if seed.Project.Name == "" {
		errs = append(errs, fmt.Errorf("project.name is required"))
	}

	stateRefs := make(map[string]bool)
	for i, s := range seed.States {
		prefix := fmt.Sprintf("states[%d]", i)
		errs = append(errs, checkRef(prefix, s.Ref, stateRefs)...)
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if domain.StateGroupRank(domain.StateGroup(s.Group)) >= len(domain.StateGroups) {
			errs = append(errs, fmt.Errorf("%s.group: invalid value %q", prefix, s.Group))
		}
	}

	labelRefs := make(map[string]bool)
	for i, l := range seed.Labels {
		prefix := fmt.Sprintf("labels[%d]", i)
		errs = append(errs, checkRef(prefix, l.Ref, labelRefs)...)
		if l.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
	}

	memberRefs := make(map[string]bool)
	for i, m := range seed.Members {
		prefix := fmt.Sprintf("members[%d]", i)
		errs = append(errs, checkRef(prefix, m.Ref, memberRefs)...)
		if m.DisplayName == "" {
			errs = append(errs, fmt.Errorf("%s.display_name is required", prefix))
		}
	}

	issueRefs := make(map[string]bool)
	for i, is := range seed.Issues {
		prefix := fmt.Sprintf("issues[%d]", i)
		errs = append(errs, checkRef(prefix, is.Ref, issueRefs)...)
		if is.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if is.State != "" && !stateRefs[is.State] {
			errs = append(errs, fmt.Errorf("%s.state: ref %q not found", prefix, is.State))
		}
		if is.Priority != "" {
			if _, ok := domain.ParsePriority(is.Priority); !ok {
				errs = append(errs, fmt.Errorf("%s.priority: invalid value %q", prefix, is.Priority))
			}
		}
		for _, a := range is.Assignees {
			if !memberRefs[a] {
				errs = append(errs, fmt.Errorf("%s.assignees: ref %q not found", prefix, a))
			}
		}
		for _, l := range is.Labels {
			if !labelRefs[l] {
				errs = append(errs, fmt.Errorf("%s.labels: ref %q not found", prefix, l))
			}
		}
		if is.CreatedBy != "" && !memberRefs[is.CreatedBy] {
			errs = append(errs, fmt.Errorf("%s.created_by: ref %q not found", prefix, is.CreatedBy))
		}
		if is.Parent != "" && (!issueRefs[is.Parent] || is.Parent == is.Ref) {
			errs = append(errs, fmt.Errorf("%s.parent: ref %q not found (must appear earlier in issues list)", prefix, is.Parent))
		}
		errs = append(errs, checkDate(prefix+".start_date", is.StartDate)...)
		errs = append(errs, checkDate(prefix+".target_date", is.TargetDate)...)
	}

	return errs
}

// checkRef validates a ref and records it. Refs are checked after insertion
// so a parent must come before its children.
func checkRef(prefix, ref string, seen map[string]bool) []error {
	if ref == "" {
		return []error{fmt.Errorf("%s.ref is required", prefix)}
	}
	if seen[ref] {
		return []error{fmt.Errorf("%s.ref: duplicate ref %q", prefix, ref)}
	}
	seen[ref] = true
	return nil
}

func checkDate(field, s string) []error {
	if s == "" {
		return nil
	}
	if _, err := domain.ParseDate(s); err != nil {
		return []error{fmt.Errorf("%s: invalid date format %q (expected YYYY-MM-DD)", field, s)}
	}
	return nil
}

// formatValidationErrors joins seed problems into one error.
func formatValidationErrors(errs []error) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = "  - " + e.Error()
	}
	return fmt.Errorf("seed validation failed with %d error(s):\n%s", len(errs), strings.Join(msgs, "\n"))
}
