package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,11}$`)

type Project struct {
	ID         string
	Workspace  string
	Identifier string
	Name       string
}

// ValidateIdentifier checks that Identifier is non-empty and matches the
// required format: an uppercase letter followed by up to 11 uppercase letters
// or digits (e.g. WEB, API2).
func (p *Project) ValidateIdentifier() error {
	if p.Identifier == "" {
		return fmt.Errorf("project identifier is required")
	}
	if !identifierPattern.MatchString(p.Identifier) {
		return fmt.Errorf("project identifier %q must be 1-12 uppercase letters or digits starting with a letter", p.Identifier)
	}
	return nil
}

// IssueKey returns the human issue reference, e.g. "WEB-42".
func (p *Project) IssueKey(sequenceID int) string {
	return IssueKey(p.Identifier, sequenceID)
}

// IssueKey formats an issue reference from a project identifier and a
// sequence number.
func IssueKey(identifier string, sequenceID int) string {
	if identifier == "" {
		return "#" + strconv.Itoa(sequenceID)
	}
	return identifier + "-" + strconv.Itoa(sequenceID)
}

// ParseIssueKey splits "WEB-42" into its identifier and sequence. Plain
// numbers and "#42" parse with an empty identifier.
func ParseIssueKey(s string) (identifier string, seq int, ok bool) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "#"))
	if idx := strings.LastIndex(s, "-"); idx >= 0 {
		identifier = strings.ToUpper(s[:idx])
		s = s[idx+1:]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", 0, false
	}
	return identifier, n, true
}

type State struct {
	ID        string
	ProjectID string
	Name      string
	Group     StateGroup
	Color     string
	Sequence  float64
}

type Label struct {
	ID        string
	ProjectID string
	Name      string
	Color     string
}

type Member struct {
	ID          string
	DisplayName string
	Email       string
}
