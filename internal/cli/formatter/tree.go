package formatter

import (
	"strings"

	"github.com/alexanderramin/trackboard/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one node of an issue hierarchy.
type TreeItem struct {
	Key    string // issue key such as "WEB-3"; empty hides it
	Title  string
	Level  int
	IsLast bool
	Group  domain.StateGroup
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
)

// RenderTree renders items as an indented tree. Completed issues are dimmed
// with a ✔, started ones highlighted with a ▶, and details right-aligned.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type lineInfo struct {
		content string
		badge   string
	}
	lines := make([]lineInfo, len(items))
	maxContentWidth := 0

	for idx, item := range items {
		var prefix string
		if item.Level > 0 {
			prefix = strings.Repeat(treePipe, item.Level-1)
			if item.IsLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
		}

		title := item.Title
		if item.Key != "" {
			title = StyleDim.Render(item.Key+" ") + title
		}
		status := ""
		switch item.Group {
		case domain.StateCompleted, domain.StateCancelled:
			status = StyleGreen.Render("✔ ")
			title = Dim(title)
		case domain.StateStarted:
			status = StyleYellowBold.Render("▶ ")
			title = StyleYellowBold.Render(title)
		}

		lines[idx].content = prefix + status + title
		if item.Detail != "" {
			lines[idx].badge = StyleBlue.Render("[ " + item.Detail + " ]")
		}
		if w := lipgloss.Width(lines[idx].content); w > maxContentWidth {
			maxContentWidth = w
		}
	}

	var b strings.Builder
	for _, li := range lines {
		b.WriteString(li.content)
		if li.badge != "" {
			b.WriteString(strings.Repeat(" ", maxContentWidth-lipgloss.Width(li.content)))
			b.WriteString("  " + li.badge)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// IssueTree flattens issues into tree items rooted at the issues whose parent
// is not in the list. Children keep the input order.
func IssueTree(issues []domain.Issue, identifier string, detail func(domain.Issue) string) []TreeItem {
	present := make(map[string]bool, len(issues))
	children := make(map[string][]domain.Issue)
	for _, is := range issues {
		present[is.ID] = true
	}
	var roots []domain.Issue
	for _, is := range issues {
		if is.ParentID != "" && present[is.ParentID] {
			children[is.ParentID] = append(children[is.ParentID], is)
			continue
		}
		roots = append(roots, is)
	}

	var out []TreeItem
	var walk func(list []domain.Issue, level int)
	walk = func(list []domain.Issue, level int) {
		for i, is := range list {
			item := TreeItem{
				Key:    domain.IssueKey(identifier, is.SequenceID),
				Title:  is.Name,
				Level:  level,
				IsLast: i == len(list)-1,
				Group:  is.StateGroup,
			}
			if detail != nil {
				item.Detail = detail(is)
			}
			out = append(out, item)
			walk(children[is.ID], level+1)
		}
	}
	walk(roots, 0)
	return out
}
