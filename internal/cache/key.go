// Package cache is a keyed, revalidating cache for API resources.
package cache

import (
	"net/url"
	"strings"
)

// Key identifies one cached resource. Keys are comparable and never change
// after construction; two keys built from the same inputs are equal.
type Key struct {
	Resource  string
	Workspace string
	Project   string
	Scope     string
	ScopeID   string
	Query     string
}

// NewKey builds a key, serialising params deterministically. Empty param
// values are dropped.
func NewKey(resource, workspace, project string, params map[string]string) Key {
	return Key{
		Resource:  resource,
		Workspace: workspace,
		Project:   project,
		Query:     encodeParams(params),
	}
}

// WithScope returns a copy of k narrowed to a cycle, module or view.
func (k Key) WithScope(scope, id string) Key {
	k.Scope = scope
	k.ScopeID = id
	return k
}

// String renders the key as a path-like string, e.g.
// "issues:acme/p1/cycle/c1?group_by=state".
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Resource)
	b.WriteByte(':')
	b.WriteString(k.Workspace)
	if k.Project != "" {
		b.WriteByte('/')
		b.WriteString(k.Project)
	}
	if k.Scope != "" {
		b.WriteByte('/')
		b.WriteString(k.Scope)
		b.WriteByte('/')
		b.WriteString(k.ScopeID)
	}
	if k.Query != "" {
		b.WriteByte('?')
		b.WriteString(k.Query)
	}
	return b.String()
}

func encodeParams(params map[string]string) string {
	v := url.Values{}
	for name, val := range params {
		if val == "" {
			continue
		}
		v.Set(name, val)
	}
	// url.Values.Encode sorts by key.
	return v.Encode()
}
