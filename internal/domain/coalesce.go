package domain

// CoalesceStr returns the first non-empty string from vals.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// StrPtr returns a pointer to s. Handy for building patches.
func StrPtr(s string) *string {
	return &s
}

// PriorityPtr returns a pointer to p.
func PriorityPtr(p Priority) *Priority {
	return &p
}

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 {
	return &f
}

// StringsPtr returns a pointer to a copy of s.
func StringsPtr(s ...string) *[]string {
	out := append([]string{}, s...)
	return &out
}
