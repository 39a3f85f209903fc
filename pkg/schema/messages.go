package schema

// Messages overrides issue messages. Keys are "field/keyword" for one
// field or a bare "keyword" for every field; the more specific key wins.
type Messages map[string]string

// Apply returns issue with its message replaced when an override exists.
func (m Messages) Apply(issue Issue) Issue {
	if msg, ok := m[issue.Field+"/"+issue.Keyword]; ok {
		issue.Message = msg
		return issue
	}
	if msg, ok := m[issue.Keyword]; ok {
		issue.Message = msg
	}
	return issue
}

// Group applies m to issues and groups the messages by field, keeping
// their order.
func (m Messages) Group(issues []Issue) map[string][]string {
	if len(issues) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, issue := range issues {
		issue = m.Apply(issue)
		out[issue.Field] = append(out[issue.Field], issue.Message)
	}
	return out
}
