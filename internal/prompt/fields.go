package prompt

import (
	"fmt"
	"strings"
)

// Field describes one output field in the JSON contract embedded in the
// prompt.
type Field struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

func outputFields() []Field {
	return []Field{
		{"selected_phone", "object", true, "the best matching phone"},
		{"selected_phone.phone_id", "string", true, "id copied exactly from [PHONES]"},
		{"selected_phone.phone_name", "string", true, "name copied from [PHONES]"},
		{"selected_phone.justification", "string", true, "why it wins, citing concrete numbers"},
		{"runner_up", "object or null", false, "second-best phone, same fields as selected_phone"},
		{"phone_evaluations", "array", true, "one entry per phone in [PHONES]"},
		{"phone_evaluations[].phone_id", "string", true, ""},
		{"phone_evaluations[].phone_name", "string", true, ""},
		{"phone_evaluations[].strengths", "array of string", true, ""},
		{"phone_evaluations[].weaknesses", "array of string", true, ""},
		{"phone_evaluations[].priority_scores", "object", true, "number 0-10 per priority; keys exactly as written in [PRIORITIES]"},
		{"trade_offs", "array", true, "pairwise trade-offs between the phones"},
		{"trade_offs[].phone_a", "string", true, "phone id"},
		{"trade_offs[].phone_b", "string", true, "phone id"},
		{"trade_offs[].analysis", "string", true, ""},
		{"spec_comparisons", "array", true, "one entry per specification compared"},
		{"spec_comparisons[].specification", "string", true, "e.g. battery_mah"},
		{"spec_comparisons[].values", "object", true, "phone name -> value as text"},
		{"spec_comparisons[].winner", "string", true, "phone name winning this specification"},
		{"spec_comparisons[].analysis", "string", true, ""},
		{"budget_analysis", "object", true, ""},
		{"budget_analysis.within_budget", "boolean", true, "true when selected_phone fits [BUDGET]"},
		{"budget_analysis.analysis", "string", true, ""},
		{"budget_analysis.above_budget_pick", "object or null", false, "materially better above-budget option, same fields as selected_phone"},
		{"summary", "string", true, "two or three sentence overall verdict"},
	}
}

func formatFields(fields []Field) string {
	var buf strings.Builder
	for _, f := range fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		if f.Description != "" {
			fmt.Fprintf(&buf, "- %s (%s, %s): %s\n", f.Name, f.Type, req, f.Description)
		} else {
			fmt.Fprintf(&buf, "- %s (%s, %s)\n", f.Name, f.Type, req)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

// skeleton renders a minimal example of the expected object with the
// request's priorities as score keys.
func skeleton(priorities []string) string {
	var scores strings.Builder
	for i, p := range priorities {
		if i > 0 {
			scores.WriteString(", ")
		}
		fmt.Fprintf(&scores, "%q: 0", p)
	}
	return fmt.Sprintf(`{
  "selected_phone": {"phone_id": "", "phone_name": "", "justification": ""},
  "runner_up": null,
  "phone_evaluations": [
    {"phone_id": "", "phone_name": "", "strengths": [""], "weaknesses": [""], "priority_scores": {%s}}
  ],
  "trade_offs": [
    {"phone_a": "", "phone_b": "", "analysis": ""}
  ],
  "spec_comparisons": [
    {"specification": "", "values": {"": ""}, "winner": "", "analysis": ""}
  ],
  "budget_analysis": {"within_budget": true, "analysis": "", "above_budget_pick": null},
  "summary": ""
}`, scores.String())
}
