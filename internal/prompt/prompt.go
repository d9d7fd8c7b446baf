// Package prompt renders a comparison request into the single instruction
// string sent to the generative backends. Rendering is deterministic: the
// same request always produces byte-identical output.
package prompt

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"phonepick/internal/catalog"
)

var priorityOrder = []string{"battery", "camera", "display", "performance", "storage", "value"}

var priorityLabels = map[string]string{
	"battery":     "Battery life",
	"camera":      "Camera quality",
	"display":     "Display quality",
	"performance": "Performance",
	"storage":     "Storage and memory",
	"value":       "Value for money",
}

// Priorities returns every priority a request may rank, in canonical order.
func Priorities() []string {
	return append([]string(nil), priorityOrder...)
}

// Label returns the human-readable form of a priority, or ok=false for an
// unknown one.
func Label(priority string) (string, bool) {
	l, ok := priorityLabels[priority]
	return l, ok
}

// Build renders the instruction prompt for comparing phones under the given
// budget (0 means none), priorities (in the user's order), and optional
// free-text notes. It fails before any backend can be called when phones or
// priorities are empty.
func Build(phones []catalog.Phone, budget int, priorities []string, notes string) (string, error) {
	if len(phones) == 0 {
		return "", fmt.Errorf("prompt: no phones to compare")
	}
	if len(priorities) == 0 {
		return "", fmt.Errorf("prompt: no priorities given")
	}

	var buf bytes.Buffer
	writeSection(&buf, "PHONES", formatPhones(phones))
	writeSection(&buf, "BUDGET", formatBudget(budget))
	writeSection(&buf, "PRIORITIES", formatPriorities(priorities))
	writeSection(&buf, "NOTES", strings.TrimSpace(notes))
	writeSection(&buf, "TASK", formatList(taskRules(budget)))
	writeSection(&buf, "OUTPUT", formatOutput(priorities))
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func formatPhones(phones []catalog.Phone) string {
	var buf strings.Builder
	for i, p := range phones {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "%d. %s (id: %s)\n", i+1, p.Name, p.ID)
		fmt.Fprintf(&buf, "   - Brand: %s\n", p.Brand)
		fmt.Fprintf(&buf, "   - Price: %s (%s)\n", formatINR(p.PriceINR), p.PriceBand())
		fmt.Fprintf(&buf, "   - Battery: %d mAh\n", p.BatteryMAh)
		fmt.Fprintf(&buf, "   - Main camera: %d MP\n", p.MainCameraMP)
		fmt.Fprintf(&buf, "   - Display: %.2f inch, %d Hz\n", p.DisplayInches, p.RefreshRateHz)
		fmt.Fprintf(&buf, "   - Memory: %d GB RAM, %d GB storage\n", p.RAMGB, p.StorageGB)
		fmt.Fprintf(&buf, "   - Charging: %d W\n", p.ChargingWatts)
		fmt.Fprintf(&buf, "   - 5G: %s\n", yesNo(p.Has5G))
		fmt.Fprintf(&buf, "   - Weight: %d g\n", p.WeightGrams)
		fmt.Fprintf(&buf, "   - OS: %s\n", p.OS)
		if len(p.Features) > 0 {
			fmt.Fprintf(&buf, "   - Features: %s\n", strings.Join(p.Features, ", "))
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatBudget(budget int) string {
	if budget <= 0 {
		return "No budget specified; judge value for money on absolute terms."
	}
	return formatINR(budget)
}

func formatPriorities(priorities []string) string {
	var buf strings.Builder
	for i, p := range priorities {
		label, ok := priorityLabels[p]
		if !ok {
			label = p
		}
		fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, p, label)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func taskRules(budget int) []string {
	rules := []string{
		"Compare using the concrete numbers in [PHONES] (mAh, MP, Hz, W, GB, grams); avoid vague claims.",
		"Score every priority in [PRIORITIES] from 0 to 10 for every phone.",
		"Weigh priorities in the order listed; the first priority matters most.",
		"Select exactly one phone from [PHONES] as selected_phone. Never invent a phone, and copy ids exactly.",
	}
	if budget > 0 {
		rules = append(rules,
			"Prefer phones within [BUDGET]. An above-budget phone may appear only as budget_analysis.above_budget_pick, and only when it is materially better.")
	}
	return rules
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func formatOutput(priorities []string) string {
	var buf strings.Builder
	buf.WriteString("Respond with a single JSON object and nothing else: no markdown fences, no prose outside the JSON. Fields:\n")
	buf.WriteString(formatFields(outputFields()))
	buf.WriteString("\n\nShape:\n")
	buf.WriteString(skeleton(priorities))
	return buf.String()
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}

// formatINR renders an amount with Indian digit grouping and the rupee sign,
// e.g. 119900 -> ₹1,19,900.
func formatINR(v int) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.Itoa(v)
	if len(s) > 3 {
		head, tail := s[:len(s)-3], s[len(s)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		parts = append([]string{head}, parts...)
		s = strings.Join(parts, ",") + "," + tail
	}
	if neg {
		s = "-" + s
	}
	return "₹" + s
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
