package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phonepick/internal/catalog"
)

func testPhones() []catalog.Phone {
	return []catalog.Phone{
		{
			ID: "pixel-8a", Name: "Pixel 8a", Brand: "Google", PriceINR: 52999,
			BatteryMAh: 4492, MainCameraMP: 64, DisplayInches: 6.1, RefreshRateHz: 120,
			RAMGB: 8, StorageGB: 128, ChargingWatts: 18, Has5G: true, WeightGrams: 188,
			OS: "Android 14", Features: []string{"wireless charging", "IP67"},
		},
		{
			ID: "redmi-note-13", Name: "Redmi Note 13", Brand: "Xiaomi", PriceINR: 16999,
			BatteryMAh: 5000, MainCameraMP: 108, DisplayInches: 6.67, RefreshRateHz: 120,
			RAMGB: 6, StorageGB: 128, ChargingWatts: 33, Has5G: false, WeightGrams: 188,
			OS: "Android 13",
		},
	}
}

func TestBuildRejectsEmptyPhones(t *testing.T) {
	_, err := Build(nil, 30000, []string{"battery"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no phones")
}

func TestBuildRejectsEmptyPriorities(t *testing.T) {
	_, err := Build(testPhones(), 30000, nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no priorities")
}

func TestBuildSectionsInOrder(t *testing.T) {
	out, err := Build(testPhones(), 30000, []string{"battery", "camera"}, "needs a headphone jack")
	require.NoError(t, err)

	order := []string{"[PHONES]", "[BUDGET]", "[PRIORITIES]", "[NOTES]", "[TASK]", "[OUTPUT]"}
	last := -1
	for _, section := range order {
		idx := strings.Index(out, section)
		require.GreaterOrEqual(t, idx, 0, "missing section %s", section)
		assert.Greater(t, idx, last, "section %s out of order", section)
		last = idx
	}
}

func TestBuildRendersPhoneAttributes(t *testing.T) {
	out, err := Build(testPhones(), 30000, []string{"battery"}, "")
	require.NoError(t, err)

	assert.Contains(t, out, "1. Pixel 8a (id: pixel-8a)")
	assert.Contains(t, out, "₹52,999 (premium)")
	assert.Contains(t, out, "4492 mAh")
	assert.Contains(t, out, "- 5G: Yes")
	assert.Contains(t, out, "2. Redmi Note 13 (id: redmi-note-13)")
	assert.Contains(t, out, "- 5G: No")
	assert.Contains(t, out, "Features: wireless charging, IP67")
}

func TestBuildRendersBudgetAndPriorities(t *testing.T) {
	out, err := Build(testPhones(), 30000, []string{"camera", "battery"}, "")
	require.NoError(t, err)

	assert.Contains(t, out, "[BUDGET]\n₹30,000")
	assert.Contains(t, out, "1. camera (Camera quality)")
	assert.Contains(t, out, "2. battery (Battery life)")
	camIdx := strings.Index(out, "1. camera")
	batIdx := strings.Index(out, "2. battery")
	assert.Less(t, camIdx, batIdx, "priorities must keep the user's order")
	assert.Contains(t, out, "above_budget_pick")
}

func TestBuildWithoutBudget(t *testing.T) {
	out, err := Build(testPhones(), 0, []string{"value"}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "No budget specified")
	assert.NotContains(t, out, "Prefer phones within [BUDGET]")
}

func TestBuildOmitsEmptyNotes(t *testing.T) {
	out, err := Build(testPhones(), 30000, []string{"battery"}, "   ")
	require.NoError(t, err)
	assert.NotContains(t, out, "[NOTES]")
}

func TestBuildOutputContractNamesEveryField(t *testing.T) {
	out, err := Build(testPhones(), 30000, []string{"battery"}, "")
	require.NoError(t, err)

	for _, field := range []string{
		"selected_phone", "runner_up", "phone_evaluations", "priority_scores",
		"trade_offs", "spec_comparisons", "budget_analysis", "within_budget",
		"above_budget_pick", "summary",
	} {
		assert.Contains(t, out, field)
	}
	assert.Contains(t, out, "single JSON object")
}

func TestBuildSkeletonUsesPriorityKeys(t *testing.T) {
	out, err := Build(testPhones(), 30000, []string{"battery", "camera"}, "")
	require.NoError(t, err)
	assert.Contains(t, out, `"priority_scores": {"battery": 0, "camera": 0}`)
}

func TestBuildIsDeterministic(t *testing.T) {
	first, err := Build(testPhones(), 30000, []string{"battery", "camera"}, "note")
	require.NoError(t, err)
	second, err := Build(testPhones(), 30000, []string{"battery", "camera"}, "note")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFormatINR(t *testing.T) {
	assert.Equal(t, "₹999", formatINR(999))
	assert.Equal(t, "₹1,000", formatINR(1000))
	assert.Equal(t, "₹74,999", formatINR(74999))
	assert.Equal(t, "₹1,19,900", formatINR(119900))
	assert.Equal(t, "₹12,34,567", formatINR(1234567))
	assert.Equal(t, "₹0", formatINR(0))
}

func TestLabel(t *testing.T) {
	l, ok := Label("battery")
	require.True(t, ok)
	assert.Equal(t, "Battery life", l)

	_, ok = Label("ringtones")
	assert.False(t, ok)
}
