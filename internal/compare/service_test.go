package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"phonepick/internal/archive"
	"phonepick/internal/catalog"
	"phonepick/internal/llm"
	"phonepick/internal/llmclient"
)

func testPhones() []catalog.Phone {
	return []catalog.Phone{
		{ID: "galaxy-a55", Name: "Samsung Galaxy A55", Brand: "Samsung", PriceINR: 38999, BatteryMAh: 5000, MainCameraMP: 50, DisplayInches: 6.6, RefreshRateHz: 120, RAMGB: 8, StorageGB: 128, ChargingWatts: 25, Has5G: true, WeightGrams: 213, OS: "Android 14"},
		{ID: "pixel-7a", Name: "Google Pixel 7a", Brand: "Google", PriceINR: 34999, BatteryMAh: 4385, MainCameraMP: 64, DisplayInches: 6.1, RefreshRateHz: 90, RAMGB: 8, StorageGB: 128, ChargingWatts: 18, Has5G: true, WeightGrams: 193, OS: "Android 14"},
		{ID: "nothing-phone-2a", Name: "Nothing Phone (2a)", Brand: "Nothing", PriceINR: 23999, BatteryMAh: 5000, MainCameraMP: 50, DisplayInches: 6.7, RefreshRateHz: 120, RAMGB: 8, StorageGB: 128, ChargingWatts: 45, Has5G: true, WeightGrams: 190, OS: "Android 14"},
		{ID: "redmi-note-13-pro", Name: "Redmi Note 13 Pro", Brand: "Xiaomi", PriceINR: 21999, BatteryMAh: 5100, MainCameraMP: 200, DisplayInches: 6.67, RefreshRateHz: 120, RAMGB: 8, StorageGB: 256, ChargingWatts: 67, Has5G: true, WeightGrams: 187, OS: "Android 13"},
		{ID: "moto-g54", Name: "Moto G54", Brand: "Motorola", PriceINR: 13999, BatteryMAh: 6000, MainCameraMP: 50, DisplayInches: 6.5, RefreshRateHz: 120, RAMGB: 8, StorageGB: 128, ChargingWatts: 33, Has5G: true, WeightGrams: 192, OS: "Android 13"},
		{ID: "redmi-12c", Name: "Redmi 12C", Brand: "Xiaomi", PriceINR: 8999, BatteryMAh: 5000, MainCameraMP: 50, DisplayInches: 6.71, RefreshRateHz: 60, RAMGB: 4, StorageGB: 64, ChargingWatts: 10, Has5G: false, WeightGrams: 192, OS: "Android 12"},
	}
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(testPhones())
	require.NoError(t, err)
	return cat
}

// scriptedResult builds a schema-valid reply that selects phones[selected],
// wrapped in the fenced block a real backend produces.
func scriptedResult(t *testing.T, phones []catalog.Phone, selected int) string {
	t.Helper()
	res := Result{
		SelectedPhone: Pick{
			PhoneID:       phones[selected].ID,
			PhoneName:     phones[selected].Name,
			Justification: "best fit for the stated priorities",
		},
		SpecComparisons: []SpecComparison{{
			Specification: "battery",
			Values:        map[string]string{},
			Winner:        phones[selected].Name,
			Analysis:      "largest cell in the set",
		}},
		BudgetAnalysis: BudgetAnalysis{WithinBudget: true, Analysis: "the pick fits the budget"},
		Summary:        "a solid all-rounder for the money",
		TradeOffs:      []TradeOff{},
	}
	for _, p := range phones {
		res.SpecComparisons[0].Values[p.Name] = fmt.Sprintf("%d mAh", p.BatteryMAh)
		res.Evaluations = append(res.Evaluations, Evaluation{
			PhoneID:        p.ID,
			PhoneName:      p.Name,
			Strengths:      []string{"good value"},
			Weaknesses:     []string{"average haptics"},
			PriorityScores: map[string]float64{"battery": 8, "camera": 7},
		})
	}
	if len(phones) > 1 {
		res.TradeOffs = append(res.TradeOffs, TradeOff{
			PhoneA:   phones[0].ID,
			PhoneB:   phones[1].ID,
			Analysis: "price against camera hardware",
		})
	}
	b, err := json.Marshal(res)
	require.NoError(t, err)
	return "Here is the comparison.\n```json\n" + string(b) + "\n```"
}

func newTestService(t *testing.T, store archive.Store, cacheSize int, fakes ...*llmclient.Fake) *Service {
	t.Helper()
	reg := llmclient.NewRegistry()
	ids := make([]string, 0, len(fakes))
	for _, f := range fakes {
		id := "fake:" + f.Name()
		require.NoError(t, reg.RegisterClient(id, f))
		ids = append(ids, id)
	}
	log := zaptest.NewLogger(t)
	svc, err := NewService(ServiceConfig{
		Catalog:   testCatalog(t),
		Chain:     llm.NewChain(reg, ids, 0, log),
		Archive:   store,
		CacheSize: cacheSize,
		Logger:    log,
	})
	require.NoError(t, err)
	return svc
}

func TestCompareFallsBackToSecondBackend(t *testing.T) {
	phones := testPhones()
	selection := []catalog.Phone{phones[1], phones[2], phones[3]}

	first := llmclient.NewFake("a", llmclient.FakeResponse{Text: "I could not produce structured output, sorry."})
	second := llmclient.NewFake("b", llmclient.FakeResponse{Text: scriptedResult(t, selection, 1)})
	svc := newTestService(t, nil, 0, first, second)

	out, err := svc.Compare(context.Background(), Request{
		PhoneIDs:   []string{"pixel-7a", "nothing-phone-2a", "redmi-note-13-pro"},
		Budget:     30000,
		Priorities: []string{"battery", "camera"},
	})
	require.NoError(t, err)

	assert.Equal(t, "nothing-phone-2a", out.Result.SelectedPhone.PhoneID)
	assert.Equal(t, "fake:b", out.Backend)
	assert.False(t, out.Cached)
	assert.Equal(t, 1, first.Calls())
	assert.Equal(t, 1, second.Calls())

	require.Len(t, out.Attempts, 2)
	assert.Equal(t, llm.StageExtract, out.Attempts[0].Stage)
	assert.NotEmpty(t, out.Attempts[0].Error)
	assert.Equal(t, llm.StageOK, out.Attempts[1].Stage)
}

func TestCompareInventedPhoneIDTriggersFallback(t *testing.T) {
	phones := testPhones()
	selection := []catalog.Phone{phones[1], phones[2]}

	// Swap the selected id for one outside the compared set.
	inventedReply := strings.ReplaceAll(scriptedResult(t, selection, 0), "pixel-7a", "iphone-15-pro")

	first := llmclient.NewFake("a", llmclient.FakeResponse{Text: inventedReply})
	second := llmclient.NewFake("b", llmclient.FakeResponse{Text: scriptedResult(t, selection, 1)})
	svc := newTestService(t, nil, 0, first, second)

	out, err := svc.Compare(context.Background(), Request{
		PhoneIDs:   []string{"pixel-7a", "nothing-phone-2a"},
		Priorities: []string{"value"},
	})
	require.NoError(t, err)

	assert.Equal(t, llm.StageValidate, out.Attempts[0].Stage)
	assert.Contains(t, out.Attempts[0].Error, "iphone-15-pro")
	assert.Equal(t, "nothing-phone-2a", out.Result.SelectedPhone.PhoneID)
	assert.Equal(t, 1, second.Calls())
}

func TestCompareRequestValidation(t *testing.T) {
	svc := newTestService(t, nil, 0, llmclient.NewFake("a"))

	cases := []struct {
		name  string
		req   Request
		field string
	}{
		{"negative budget", Request{Budget: -1, Priorities: []string{"battery"}}, "budget"},
		{"no priorities", Request{Budget: 20000}, "priorities"},
		{"unknown priority", Request{Budget: 20000, Priorities: []string{"vibes"}}, "priorities"},
		{"duplicate priority", Request{Budget: 20000, Priorities: []string{"battery", "battery"}}, "priorities"},
		{"duplicate phone id", Request{PhoneIDs: []string{"pixel-7a", "pixel-7a"}, Priorities: []string{"battery"}}, "phone_ids"},
		{"unknown phone id", Request{PhoneIDs: []string{"no-such-phone"}, Priorities: []string{"battery"}}, "phone_ids"},
		{"too many phones", Request{PhoneIDs: []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9"}, Priorities: []string{"battery"}}, "phone_ids"},
		{"neither ids nor budget", Request{Priorities: []string{"battery"}}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Compare(context.Background(), tc.req)
			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			assert.Equal(t, tc.field, reqErr.Field)
		})
	}
}

func TestComparePrioritiesAreCaseInsensitive(t *testing.T) {
	phones := testPhones()
	selection := []catalog.Phone{phones[1], phones[2]}
	fake := llmclient.NewFake("a", llmclient.FakeResponse{Text: scriptedResult(t, selection, 0)})
	svc := newTestService(t, nil, 0, fake)

	out, err := svc.Compare(context.Background(), Request{
		PhoneIDs:   []string{"pixel-7a", "nothing-phone-2a"},
		Priorities: []string{" Battery ", "CAMERA"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"battery", "camera"}, out.Request.Priorities)
}

func TestCompareEmptyNarrowedCatalogIsPrecondition(t *testing.T) {
	fake := llmclient.NewFake("a")
	svc := newTestService(t, nil, 0, fake)

	_, err := svc.Compare(context.Background(), Request{
		Budget:     5000, // cheapest phone is 8999, headroom tops out at 6250
		Priorities: []string{"value"},
	})
	var pre *llm.PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, 0, fake.Calls())
}

func TestCompareBudgetNarrowing(t *testing.T) {
	phones := testPhones()
	within := []catalog.Phone{phones[1], phones[2], phones[3], phones[4], phones[5]}
	fake := llmclient.NewFake("a", llmclient.FakeResponse{Text: scriptedResult(t, within, 0)})
	svc := newTestService(t, nil, 0, fake)

	out, err := svc.Compare(context.Background(), Request{
		Budget:     30000,
		Priorities: []string{"battery"},
	})
	require.NoError(t, err)

	// 25% headroom over 30000 admits the 34999 Pixel but not the 38999
	// Galaxy; order is most expensive first.
	ids := make([]string, len(out.Phones))
	for i, p := range out.Phones {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"pixel-7a", "nothing-phone-2a", "redmi-note-13-pro", "moto-g54", "redmi-12c"}, ids)
}

func TestCompareFiveGOnlyExcludesLTEPhones(t *testing.T) {
	phones := testPhones()
	within := []catalog.Phone{phones[1], phones[2], phones[3], phones[4]}
	fake := llmclient.NewFake("a", llmclient.FakeResponse{Text: scriptedResult(t, within, 0)})
	svc := newTestService(t, nil, 0, fake)

	out, err := svc.Compare(context.Background(), Request{
		Budget:     30000,
		FiveGOnly:  true,
		Priorities: []string{"battery"},
	})
	require.NoError(t, err)
	for _, p := range out.Phones {
		assert.True(t, p.Has5G, "phone %s should be 5G", p.ID)
	}
	assert.NotContains(t, idsOf(out.Phones), "redmi-12c")
}

func idsOf(phones []catalog.Phone) []string {
	ids := make([]string, len(phones))
	for i, p := range phones {
		ids[i] = p.ID
	}
	return ids
}

func TestCompareExplicitIDsKeepRequestOrder(t *testing.T) {
	phones := testPhones()
	selection := []catalog.Phone{phones[3], phones[1]}
	fake := llmclient.NewFake("a", llmclient.FakeResponse{Text: scriptedResult(t, selection, 0)})
	svc := newTestService(t, nil, 0, fake)

	out, err := svc.Compare(context.Background(), Request{
		PhoneIDs:   []string{"redmi-note-13-pro", "pixel-7a"},
		Priorities: []string{"camera"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"redmi-note-13-pro", "pixel-7a"}, idsOf(out.Phones))
}

func TestCompareCacheReplaysOutcome(t *testing.T) {
	phones := testPhones()
	selection := []catalog.Phone{phones[1], phones[2]}
	// One scripted reply only: a second backend call would exhaust the
	// script and fail the run.
	fake := llmclient.NewFake("a", llmclient.FakeResponse{Text: scriptedResult(t, selection, 0)})
	svc := newTestService(t, nil, 8, fake)

	req := Request{
		PhoneIDs:   []string{"pixel-7a", "nothing-phone-2a"},
		Priorities: []string{"battery", "value"},
	}
	first, err := svc.Compare(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Compare(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Result.SelectedPhone, second.Result.SelectedPhone)
	assert.Equal(t, 1, fake.Calls())

	// Replay must not mutate the cached entry.
	assert.False(t, first.Cached)
}

func TestCompareDistinctRequestsMissCache(t *testing.T) {
	phones := testPhones()
	selection := []catalog.Phone{phones[1], phones[2]}
	fake := llmclient.NewFake("a",
		llmclient.FakeResponse{Text: scriptedResult(t, selection, 0)},
		llmclient.FakeResponse{Text: scriptedResult(t, selection, 1)},
	)
	svc := newTestService(t, nil, 8, fake)

	_, err := svc.Compare(context.Background(), Request{
		PhoneIDs:   []string{"pixel-7a", "nothing-phone-2a"},
		Priorities: []string{"battery"},
	})
	require.NoError(t, err)

	_, err = svc.Compare(context.Background(), Request{
		PhoneIDs:   []string{"pixel-7a", "nothing-phone-2a"},
		Priorities: []string{"camera"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Calls())
}

func TestCompareArchivesOutcome(t *testing.T) {
	phones := testPhones()
	selection := []catalog.Phone{phones[1], phones[2]}
	fake := llmclient.NewFake("a", llmclient.FakeResponse{Text: scriptedResult(t, selection, 0)})
	store := archive.NewMemoryStore()
	svc := newTestService(t, store, 0, fake)

	out, err := svc.Compare(context.Background(), Request{
		PhoneIDs:   []string{"pixel-7a", "nothing-phone-2a"},
		Priorities: []string{"display"},
	})
	require.NoError(t, err)

	ids, err := store.List(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{out.ID}, ids)

	b, err := store.Get(context.Background(), out.ID)
	require.NoError(t, err)
	var stored Outcome
	require.NoError(t, json.Unmarshal(b, &stored))
	assert.Equal(t, out.ID, stored.ID)
	assert.Equal(t, out.Result.SelectedPhone, stored.Result.SelectedPhone)
}

func TestCompareAllBackendsFailed(t *testing.T) {
	first := llmclient.NewFake("a", llmclient.FakeResponse{Text: "no json here"})
	second := llmclient.NewFake("b", llmclient.FakeResponse{Text: "still no json"})
	svc := newTestService(t, nil, 0, first, second)

	_, err := svc.Compare(context.Background(), Request{
		PhoneIDs:   []string{"pixel-7a"},
		Priorities: []string{"battery"},
	})
	var all *llm.AllFailedError
	require.ErrorAs(t, err, &all)
	assert.Len(t, all.Attempts, 2)
}
