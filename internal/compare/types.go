package compare

import (
	"fmt"
	"time"

	"phonepick/internal/catalog"
	"phonepick/internal/llm"
)

// Request is one user comparison submission. Either an explicit phone
// selection or a budget must be present; priorities are ranked in the
// user's order.
type Request struct {
	PhoneIDs   []string `json:"phone_ids,omitempty"`
	Budget     int      `json:"budget,omitempty"`
	Priorities []string `json:"priorities"`
	FiveGOnly  bool     `json:"five_g_only,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Pick names one phone plus the model's reasoning for choosing it.
type Pick struct {
	PhoneID       string `json:"phone_id"`
	PhoneName     string `json:"phone_name"`
	Justification string `json:"justification"`
}

// Evaluation scores one phone against every requested priority.
type Evaluation struct {
	PhoneID        string             `json:"phone_id"`
	PhoneName      string             `json:"phone_name"`
	Strengths      []string           `json:"strengths"`
	Weaknesses     []string           `json:"weaknesses"`
	PriorityScores map[string]float64 `json:"priority_scores"`
}

type TradeOff struct {
	PhoneA   string `json:"phone_a"`
	PhoneB   string `json:"phone_b"`
	Analysis string `json:"analysis"`
}

// SpecComparison compares one specification across all phones; values are
// keyed by phone name.
type SpecComparison struct {
	Specification string            `json:"specification"`
	Values        map[string]string `json:"values"`
	Winner        string            `json:"winner"`
	Analysis      string            `json:"analysis"`
}

type BudgetAnalysis struct {
	WithinBudget    bool   `json:"within_budget"`
	Analysis        string `json:"analysis"`
	AboveBudgetPick *Pick  `json:"above_budget_pick,omitempty"`
}

// Result is the validated structured output of one comparison. Every phone
// id it references is guaranteed to belong to the compared set.
type Result struct {
	SelectedPhone   Pick             `json:"selected_phone"`
	RunnerUp        *Pick            `json:"runner_up,omitempty"`
	Evaluations     []Evaluation     `json:"phone_evaluations"`
	TradeOffs       []TradeOff       `json:"trade_offs"`
	SpecComparisons []SpecComparison `json:"spec_comparisons"`
	BudgetAnalysis  BudgetAnalysis   `json:"budget_analysis"`
	Summary         string           `json:"summary"`
}

// AttemptInfo is the wire form of one backend attempt.
type AttemptInfo struct {
	Backend   string `json:"backend"`
	Stage     string `json:"stage"`
	Error     string `json:"error,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

func AttemptInfoFrom(a llm.Attempt) AttemptInfo {
	info := AttemptInfo{
		Backend:   a.Backend,
		Stage:     a.Stage,
		ElapsedMS: a.Elapsed.Milliseconds(),
	}
	if a.Err != nil {
		info.Error = a.Err.Error()
	}
	return info
}

// Outcome wraps a Result with the run's metadata. Archived outcomes are
// replayed byte-for-byte; Cached marks replays from the in-process cache.
type Outcome struct {
	ID        string          `json:"id"`
	Request   Request         `json:"request"`
	Phones    []catalog.Phone `json:"phones"`
	Result    Result          `json:"result"`
	Backend   string          `json:"backend"`
	Attempts  []AttemptInfo   `json:"attempts"`
	Cached    bool            `json:"cached"`
	CreatedAt time.Time       `json:"created_at"`
}

// RequestError reports a malformed comparison request. Handlers map it to
// HTTP 400.
type RequestError struct {
	Field  string
	Reason string
}

func (e *RequestError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}
