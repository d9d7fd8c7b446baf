// Package compare orchestrates one comparison end to end: validate the
// request, narrow the catalog, build the prompt, run the backend chain,
// and hand back a validated outcome. The pipeline is stateless per request;
// the only shared state is the result cache.
package compare

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"phonepick/internal/archive"
	"phonepick/internal/catalog"
	"phonepick/internal/llm"
	"phonepick/internal/metrics"
	"phonepick/internal/prompt"
	"phonepick/internal/util/jsonutil"
	"phonepick/internal/validation"
)

// DefaultMaxPhones bounds how many phones a single comparison may cover.
const DefaultMaxPhones = 8

// budget narrowing admits phones up to 25% over the stated ceiling so the
// model can flag a materially better above-budget alternative.
const budgetHeadroomPct = 25

type ServiceConfig struct {
	Catalog   *catalog.Catalog
	Chain     *llm.Chain
	Archive   archive.Store
	CacheSize int
	MaxPhones int
	Logger    *zap.Logger
}

// Service runs comparisons. Safe for concurrent use.
type Service struct {
	catalog   *catalog.Catalog
	chain     *llm.Chain
	archive   archive.Store
	cache     *lru.Cache[string, *Outcome]
	group     singleflight.Group
	maxPhones int
	log       *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("compare: catalog is required")
	}
	if cfg.Chain == nil {
		return nil, fmt.Errorf("compare: chain is required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	maxPhones := cfg.MaxPhones
	if maxPhones <= 0 {
		maxPhones = DefaultMaxPhones
	}
	s := &Service{
		catalog:   cfg.Catalog,
		chain:     cfg.Chain,
		archive:   cfg.Archive,
		maxPhones: maxPhones,
		log:       log,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, *Outcome](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("compare: init cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Compare runs the full pipeline for req. Identical concurrent requests are
// deduplicated; identical repeated requests are replayed from the cache with
// Cached set.
func (s *Service) Compare(ctx context.Context, req Request) (*Outcome, error) {
	norm, err := s.normalize(req)
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	phones, err := s.resolve(norm)
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	key := fingerprint(norm, phones)

	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			metrics.CacheHits.Inc()
			metrics.CompareRequests.WithLabelValues("cached").Inc()
			s.log.Debug("comparison served from cache", zap.String("id", hit.ID))
			return replay(hit), nil
		}
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.run(ctx, norm, phones, key)
	})
	if err != nil {
		s.countFailure(err)
		return nil, err
	}
	out := v.(*Outcome)
	if shared {
		metrics.CompareRequests.WithLabelValues("cached").Inc()
		return replay(out), nil
	}
	metrics.CompareRequests.WithLabelValues("ok").Inc()
	return out, nil
}

func (s *Service) run(ctx context.Context, req Request, phones []catalog.Phone, key string) (*Outcome, error) {
	text, err := prompt.Build(phones, req.Budget, req.Priorities, req.Notes)
	if err != nil {
		return nil, &llm.PreconditionError{Reason: "build prompt", Err: err}
	}

	allowed := make(map[string]struct{}, len(phones))
	for _, p := range phones {
		allowed[p.ID] = struct{}{}
	}

	raw, attempts, err := s.chain.Run(ctx, text, resultValidator(allowed))
	if err != nil {
		return nil, err
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("compare: decode validated payload: %w", err)
	}

	infos := make([]AttemptInfo, len(attempts))
	for i, a := range attempts {
		infos[i] = AttemptInfoFrom(a)
	}
	out := &Outcome{
		ID:        uuid.NewString(),
		Request:   req,
		Phones:    phones,
		Result:    res,
		Backend:   attempts[len(attempts)-1].Backend,
		Attempts:  infos,
		CreatedAt: time.Now().UTC(),
	}
	s.log.Info("comparison completed",
		zap.String("id", out.ID),
		zap.String("backend", out.Backend),
		zap.Int("attempts", len(attempts)),
		zap.String("selected", res.SelectedPhone.PhoneID))

	if s.cache != nil {
		s.cache.Add(key, out)
	}
	s.archiveOutcome(ctx, out)
	return out, nil
}

func (s *Service) normalize(req Request) (Request, error) {
	if req.Budget < 0 {
		return Request{}, &RequestError{Field: "budget", Reason: "must not be negative"}
	}

	if len(req.Priorities) == 0 {
		return Request{}, &RequestError{Field: "priorities", Reason: "at least one priority is required"}
	}
	priorities := make([]string, 0, len(req.Priorities))
	seen := make(map[string]struct{}, len(req.Priorities))
	for _, p := range req.Priorities {
		p = strings.ToLower(strings.TrimSpace(p))
		if _, ok := prompt.Label(p); !ok {
			return Request{}, &RequestError{Field: "priorities", Reason: fmt.Sprintf("unknown priority %q", p)}
		}
		if _, dup := seen[p]; dup {
			return Request{}, &RequestError{Field: "priorities", Reason: fmt.Sprintf("duplicate priority %q", p)}
		}
		seen[p] = struct{}{}
		priorities = append(priorities, p)
	}

	ids := make([]string, 0, len(req.PhoneIDs))
	seenIDs := make(map[string]struct{}, len(req.PhoneIDs))
	for _, id := range req.PhoneIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seenIDs[id]; dup {
			return Request{}, &RequestError{Field: "phone_ids", Reason: fmt.Sprintf("duplicate phone id %q", id)}
		}
		seenIDs[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) > s.maxPhones {
		return Request{}, &RequestError{Field: "phone_ids", Reason: fmt.Sprintf("at most %d phones per comparison", s.maxPhones)}
	}
	if len(ids) == 0 && req.Budget == 0 {
		return Request{}, &RequestError{Reason: "either phone_ids or budget is required"}
	}

	return Request{
		PhoneIDs:   ids,
		Budget:     req.Budget,
		Priorities: priorities,
		FiveGOnly:  req.FiveGOnly,
		Notes:      strings.TrimSpace(req.Notes),
	}, nil
}

// resolve turns the normalized request into the phone list handed to the
// prompt: the explicit selection when given, otherwise the catalog narrowed
// by budget (with headroom) and the 5G flag, most expensive first.
func (s *Service) resolve(req Request) ([]catalog.Phone, error) {
	if len(req.PhoneIDs) > 0 {
		phones := make([]catalog.Phone, 0, len(req.PhoneIDs))
		for _, id := range req.PhoneIDs {
			p, ok := s.catalog.Get(id)
			if !ok {
				return nil, &RequestError{Field: "phone_ids", Reason: fmt.Sprintf("unknown phone id %q", id)}
			}
			phones = append(phones, p)
		}
		return phones, nil
	}

	ceiling := req.Budget + req.Budget*budgetHeadroomPct/100
	phones := s.catalog.Filter(catalog.Filter{MaxPrice: ceiling, FiveG: req.FiveGOnly})
	if len(phones) == 0 {
		return nil, &llm.PreconditionError{
			Reason: fmt.Sprintf("no phones in the catalog match a budget of %d", req.Budget),
		}
	}
	sort.SliceStable(phones, func(i, j int) bool {
		return phones[i].PriceINR > phones[j].PriceINR
	})
	if len(phones) > s.maxPhones {
		phones = phones[:s.maxPhones]
	}
	return phones, nil
}

func (s *Service) archiveOutcome(ctx context.Context, out *Outcome) {
	if s.archive == nil {
		return
	}
	b, err := jsonutil.MarshalNoEscape(out)
	if err == nil {
		err = s.archive.Save(ctx, out.ID, b)
	}
	if err != nil {
		s.log.Warn("archive comparison failed", zap.String("id", out.ID), zap.Error(err))
	}
}

func (s *Service) countFailure(err error) {
	var reqErr *RequestError
	var pre *llm.PreconditionError
	var all *llm.AllFailedError
	switch {
	case errors.As(err, &reqErr):
		metrics.CompareRequests.WithLabelValues("request_error").Inc()
	case errors.As(err, &pre):
		metrics.CompareRequests.WithLabelValues("precondition").Inc()
	case errors.As(err, &all):
		metrics.CompareRequests.WithLabelValues("all_failed").Inc()
	default:
		metrics.CompareRequests.WithLabelValues("error").Inc()
	}
}

// resultValidator checks a candidate payload against the result schema and
// then against the compared phone set, so a backend inventing ids triggers
// fallback instead of reaching the caller.
func resultValidator(allowed map[string]struct{}) llm.Validator {
	return func(raw json.RawMessage) error {
		if err := validation.Validate(raw); err != nil {
			return err
		}
		var res Result
		if err := json.Unmarshal(raw, &res); err != nil {
			return &validation.Error{Path: "(root)", Expected: "comparison result", Message: err.Error()}
		}
		return checkResultIDs(&res, allowed)
	}
}

func checkResultIDs(res *Result, allowed map[string]struct{}) error {
	check := func(path, id string) error {
		if _, ok := allowed[id]; !ok {
			return &validation.Error{
				Path:     path,
				Expected: "one of the requested phone ids",
				Message:  fmt.Sprintf("unknown phone id %q", id),
			}
		}
		return nil
	}
	if err := check("selected_phone.phone_id", res.SelectedPhone.PhoneID); err != nil {
		return err
	}
	if res.RunnerUp != nil {
		if err := check("runner_up.phone_id", res.RunnerUp.PhoneID); err != nil {
			return err
		}
	}
	for i, ev := range res.Evaluations {
		if err := check(fmt.Sprintf("phone_evaluations.%d.phone_id", i), ev.PhoneID); err != nil {
			return err
		}
	}
	for i, tr := range res.TradeOffs {
		if err := check(fmt.Sprintf("trade_offs.%d.phone_a", i), tr.PhoneA); err != nil {
			return err
		}
		if err := check(fmt.Sprintf("trade_offs.%d.phone_b", i), tr.PhoneB); err != nil {
			return err
		}
	}
	if pick := res.BudgetAnalysis.AboveBudgetPick; pick != nil {
		if err := check("budget_analysis.above_budget_pick.phone_id", pick.PhoneID); err != nil {
			return err
		}
	}
	return nil
}

func fingerprint(req Request, phones []catalog.Phone) string {
	h := sha256.New()
	for _, p := range phones {
		io.WriteString(h, p.ID)
		io.WriteString(h, "\x1f")
	}
	fmt.Fprintf(h, "|%d|%t|", req.Budget, req.FiveGOnly)
	io.WriteString(h, strings.Join(req.Priorities, ","))
	io.WriteString(h, "|")
	io.WriteString(h, req.Notes)
	return hex.EncodeToString(h.Sum(nil))
}

func replay(out *Outcome) *Outcome {
	dup := *out
	dup.Cached = true
	return &dup
}
