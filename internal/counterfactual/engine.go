// Package counterfactual searches for minimally-changed inputs that flip the
// churn decision, restricted to business-controllable levers, with a
// deterministic rule-table fallback when the search finds nothing.
package counterfactual

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"churnsight/domain/churn"
	"churnsight/domain/schema"
	"churnsight/internal/errors"
	"churnsight/internal/scoring"
	"churnsight/ports"

	"golang.org/x/sync/semaphore"
)

// Config bounds the genetic search. The budget is a hard wall-clock limit;
// exceeding it is treated as "search found nothing", never as an error.
type Config struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	SparsityWeight float64
	RelaxedDrop    float64 // probability reduction counted as relaxed success
	Budget         time.Duration
	BaseSeed       int64
	MaxConcurrent  int64 // concurrent searches allowed process-wide
}

// DefaultConfig returns the production search parameters.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 48,
		Generations:    80,
		MutationRate:   0.25,
		SparsityWeight: 0.08,
		RelaxedDrop:    0.2,
		Budget:         2 * time.Second,
		BaseSeed:       1337,
		MaxConcurrent:  4,
	}
}

// MaxTotalCFs caps how many counterfactuals one request may ask for.
const MaxTotalCFs = 5

// changedEpsilon absorbs scale/unscale round-trip noise when deciding
// whether a feature actually differs from the original.
const changedEpsilon = 1e-6

// SearchResult is the explicit outcome of the primary search: a success
// variant carrying examples, or a failure variant carrying the reason. The
// fallback path is a designed branch on Found, not an exception handler.
type SearchResult struct {
	Found       bool
	Relaxed     bool
	Examples    []schema.FeatureVector
	Reason      string
	Generations int
}

// Engine runs the seeded genetic search over the actionable allowlist.
type Engine struct {
	scorer     *scoring.Engine
	actionable []string
	reference  []churn.LabeledExample
	rules      []Rule
	rng        ports.RNGPort
	cfg        Config

	// Per-lever value pools drawn from the reference dataset, fixed at
	// construction. Mutation samples from these rather than inventing
	// values outside the observed business range.
	pools    [][]float64
	poolMin  []float64
	poolMax  []float64
	searches *semaphore.Weighted
}

// New wires a counterfactual engine over the loaded artifacts.
func New(scorer *scoring.Engine, actionable []string, reference []churn.LabeledExample, rules []Rule, rng ports.RNGPort, cfg Config) (*Engine, error) {
	if scorer == nil {
		return nil, errors.ModelUnavailable("scoring engine is not available")
	}
	contract := scorer.Contract()
	for _, name := range actionable {
		if _, ok := contract.Index(name); !ok {
			return nil, errors.ConfigInvalid("actionable feature not in contract: " + name)
		}
	}
	if cfg.PopulationSize <= 0 || cfg.Generations <= 0 {
		return nil, errors.ConfigInvalid("counterfactual search requires a positive population and generation count")
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}

	e := &Engine{
		scorer:     scorer,
		actionable: append([]string(nil), actionable...),
		reference:  reference,
		rules:      rules,
		rng:        rng,
		cfg:        cfg,
		searches:   semaphore.NewWeighted(cfg.MaxConcurrent),
	}
	e.buildPools()
	return e, nil
}

// buildPools collects the observed values of every actionable lever across
// the reference dataset.
func (e *Engine) buildPools() {
	e.pools = make([][]float64, len(e.actionable))
	e.poolMin = make([]float64, len(e.actionable))
	e.poolMax = make([]float64, len(e.actionable))

	for i, name := range e.actionable {
		seen := make([]float64, 0, len(e.reference))
		for _, ex := range e.reference {
			v, _ := ex.Vector.Value(name)
			seen = append(seen, v)
		}
		if len(seen) == 0 {
			// No reference data: mutation degenerates to flag flips.
			seen = []float64{0, 1}
		}
		e.pools[i] = seen
		e.poolMin[i] = seen[0]
		e.poolMax[i] = seen[0]
		for _, v := range seen {
			e.poolMin[i] = math.Min(e.poolMin[i], v)
			e.poolMax[i] = math.Max(e.poolMax[i], v)
		}
	}
}

// Generate runs the primary search and, when it fails, the rule fallback.
// The method tag on the result is always set.
func (e *Engine) Generate(ctx context.Context, original schema.FeatureVector, desiredClass, totalCFs int) (churn.CounterfactualResult, SearchResult, error) {
	if desiredClass != 0 && desiredClass != 1 {
		return churn.CounterfactualResult{}, SearchResult{}, errors.InvalidInput("desired_class must be 0 or 1")
	}
	if totalCFs < 1 || totalCFs > MaxTotalCFs {
		return churn.CounterfactualResult{}, SearchResult{}, errors.InvalidInput(fmt.Sprintf("total_CFs must be between 1 and %d", MaxTotalCFs))
	}

	pred, err := e.scorer.Score(original)
	if err != nil {
		return churn.CounterfactualResult{}, SearchResult{}, err
	}

	search := e.search(ctx, original, pred, desiredClass, totalCFs)

	if search.Found {
		return churn.CounterfactualResult{
			Method:          churn.MethodPrimary,
			Original:        original,
			Counterfactuals: search.Examples,
			SearchReason:    search.Reason,
		}, search, nil
	}

	return churn.CounterfactualResult{
		Method:       churn.MethodFallback,
		Original:     original,
		RuleTriggers: EvaluateRules(e.rules, original, pred.Probability),
		SearchReason: search.Reason,
	}, search, nil
}

// Rules returns the fallback rule table.
func (e *Engine) Rules() []Rule {
	return e.rules
}

func (e *Engine) search(ctx context.Context, original schema.FeatureVector, pred churn.Prediction, desiredClass, totalCFs int) SearchResult {
	if pred.Decision == desiredClass {
		return SearchResult{Reason: "prediction already matches the desired class"}
	}

	// Bound concurrent searches so a burst of slow requests cannot pin
	// every core on optimization.
	if err := e.searches.Acquire(ctx, 1); err != nil {
		return SearchResult{Reason: "search capacity unavailable: " + err.Error()}
	}
	defer e.searches.Release(1)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Budget)
	defer cancel()

	stream := e.rng.SeededStream("counterfactual", vectorSeed(original, desiredClass))

	seeds := e.seedExamples(desiredClass)
	population := e.initPopulation(original, seeds, stream)

	archive := make(map[string]candidate)
	var best candidate
	bestSet := false
	generations := 0

	for gen := 0; gen < e.cfg.Generations; gen++ {
		if ctx.Err() != nil {
			break
		}
		generations = gen + 1

		scored := make([]candidate, 0, len(population))
		for _, vec := range population {
			c, err := e.evaluate(original, vec, desiredClass)
			if err != nil {
				continue
			}
			scored = append(scored, c)

			if !bestSet || c.loss < best.loss {
				best = c
				bestSet = true
			}
			if c.valid && c.changed > 0 {
				if _, dup := archive[c.key]; !dup {
					archive[c.key] = c
				}
			}
		}
		if len(scored) == 0 {
			break
		}

		// Enough distinct solutions to pick a diverse subset from.
		if len(archive) >= totalCFs*3 {
			break
		}

		population = e.nextGeneration(original, scored, seeds, stream)
	}

	if len(archive) > 0 {
		chosen := e.selectDiverse(original, archive, totalCFs)
		return SearchResult{Found: true, Examples: chosen, Generations: generations}
	}

	// Relaxed success: no flip reachable, but the best candidate moves the
	// probability materially toward the desired class.
	if bestSet && best.changed > 0 {
		drop := pred.Probability - best.prob
		if desiredClass == 1 {
			drop = best.prob - pred.Probability
		}
		if drop >= e.cfg.RelaxedDrop {
			return SearchResult{
				Found:       true,
				Relaxed:     true,
				Examples:    []schema.FeatureVector{best.vec},
				Reason:      fmt.Sprintf("no decision flip reachable; best candidate moves probability by %.3f", drop),
				Generations: generations,
			}
		}
	}

	reason := "no feasible counterfactual within the actionable feature set"
	if ctx.Err() != nil {
		reason = "search budget exhausted before a feasible counterfactual was found"
	}
	return SearchResult{Reason: reason, Generations: generations}
}

type candidate struct {
	vec     schema.FeatureVector
	prob    float64
	loss    float64
	changed int
	valid   bool
	key     string
}

func (e *Engine) evaluate(original, vec schema.FeatureVector, desiredClass int) (candidate, error) {
	pred, err := e.scorer.Score(vec)
	if err != nil {
		return candidate{}, err
	}

	changed := e.changedCount(original, vec)
	probLoss := pred.Probability
	if desiredClass == 1 {
		probLoss = 1 - pred.Probability
	}

	return candidate{
		vec:     vec,
		prob:    pred.Probability,
		loss:    probLoss + e.cfg.SparsityWeight*float64(changed)/float64(len(e.actionable)),
		changed: changed,
		valid:   pred.Decision == desiredClass,
		key:     e.candidateKey(vec),
	}, nil
}

func (e *Engine) changedCount(original, vec schema.FeatureVector) int {
	changed := 0
	for _, name := range e.actionable {
		a, _ := original.Value(name)
		b, _ := vec.Value(name)
		if math.Abs(a-b) > changedEpsilon {
			changed++
		}
	}
	return changed
}

func (e *Engine) candidateKey(vec schema.FeatureVector) string {
	var b strings.Builder
	for _, name := range e.actionable {
		v, _ := vec.Value(name)
		fmt.Fprintf(&b, "%s=%.4f;", name, v)
	}
	return b.String()
}

// seedExamples returns reference rows labeled with the desired class; if the
// reference set has none, every row is fair game.
func (e *Engine) seedExamples(desiredClass int) []schema.FeatureVector {
	var seeds []schema.FeatureVector
	for _, ex := range e.reference {
		if ex.Churn == desiredClass {
			seeds = append(seeds, ex.Vector)
		}
	}
	if len(seeds) == 0 {
		for _, ex := range e.reference {
			seeds = append(seeds, ex.Vector)
		}
	}
	return seeds
}

func (e *Engine) initPopulation(original schema.FeatureVector, seeds []schema.FeatureVector, stream *rand.Rand) []schema.FeatureVector {
	population := make([]schema.FeatureVector, e.cfg.PopulationSize)
	for i := range population {
		population[i] = e.seedIndividual(original, seeds, stream)
	}
	return population
}

// seedIndividual copies the original and adopts a random subset of
// actionable lever values from one seed row.
func (e *Engine) seedIndividual(original schema.FeatureVector, seeds []schema.FeatureVector, stream *rand.Rand) schema.FeatureVector {
	vec := original
	if len(seeds) == 0 {
		return e.mutate(original, vec, stream)
	}

	seed := seeds[stream.Intn(len(seeds))]
	adopted := 0
	for _, name := range e.actionable {
		if stream.Float64() < 0.5 {
			v, _ := seed.Value(name)
			vec = vec.With(name, v)
			adopted++
		}
	}
	if adopted == 0 {
		name := e.actionable[stream.Intn(len(e.actionable))]
		v, _ := seed.Value(name)
		vec = vec.With(name, v)
	}
	return vec
}

func (e *Engine) nextGeneration(original schema.FeatureVector, scored []candidate, seeds []schema.FeatureVector, stream *rand.Rand) []schema.FeatureVector {
	next := make([]schema.FeatureVector, e.cfg.PopulationSize)
	for i := range next {
		a := e.tournament(scored, stream)
		b := e.tournament(scored, stream)
		child := e.crossover(a.vec, b.vec, stream)
		next[i] = e.mutate(original, child, stream)
	}
	return next
}

func (e *Engine) tournament(scored []candidate, stream *rand.Rand) candidate {
	best := scored[stream.Intn(len(scored))]
	for i := 0; i < 2; i++ {
		c := scored[stream.Intn(len(scored))]
		if c.loss < best.loss {
			best = c
		}
	}
	return best
}

// crossover mixes two parents lever by lever.
func (e *Engine) crossover(a, b schema.FeatureVector, stream *rand.Rand) schema.FeatureVector {
	child := a
	for _, name := range e.actionable {
		if stream.Float64() < 0.5 {
			v, _ := b.Value(name)
			child = child.With(name, v)
		}
	}
	return child
}

// mutate perturbs actionable levers: usually resampling from the observed
// reference pool, sometimes reverting to the original value to keep the
// sparsity pressure honest.
func (e *Engine) mutate(original, vec schema.FeatureVector, stream *rand.Rand) schema.FeatureVector {
	contract := e.scorer.Contract()
	for i, name := range e.actionable {
		if stream.Float64() >= e.cfg.MutationRate {
			continue
		}
		if stream.Float64() < 0.3 {
			v, _ := original.Value(name)
			vec = vec.With(name, v)
			continue
		}

		pool := e.pools[i]
		v := pool[stream.Intn(len(pool))]
		if contract.IsContinuous(name) {
			// Jitter continuous levers within the observed business range.
			span := e.poolMax[i] - e.poolMin[i]
			v += (stream.Float64()*2 - 1) * span * 0.05
			v = math.Max(e.poolMin[i], math.Min(e.poolMax[i], v))
		}
		vec = vec.With(name, v)
	}
	return vec
}

// selectDiverse ranks the archive deterministically (fewest changes, then
// loss, then key) and greedily picks candidates that maximize the minimum
// lever distance to those already chosen.
func (e *Engine) selectDiverse(original schema.FeatureVector, archive map[string]candidate, totalCFs int) []schema.FeatureVector {
	ranked := make([]candidate, 0, len(archive))
	for _, c := range archive {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].changed != ranked[j].changed {
			return ranked[i].changed < ranked[j].changed
		}
		if ranked[i].loss != ranked[j].loss {
			return ranked[i].loss < ranked[j].loss
		}
		return ranked[i].key < ranked[j].key
	})

	chosen := []candidate{ranked[0]}
	remaining := ranked[1:]

	for len(chosen) < totalCFs && len(remaining) > 0 {
		bestIdx := 0
		bestDist := -1
		for i, c := range remaining {
			minDist := math.MaxInt32
			for _, sel := range chosen {
				d := e.leverDistance(c.vec, sel.vec)
				if d < minDist {
					minDist = d
				}
			}
			if minDist > bestDist {
				bestDist = minDist
				bestIdx = i
			}
		}
		chosen = append(chosen, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	out := make([]schema.FeatureVector, len(chosen))
	for i, c := range chosen {
		out[i] = c.vec
	}
	return out
}

func (e *Engine) leverDistance(a, b schema.FeatureVector) int {
	dist := 0
	for _, name := range e.actionable {
		va, _ := a.Value(name)
		vb, _ := b.Value(name)
		if math.Abs(va-vb) > changedEpsilon {
			dist++
		}
	}
	return dist
}

// vectorSeed hashes the input vector and target class so repeated requests
// for the same customer walk identical search trajectories.
func vectorSeed(v schema.FeatureVector, desiredClass int) int64 {
	h := fnv.New64a()
	for _, val := range v.Values() {
		fmt.Fprintf(h, "%.6f|", val)
	}
	fmt.Fprintf(h, "%d", desiredClass)
	return int64(h.Sum64())
}
