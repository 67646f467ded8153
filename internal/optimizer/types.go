package optimizer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RunParams are the user-set scalars for one optimization run.
type RunParams struct {
	Population    int     `json:"population"`
	Generations   int     `json:"generations"`
	MutationRate  float64 `json:"mutationRate"`
	CrossoverRate float64 `json:"crossoverRate"`
}

// DefaultRunParams mirrors the values the configurator starts with.
func DefaultRunParams() RunParams {
	return RunParams{
		Population:    100,
		Generations:   50,
		MutationRate:  0.1,
		CrossoverRate: 0.5,
	}
}

// Request is the payload of a run call. Matrices are keyed "<from>-<to>" by
// module display name.
type Request struct {
	RunParams
	InteractionMatrix map[string]float64 `json:"interactionMatrix"`
	InformationMatrix map[string]float64 `json:"informationMatrix"`
	AdoptionRate      []float64          `json:"adoptionRate"`
}

// ProductPick is the product chosen for one product family.
type ProductPick struct {
	Family     string  `json:"family"`
	Product    string  `json:"product"`
	Cost       float64 `json:"cost"`
	LaunchTime float64 `json:"launch_time"`
}

// ModuleSchedule is the schedule chosen for one module. Supplier 0 means the
// module is built in house.
type ModuleSchedule struct {
	Module     string  `json:"module"`
	Start      int     `json:"start"`
	Supplier   int     `json:"supplier"`
	CrashWeeks int     `json:"crash_weeks"`
	End        int     `json:"end"`
	Cost       float64 `json:"cost"`
}

func (s ModuleSchedule) Duration() int { return s.End - s.Start }

func (s ModuleSchedule) InHouse() bool { return s.Supplier <= 0 }

func (s ModuleSchedule) Crashed() bool { return s.CrashWeeks > 0 }

// MarshalJSON adds the derived duration, in_house and crashed fields.
func (s ModuleSchedule) MarshalJSON() ([]byte, error) {
	type plain ModuleSchedule
	return json.Marshal(struct {
		plain
		Duration int  `json:"duration"`
		InHouse  bool `json:"in_house"`
		Crashed  bool `json:"crashed"`
	}{plain(s), s.Duration(), s.InHouse(), s.Crashed()})
}

// Result is a decoded run response.
type Result struct {
	// Fitness is the net portfolio profit of the best solution. It is the
	// figure a run is judged by.
	Fitness  float64          `json:"fitness"`
	Products []ProductPick    `json:"products"`
	Schedule []ModuleSchedule `json:"schedule"`
}

// TotalCost sums module development costs over the schedule. It is one input
// to the profit, not the headline figure.
func (r *Result) TotalCost() float64 {
	total := 0.0
	for _, s := range r.Schedule {
		total += s.Cost
	}
	return total
}

// Summary is what clients show next to a finished run.
type Summary struct {
	NetProfit       float64 `json:"net_profit"`
	ModuleCostTotal float64 `json:"module_cost_total"`
	InHouseModules  int     `json:"in_house_modules"`
	CrashedModules  int     `json:"crashed_modules"`
}

func (r *Result) Summary() Summary {
	sum := Summary{NetProfit: r.Fitness, ModuleCostTotal: r.TotalCost()}
	for _, s := range r.Schedule {
		if s.InHouse() {
			sum.InHouseModules++
		}
		if s.Crashed() {
			sum.CrashedModules++
		}
	}
	return sum
}

// wireResult is the shape returned by the service:
//
//	best_solution:     {"<module>": [start, supplier, crash_weeks, end, cost]}
//	product_selection: {"<family>": {"<product>": [cost, launch_time]}}
type wireResult struct {
	BestSolution     map[string][]float64            `json:"best_solution"`
	Fitness          *float64                        `json:"fitness"`
	ProductSelection map[string]map[string][]float64 `json:"product_selection"`
}

func decodeResult(raw []byte) (*Result, error) {
	var w wireResult
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode run result: %w", err)
	}
	if w.Fitness == nil {
		return nil, fmt.Errorf("decode run result: missing fitness")
	}
	out := &Result{Fitness: *w.Fitness}

	for _, module := range sortedKeys(w.BestSolution) {
		vals := w.BestSolution[module]
		if len(vals) < 5 {
			return nil, fmt.Errorf("decode run result: module %s has %d schedule fields, want 5", module, len(vals))
		}
		out.Schedule = append(out.Schedule, ModuleSchedule{
			Module:     module,
			Start:      int(vals[0]),
			Supplier:   int(vals[1]),
			CrashWeeks: int(vals[2]),
			End:        int(vals[3]),
			Cost:       vals[4],
		})
	}

	for _, family := range sortedKeys(w.ProductSelection) {
		for _, product := range sortedKeys(w.ProductSelection[family]) {
			vals := w.ProductSelection[family][product]
			if len(vals) < 2 {
				return nil, fmt.Errorf("decode run result: product %s/%s has %d fields, want 2", family, product, len(vals))
			}
			out.Products = append(out.Products, ProductPick{
				Family:     family,
				Product:    product,
				Cost:       vals[0],
				LaunchTime: vals[1],
			})
		}
	}
	return out, nil
}

// sortedKeys orders numeric keys numerically and the rest lexically.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(strings.TrimSpace(keys[i]))
		b, errB := strconv.Atoi(strings.TrimSpace(keys[j]))
		if errA == nil && errB == nil {
			return a < b
		}
		if (errA == nil) != (errB == nil) {
			return errA == nil
		}
		return keys[i] < keys[j]
	})
	return keys
}
