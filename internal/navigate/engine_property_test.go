//go:build property
// +build property

package navigate

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/dgallion1/matclass/internal/oracle"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomTree grows a tree up to four levels deep with zero to four children
// per node, driven entirely by seed.
func randomTree(seed uint64) *hierarchy.Tree {
	rng := rand.New(rand.NewPCG(seed, 0x6d6174))
	var rows []hierarchy.Row
	var grow func(prefix string, depth int)
	grow = func(prefix string, depth int) {
		if depth == 4 {
			return
		}
		n := rng.IntN(5)
		for i := 1; i <= n; i++ {
			code := fmt.Sprintf("%s%02d", prefix, i)
			rows = append(rows, hierarchy.Row{Code: code, Description: "cat " + code})
			grow(code, depth+1)
		}
	}
	grow("", 0)
	tree, _ := hierarchy.Build(rows)
	return tree
}

// chaosOracle answers with a mix of valid, decorated, rejected, malformed
// and hallucinated codes. It is deterministic for a given seed.
func chaosOracle(seed uint64) oracle.Oracle {
	rng := rand.New(rand.NewPCG(seed, 0x6f7261))
	return oracle.Func(func(_ context.Context, _ string, c []hierarchy.Option) oracle.Decision {
		pick := c[rng.IntN(len(c))]
		switch rng.IntN(6) {
		case 0:
			return oracle.Declined("no")
		case 1:
			return oracle.Failed("malformed")
		case 2:
			return oracle.Matched("Z9 extra text")
		case 3:
			return oracle.Matched(pick.Code + ": " + pick.Description)
		default:
			return oracle.Matched(pick.Code)
		}
	})
}

func traceFor(seed uint64) (Result, []Event) {
	eng := New(randomTree(seed), chaosOracle(seed), nil)
	return eng.Collect(context.Background(), "item")
}

func TestNavigationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("exactly one final event, always last", prop.ForAll(
		func(seed uint64) bool {
			_, events := traceFor(seed)
			finals := 0
			for _, ev := range events {
				if ev.Type == EventFinal {
					finals++
				}
			}
			return finals == 1 && events[len(events)-1].Type == EventFinal
		},
		gen.UInt64(),
	))

	properties.Property("step/backtrack replay reproduces the final path", prop.ForAll(
		func(seed uint64) bool {
			res, events := traceFor(seed)
			fin, ok := Final(events)
			if !ok {
				return false
			}
			replayed := Replay(events)
			if len(replayed) != len(fin.Path) || len(res.Path) != len(fin.Path) {
				return false
			}
			for i := range replayed {
				if replayed[i] != fin.Path[i] || res.Path[i] != fin.Path[i] {
					return false
				}
			}
			return true
		},
		gen.UInt64(),
	))

	properties.Property("resolved results end on a leaf, others on ROOT", prop.ForAll(
		func(seed uint64) bool {
			tree := randomTree(seed)
			res := New(tree, chaosOracle(seed), nil).Classify(context.Background(), "item", nil)
			if !res.Resolved {
				return res.Code == hierarchy.RootCode && len(res.Path) == 0 && len(res.Suggestions) == tree.Root().NumChildren()
			}
			node, err := tree.Lookup(res.Code)
			if err != nil || !node.IsLeaf() {
				return false
			}
			parent := tree.Root()
			for _, step := range res.Path {
				child, ok := parent.Child(step.Code)
				if !ok {
					return false
				}
				parent = child
			}
			return parent.Code == res.Code
		},
		gen.UInt64(),
	))

	properties.Property("every manual step was among the candidates just offered", prop.ForAll(
		func(seed uint64) bool {
			res, events := traceFor(seed)
			var offered []hierarchy.Option
			candidates := 0
			for _, ev := range events {
				switch d := ev.Data.(type) {
				case CandidatesData:
					offered = d.Options
					candidates++
				case StepData:
					if d.Auto {
						continue
					}
					found := false
					for _, o := range offered {
						if o.Code == d.Code {
							found = true
						}
					}
					if !found {
						return false
					}
				}
			}
			return candidates == res.Stats.OracleCalls
		},
		gen.UInt64(),
	))

	properties.Property("identical inputs give byte-identical traces", prop.ForAll(
		func(seed uint64) bool {
			_, a := traceFor(seed)
			_, b := traceFor(seed)
			ja, errA := json.Marshal(a)
			jb, errB := json.Marshal(b)
			return errA == nil && errB == nil && string(ja) == string(jb)
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
