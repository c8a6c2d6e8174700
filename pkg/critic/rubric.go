package critic

import (
	"fmt"

	"github.com/zen-systems/cascade/pkg/config"
)

// Kind tags how a rubric item is evaluated. The tag is explicit so callers
// can see which items are deterministic and which carry model-judge
// nondeterminism.
type Kind int

const (
	// KindHeuristic items run a deterministic in-process check.
	KindHeuristic Kind = iota
	// KindJudge items are evaluated by a model call and are NOT guaranteed
	// deterministic for a fixed input; the reflection loop's iteration cap
	// bounds the damage, convergence is never assumed.
	KindJudge
)

// Item is one compliance check of the rubric.
type Item struct {
	ID          string
	Description string
	Mandatory   bool
	Kind        Kind
	// Overrides lists user-directive keys this item beats when mandatory.
	Overrides []string

	check CheckFunc
}

// Rubric is the fixed, ordered set of compliance checks a generated text
// must satisfy.
type Rubric []Item

// HasJudgeItems reports whether any item needs a model call to evaluate.
func (r Rubric) HasJudgeItems() bool {
	for _, item := range r {
		if item.Kind == KindJudge {
			return true
		}
	}
	return false
}

// Find returns the item with the given ID.
func (r Rubric) Find(id string) (Item, bool) {
	for _, item := range r {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// BuildRubric compiles configured rubric items into evaluators. Unknown
// check names are a configuration gap and fail the build.
func BuildRubric(items []config.RubricItem) (Rubric, error) {
	rubric := make(Rubric, 0, len(items))
	for _, def := range items {
		item := Item{
			ID:          def.ID,
			Description: def.Description,
			Mandatory:   def.Mandatory,
			Overrides:   def.Overrides,
		}

		if def.Judge {
			item.Kind = KindJudge
			rubric = append(rubric, item)
			continue
		}

		check, err := buildCheck(def.Check, def.CheckArg)
		if err != nil {
			return nil, fmt.Errorf("rubric item %s: %w", def.ID, err)
		}
		item.Kind = KindHeuristic
		item.check = check
		rubric = append(rubric, item)
	}
	return rubric, nil
}
