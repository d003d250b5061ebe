package recipe

import (
	"encoding/json"
	"fmt"

	"github.com/kjgarza/chickadee/internal/timeline"
)

// Process is the time-resolved timeline document for one recipe. Offsets are
// precomputed by the authoring side; the timer engine only consumes them.
type Process struct {
	RecipeID string
	Items    []timeline.Item
}

// processDoc is the wire form of a process document.
type processDoc struct {
	RecipeID string        `json:"recipeId"`
	Timeline []processItem `json:"timeline"`
}

// processItem covers both timeline variants; a "parallel" type (or a
// non-empty steps list) marks a block, anything else is an action.
type processItem struct {
	Type            string            `json:"type,omitempty"`
	ID              string            `json:"id"`
	Title           string            `json:"title,omitempty"`
	StartMinute     *float64          `json:"startMinute"`
	DurationMinutes float64           `json:"durationMinutes,omitempty"`
	IsCriticalPath  bool              `json:"isCriticalPath,omitempty"`
	Resource        string            `json:"resource,omitempty"`
	Image           string            `json:"image,omitempty"`
	Steps           []json.RawMessage `json:"steps,omitempty"`
}

// ParseProcess decodes a process JSON document.
func ParseProcess(data []byte) (*Process, error) {
	var doc processDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse process document: %w", err)
	}

	proc := &Process{RecipeID: doc.RecipeID}
	for i, raw := range doc.Timeline {
		item, err := raw.toItem()
		if err != nil {
			return nil, fmt.Errorf("timeline item %d: %w", i, err)
		}
		proc.Items = append(proc.Items, item)
	}
	return proc, nil
}

func (pi processItem) toItem() (timeline.Item, error) {
	start := 0.0
	if pi.StartMinute != nil {
		start = *pi.StartMinute
	}

	if pi.Type == "parallel" || len(pi.Steps) > 0 {
		block := timeline.ParallelBlock{ID: pi.ID, StartMinute: start}
		for j, raw := range pi.Steps {
			var inner processItem
			if err := json.Unmarshal(raw, &inner); err != nil {
				return nil, fmt.Errorf("parallel step %d: %w", j, err)
			}
			if inner.Type == "parallel" || len(inner.Steps) > 0 {
				return nil, fmt.Errorf("parallel step %d: blocks cannot nest", j)
			}
			block.Steps = append(block.Steps, inner.toAction())
		}
		return block, nil
	}
	return pi.toAction(), nil
}

func (pi processItem) toAction() timeline.Action {
	start := 0.0
	if pi.StartMinute != nil {
		start = *pi.StartMinute
	}
	return timeline.Action{
		ID:              pi.ID,
		Title:           pi.Title,
		StartMinute:     start,
		DurationMinutes: pi.DurationMinutes,
		IsCriticalPath:  pi.IsCriticalPath,
		Resource:        pi.Resource,
		Image:           pi.Image,
	}
}

// MarshalProcess encodes a process back to its wire form, used when the site
// builder emits per-recipe process documents.
func MarshalProcess(proc *Process) ([]byte, error) {
	doc := processDoc{RecipeID: proc.RecipeID}
	for _, item := range proc.Items {
		switch v := item.(type) {
		case timeline.Action:
			doc.Timeline = append(doc.Timeline, actionToProcessItem(v))
		case timeline.ParallelBlock:
			pi := processItem{Type: "parallel", ID: v.ID, StartMinute: &v.StartMinute}
			for _, a := range v.Steps {
				raw, err := json.Marshal(actionToProcessItem(a))
				if err != nil {
					return nil, err
				}
				pi.Steps = append(pi.Steps, raw)
			}
			doc.Timeline = append(doc.Timeline, pi)
		default:
			return nil, fmt.Errorf("unknown timeline item type %T", item)
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

func actionToProcessItem(a timeline.Action) processItem {
	start := a.StartMinute
	return processItem{
		ID:              a.ID,
		Title:           a.Title,
		StartMinute:     &start,
		DurationMinutes: a.DurationMinutes,
		IsCriticalPath:  a.IsCriticalPath,
		Resource:        a.Resource,
		Image:           a.Image,
	}
}
