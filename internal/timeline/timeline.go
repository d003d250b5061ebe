// Package timeline computes current/next/upcoming step views over a
// time-resolved recipe process. All functions are pure: they take the
// timeline items and an elapsed duration and return derived views, so the
// same inputs always yield the same outputs regardless of wall-clock time.
package timeline

import "sort"

// Action is a single timed cooking step with an absolute offset from the
// recipe's t=0.
type Action struct {
	ID              string  `json:"id"`
	Title           string  `json:"title,omitempty"`
	StartMinute     float64 `json:"startMinute"`
	DurationMinutes float64 `json:"durationMinutes,omitempty"`
	IsCriticalPath  bool    `json:"isCriticalPath,omitempty"`
	// Resource labels a shared piece of equipment (e.g. a stovetop burner).
	// Advisory only: the engine never serializes steps around it.
	Resource string `json:"resource,omitempty"`
	Image    string `json:"image,omitempty"`
}

// ParallelBlock groups actions the cook performs at the same time. The
// parallelism is a kitchen fact, not a scheduling construct.
type ParallelBlock struct {
	ID          string   `json:"id"`
	StartMinute float64  `json:"startMinute"`
	Steps       []Action `json:"steps"`
}

// Item is either an Action or a ParallelBlock at the top level of a process
// timeline.
type Item interface {
	ItemID() string
	Start() float64
}

func (a Action) ItemID() string        { return a.ID }
func (a Action) Start() float64        { return a.StartMinute }
func (b ParallelBlock) ItemID() string { return b.ID }
func (b ParallelBlock) Start() float64 { return b.StartMinute }

// EndMinute returns the end of the action's active window.
func (a Action) EndMinute() float64 { return a.StartMinute + a.DurationMinutes }

// UpcomingSteps returns the top-level items whose start lies strictly after
// elapsedMinutes, sorted ascending by start. Items sharing a start keep their
// original relative order. Input order is never assumed sorted.
func UpcomingSteps(items []Item, elapsedMinutes float64) []Item {
	var upcoming []Item
	for _, it := range items {
		if it.Start() > elapsedMinutes {
			upcoming = append(upcoming, it)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].Start() < upcoming[j].Start()
	})
	return upcoming
}

// NextStep returns the earliest upcoming item, if any.
func NextStep(items []Item, elapsedMinutes float64) (Item, bool) {
	upcoming := UpcomingSteps(items, elapsedMinutes)
	if len(upcoming) == 0 {
		return nil, false
	}
	return upcoming[0], true
}

// CurrentStep returns the top-level action whose [start, start+duration)
// window contains elapsedMinutes. When several windows overlap, the last
// match in timeline order wins; the UI highlight depends on that exact
// behavior, so it is kept even though it falls out of iteration order rather
// than a deliberate tie-break. Actions nested inside parallel blocks are not
// considered.
func CurrentStep(items []Item, elapsedMinutes float64) (Action, bool) {
	var current Action
	found := false
	for _, it := range items {
		a, ok := it.(Action)
		if !ok {
			continue
		}
		if a.StartMinute <= elapsedMinutes && elapsedMinutes < a.EndMinute() {
			current = a
			found = true
		}
	}
	return current, found
}

// CriticalPathSteps flattens the time-sensitive actions out of the timeline,
// including those nested in parallel blocks, sorted by start.
func CriticalPathSteps(items []Item) []Action {
	var critical []Action
	for _, it := range items {
		switch v := it.(type) {
		case Action:
			if v.IsCriticalPath {
				critical = append(critical, v)
			}
		case ParallelBlock:
			for _, a := range v.Steps {
				if a.IsCriticalPath {
					critical = append(critical, a)
				}
			}
		}
	}
	sort.SliceStable(critical, func(i, j int) bool {
		return critical[i].StartMinute < critical[j].StartMinute
	})
	return critical
}

// Actions returns every action in the timeline in declaration order,
// parallel block members included.
func Actions(items []Item) []Action {
	var all []Action
	for _, it := range items {
		switch v := it.(type) {
		case Action:
			all = append(all, v)
		case ParallelBlock:
			all = append(all, v.Steps...)
		}
	}
	return all
}

// TotalMinutes returns the latest end minute across all actions.
func TotalMinutes(items []Item) float64 {
	var total float64
	for _, a := range Actions(items) {
		if end := a.EndMinute(); end > total {
			total = end
		}
	}
	return total
}
