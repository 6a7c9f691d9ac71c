package rewards

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/malbeclabs/metabonding/engine/pkg/project"
	"github.com/malbeclabs/metabonding/engine/pkg/week"
)

// activeIndex memoizes, per week, the projects active in that week in registry
// order. An entry is rebuilt when the registry has grown since it was filled.
type activeIndex struct {
	registry project.Registry
	byWeek   *xsync.Map[week.Week, indexEntry]
}

type indexEntry struct {
	registryLen int
	projects    []project.Project
}

func newActiveIndex(registry project.Registry) *activeIndex {
	return &activeIndex{
		registry: registry,
		byWeek:   xsync.NewMap[week.Week, indexEntry](),
	}
}

func (i *activeIndex) projectsFor(ctx context.Context, w week.Week) ([]project.Project, error) {
	n, err := i.registry.Len(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	if e, ok := i.byWeek.Load(w); ok && e.registryLen == n {
		return e.projects, nil
	}

	all, err := i.registry.Iterate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	active := make([]project.Project, 0, len(all))
	for _, p := range all {
		if p.ActiveIn(w) {
			active = append(active, p)
		}
	}

	i.byWeek.Store(w, indexEntry{registryLen: len(all), projects: active})
	return active, nil
}

func (i *activeIndex) size() int { return i.byWeek.Size() }

func (i *activeIndex) reset() { i.byWeek.Clear() }
