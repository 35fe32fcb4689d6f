package detect

import (
	"context"
	"sort"

	"github.com/okian/startrack/internal/domain/model"
	"github.com/okian/startrack/pkg/logger"
)

// Rule inspects a settled State and returns the events it finds.
type Rule interface {
	Kind() model.EventKind
	Detect(ctx context.Context, st *State) []model.Event
}

// TopEntityRule fires when position 1 changed since the previous run.
type TopEntityRule struct {
	render *Renderer
}

// NewTopEntityRule creates the top entity rule.
func NewTopEntityRule(r *Renderer) *TopEntityRule {
	return &TopEntityRule{render: r}
}

func (t *TopEntityRule) Kind() model.EventKind { return model.KindTopEntity }

func (t *TopEntityRule) Detect(ctx context.Context, st *State) []model.Event {
	top, ok := st.Ranking.At(1)
	if !ok || st.PreviousTop == 0 || top.ID == st.PreviousTop {
		return nil
	}
	return []model.Event{{
		Kind:     model.KindTopEntity,
		Content:  t.render.TopEntity(ctx, top),
		Priority: model.PriorityTopEntity,
		EntityID: top.ID,
	}}
}

// MilestoneRule fires once per entity for the first threshold crossed
// between the previous and the current star count.
type MilestoneRule struct {
	render     *Renderer
	milestones []int64
}

// NewMilestoneRule creates the milestone rule; milestones are sorted ascending.
func NewMilestoneRule(r *Renderer, milestones []int64) *MilestoneRule {
	ms := append([]int64(nil), milestones...)
	sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
	return &MilestoneRule{render: r, milestones: ms}
}

func (m *MilestoneRule) Kind() model.EventKind { return model.KindMilestone }

// Crossed returns the first milestone in (prev, cur], or false.
func (m *MilestoneRule) Crossed(prev, cur int64) (int64, bool) {
	if cur < prev {
		return 0, false
	}
	for _, ms := range m.milestones {
		if cur < ms {
			break
		}
		if prev >= ms {
			continue
		}
		return ms, true
	}
	return 0, false
}

func (m *MilestoneRule) Detect(ctx context.Context, st *State) []model.Event {
	var out []model.Event
	for i := range st.Ranking {
		e := st.Entries[st.Ranking[i].ID]
		if e == nil || e.Previous == nil {
			continue
		}
		ms, ok := m.Crossed(e.Previous.Latest.Stars, e.Current.Stars)
		if !ok {
			continue
		}
		out = append(out, model.Event{
			Kind:     model.KindMilestone,
			Content:  m.render.Milestone(ctx, e.Entity, ms),
			Priority: model.PriorityMilestone,
			EntityID: e.Entity.ID,
		})
	}
	return out
}

// FastestGrowingRule picks the entity with the largest star gain against its
// snapshot from Days ago. Ties go to the better ranked entity.
type FastestGrowingRule struct {
	render *Renderer
	days   int
	period string
}

// NewFastestGrowingRule creates the rule for a lookback and its label,
// e.g. 31 and "of the month".
func NewFastestGrowingRule(r *Renderer, days int, period string) *FastestGrowingRule {
	return &FastestGrowingRule{render: r, days: days, period: period}
}

func (f *FastestGrowingRule) Kind() model.EventKind { return model.KindFastestGrowing }

// Leader scans gains in ranking order. runnerUp is the second largest gain,
// equal to best on a tie. index is -1 when nothing was comparable or no gain
// was positive.
func Leader(gains []*int64) (index int, best, runnerUp int64) {
	index = -1
	for i, g := range gains {
		if g == nil {
			continue
		}
		switch {
		case *g > best:
			runnerUp = best
			best = *g
			index = i
		case *g == best:
			runnerUp = best
		case *g > runnerUp:
			runnerUp = *g
		}
	}
	return index, best, runnerUp
}

func (f *FastestGrowingRule) Detect(ctx context.Context, st *State) []model.Event {
	gains := make([]*int64, len(st.Ranking))
	for i := range st.Ranking {
		e := st.Entries[st.Ranking[i].ID]
		hist := e.Historical(f.days)
		if hist == nil {
			continue
		}
		g := e.Current.Stars - hist.Stars
		gains[i] = &g
	}
	idx, best, runnerUp := Leader(gains)
	if idx < 0 || best <= 0 {
		return nil
	}
	e := st.Entries[st.Ranking[idx].ID]
	return []model.Event{{
		Kind:     model.KindFastestGrowing,
		Content:  f.render.FastestGrowing(ctx, e.Entity, idx+1, f.period, best, runnerUp),
		Priority: model.PriorityFastestGrowing,
		EntityID: e.Entity.ID,
	}}
}

// OvertakeRule fires for entities near the top that climbed since the
// previous run.
type OvertakeRule struct {
	render      *Renderer
	maxPosition int
	logger      logger.Logger
}

// NewOvertakeRule creates the rule for positions up to maxPosition.
func NewOvertakeRule(r *Renderer, maxPosition int, l logger.Logger) *OvertakeRule {
	if l == nil {
		l = logger.Get().Named("overtake")
	}
	return &OvertakeRule{render: r, maxPosition: maxPosition, logger: l}
}

func (o *OvertakeRule) Kind() model.EventKind { return model.KindOvertake }

func (o *OvertakeRule) Detect(ctx context.Context, st *State) []model.Event {
	var out []model.Event
	for i := range st.Ranking {
		e := st.Entries[st.Ranking[i].ID]
		if e == nil || e.Previous == nil {
			continue
		}
		cur, prev := e.Current.Position, e.Previous.Latest.Position
		if cur > o.maxPosition || cur >= prev {
			continue
		}
		if at, ok := st.Ranking.At(cur); !ok || at.ID != e.Entity.ID {
			o.logger.Warn(ctx, "ranking position does not match snapshot",
				logger.String("repo", e.Entity.FullName),
				logger.Int("position", cur))
			continue
		}
		other, ok := o.overtaken(st, e.Entity.ID, cur, prev)
		if !ok {
			continue
		}
		out = append(out, model.Event{
			Kind:     model.KindOvertake,
			Content:  o.render.Overtake(ctx, e.Entity, other, cur),
			Priority: model.PriorityOvertake,
			EntityID: e.Entity.ID,
		})
	}
	return out
}

// overtaken prefers whoever held the new position last run if it is now
// ranked below; otherwise it falls back to the entity now at the old position.
func (o *OvertakeRule) overtaken(st *State, id int64, cur, prev int) (model.RankedEntity, bool) {
	if holder, ok := st.PreviousByPosition[cur]; ok && holder != id {
		if pos, ranked := st.Ranking.Position(holder); ranked && pos > cur {
			re, _ := st.Ranking.At(pos)
			return re, true
		}
	}
	re, ok := st.Ranking.At(prev)
	if !ok || re.ID == id {
		return model.RankedEntity{}, false
	}
	return re, true
}
