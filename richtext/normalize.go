package richtext

import (
	"slices"
	"strconv"
	"strings"
)

// StyleGroup is a segment [Start, End) of the block where every code point
// has the same set of active styles.
type StyleGroup struct {
	Start  int
	End    int
	Styles []Style
}

// Segment is a part of the block delimited by hyperlink boundaries. When
// Link is set the segment renders as hyperlink wrapper around its style
// groups.
type Segment struct {
	Start  int
	End    int
	Groups []StyleGroup
	Link   *EntityData
}

// edgeSet collects distinct coordinates.
type edgeSet map[int]struct{}

func (es edgeSet) add(points ...int) {
	for _, p := range points {
		es[p] = struct{}{}
	}
}

func (es edgeSet) sorted() []int {
	edges := make([]int, 0, len(es))
	for p := range es {
		edges = append(edges, p)
	}
	slices.Sort(edges)
	return edges
}

// liveEntities returns entities with data sorted by start.
func liveEntities(entities []Entity) []Entity {
	live := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if e.Live() {
			live = append(live, e)
		}
	}
	slices.SortStableFunc(live, func(a, b Entity) int { return a.Start - b.Start })
	return live
}

// blockStyles selects style ranges fully contained in the block and rebases
// them to block local coordinates.
func blockStyles(styles []StyleRange, block Block) []StyleRange {
	var local []StyleRange
	for _, s := range styles {
		if s.Start >= block.Start && s.End <= block.End {
			s.Start -= block.Start
			s.End -= block.Start
			local = append(local, s)
		}
	}
	return local
}

// normalizeStyles partitions overlapping style ranges into ordered list of
// non overlapping style groups. Boundaries of entities split groups too, so
// hyperlink never cuts a group in two. Segments without active styles are
// not reported.
func normalizeStyles(styles []StyleRange, entities []Entity) []StyleGroup {
	dividers := make(edgeSet)
	for _, s := range styles {
		dividers.add(s.Start, s.End)
	}
	for _, e := range entities {
		dividers.add(e.Start, e.End)
	}
	if len(dividers) == 0 {
		return nil
	}

	var groups []StyleGroup
	edges := dividers.sorted()
	for i := 0; i < len(edges)-1; i++ {
		start, end := edges[i], edges[i+1]

		var applied []Style
		for _, s := range styles {
			if max(s.Start, start) < min(s.End, end) {
				applied = append(applied, Style{Name: s.Style, Value: s.Value})
			}
		}
		if len(applied) == 0 {
			continue
		}
		groups = append(groups, StyleGroup{Start: start, End: end, Styles: applied})
	}
	return groups
}

// groupEntities splits style groups by hyperlink boundaries. Entities must
// be live and sorted by start.
func groupEntities(entities []Entity, groups []StyleGroup) []Segment {
	switch {
	case len(entities) == 0 && len(groups) == 0:
		return nil

	case len(groups) == 0:
		dividers := make(edgeSet)
		dividers.add(entities[0].Start, entities[len(entities)-1].End)
		for _, e := range entities {
			dividers.add(e.Start, e.End)
		}
		return makeSegments(dividers.sorted(), entities, nil)

	case len(entities) == 0:
		return []Segment{{
			Start:  groups[0].Start,
			End:    groups[len(groups)-1].End,
			Groups: groups,
		}}
	}

	dividers := make(edgeSet)
	dividers.add(
		min(entities[0].Start, groups[0].Start),
		max(entities[len(entities)-1].End, groups[len(groups)-1].End),
	)
	for _, e := range entities {
		dividers.add(e.Start, e.End)
	}
	return makeSegments(dividers.sorted(), entities, groups)
}

// makeSegments creates segment for every pair of consecutive dividers with
// style groups fully inside of it. Segment starting where an entity starts
// carries its link.
func makeSegments(dividers []int, entities []Entity, groups []StyleGroup) []Segment {
	segments := make([]Segment, 0, max(0, len(dividers)-1))
	for i := 0; i < len(dividers)-1; i++ {
		seg := Segment{Start: dividers[i], End: dividers[i+1]}
		for _, g := range groups {
			if g.Start >= seg.Start && g.End <= seg.End {
				seg.Groups = append(seg.Groups, g)
			}
		}
		if idx := slices.IndexFunc(entities, func(e Entity) bool { return e.Start == seg.Start }); idx >= 0 {
			seg.Link = linkOf(entities[idx])
		}
		segments = append(segments, seg)
	}
	return segments
}

// linkOf returns entity link with defaults applied.
func linkOf(e Entity) *EntityData {
	link := &EntityData{Target: "_self"}
	if e.Data != nil {
		link.URL = e.Data.URL
		if e.Data.Target != "" {
			link.Target = e.Data.Target
		}
	}
	return link
}

// serializeRanges builds key comparing only segment boundaries of style
// groups, style content is not part of the key.
func serializeRanges(groups []StyleGroup) string {
	var sb strings.Builder
	for i, g := range groups {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(g.Start))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(g.End))
	}
	return sb.String()
}
