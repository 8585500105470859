package services

import (
	"slices"

	"github.com/logm8/logmate/internal/server/models"
)

const (
	motorbikeVehicleType = "Motorbike"
	ownershipOptionName  = "Ownership"
)

// FlattenFor walks the catalog from the roots linked to vehicleType and
// returns one row per reachable (option, parent) edge; roots have a nil
// parent. Each edge is followed once, so relation cycles terminate.
func FlattenFor(vehicleType string, opts []models.CatalogOption, rels []models.OptionRelation, links []models.VehicleTypeLink) []models.FlatServiceOption {
	byID := make(map[int]models.CatalogOption, len(opts))
	for _, o := range opts {
		byID[o.ID] = o
	}
	children := make(map[int][]int)
	for _, r := range rels {
		children[r.ParentID] = append(children[r.ParentID], r.ChildID)
	}

	var (
		out      []models.FlatServiceOption
		queue    []int
		expanded = make(map[int]bool)
		seenEdge = make(map[models.OptionRelation]bool)
	)
	emit := func(id int, parent *int) {
		o, ok := byID[id]
		if !ok {
			return
		}
		out = append(out, models.FlatServiceOption{
			ID:           o.ID,
			Name:         o.Name,
			Description:  o.Description,
			ParentID:     parent,
			ServiceTypes: o.ServiceTypes,
		})
		if !expanded[id] {
			expanded[id] = true
			queue = append(queue, id)
		}
	}

	for _, l := range links {
		if l.VehicleType == vehicleType {
			emit(l.OptionID, nil)
		}
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, c := range children[p] {
			e := models.OptionRelation{ParentID: p, ChildID: c}
			if seenEdge[e] {
				continue
			}
			seenEdge[e] = true
			parent := p
			emit(c, &parent)
		}
	}
	return out
}

// OptionsNamed returns the options called name as parentless rows.
func OptionsNamed(name string, opts []models.CatalogOption) []models.FlatServiceOption {
	var out []models.FlatServiceOption
	for _, o := range opts {
		if o.Name == name {
			out = append(out, models.FlatServiceOption{
				ID:           o.ID,
				Name:         o.Name,
				Description:  o.Description,
				ServiceTypes: o.ServiceTypes,
			})
		}
	}
	return out
}

// BuildHierarchy assembles flat rows into trees. Rows are grouped by id and
// their service types merged. A child hangs under a parent only if the
// parent is among the rows; roots are ids that never appear with a parent.
// An option reachable from two parents is copied under each, and a child
// that is already an ancestor on the current path is skipped.
func BuildHierarchy(flat []models.FlatServiceOption) []*models.ServiceOption {
	type node struct {
		opt      models.FlatServiceOption
		types    []string
		children []int
	}

	nodes := make(map[int]*node)
	var order []int
	for _, f := range flat {
		n, ok := nodes[f.ID]
		if !ok {
			n = &node{opt: f}
			nodes[f.ID] = n
			order = append(order, f.ID)
		}
		for _, t := range f.ServiceTypes {
			if !slices.Contains(n.types, t) {
				n.types = append(n.types, t)
			}
		}
	}

	hasParent := make(map[int]bool)
	for _, f := range flat {
		if f.ParentID == nil {
			continue
		}
		hasParent[f.ID] = true
		if p, ok := nodes[*f.ParentID]; ok && !slices.Contains(p.children, f.ID) {
			p.children = append(p.children, f.ID)
		}
	}

	onPath := make(map[int]bool)
	var build func(id int) *models.ServiceOption
	build = func(id int) *models.ServiceOption {
		n := nodes[id]
		onPath[id] = true
		defer delete(onPath, id)

		out := &models.ServiceOption{
			ID:           n.opt.ID,
			Name:         n.opt.Name,
			Description:  n.opt.Description,
			ServiceTypes: append([]string{}, n.types...),
			Children:     []*models.ServiceOption{},
		}
		for _, c := range n.children {
			if onPath[c] {
				continue
			}
			out.Children = append(out.Children, build(c))
		}
		return out
	}

	roots := []*models.ServiceOption{}
	for _, id := range order {
		if !hasParent[id] {
			roots = append(roots, build(id))
		}
	}
	return roots
}
