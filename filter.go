package catalogaccess

import (
	"fmt"
	"time"

	"github.com/oarkflow/catalogaccess/utils"
)

// ============================================================================
// CATALOG FILTER
// ============================================================================

// permSet is a compiled membership view of an EffectivePermission, built once
// per filter call so per-item checks are map lookups.
type permSet struct {
	mode         AccessMode
	allowedCats  map[string]struct{}
	allowedItems map[string]struct{}
	deniedCats   map[string]struct{}
	deniedItems  map[string]struct{}
}

func compilePermission(perm *EffectivePermission) *permSet {
	return &permSet{
		mode:         perm.AccessMode,
		allowedCats:  utils.ToSet(perm.AllowedCategories),
		allowedItems: utils.ToSet(perm.AllowedItems),
		deniedCats:   utils.ToSet(perm.DeniedCategories),
		deniedItems:  utils.ToSet(perm.DeniedItems),
	}
}

// accessible applies the precedence chain; first match wins. The blacklist
// always beats the whitelist, even when an id appears in both.
func (ps *permSet) accessible(categoryID, itemID string, ancestors []string) bool {
	if itemID != "" {
		if _, ok := ps.deniedItems[itemID]; ok {
			return false
		}
	}
	if _, ok := ps.deniedCats[categoryID]; ok {
		return false
	}
	for _, anc := range ancestors {
		if _, ok := ps.deniedCats[anc]; ok {
			return false
		}
	}
	switch ps.mode {
	case AccessAll:
		return true
	case AccessNone:
		return false
	case AccessSelected:
		if itemID != "" {
			if _, ok := ps.allowedItems[itemID]; ok {
				return true
			}
		}
		if _, ok := ps.allowedCats[categoryID]; ok {
			return true
		}
		for _, anc := range ancestors {
			if _, ok := ps.allowedCats[anc]; ok {
				return true
			}
		}
	}
	return false
}

// Accessible reports whether an item (or a bare category when itemID is
// empty) is visible under the effective permission. ancestors is the chain of
// parent category ids above categoryID, nearest first.
func Accessible(perm *EffectivePermission, categoryID, itemID string, ancestors []string) bool {
	return compilePermission(perm).accessible(categoryID, itemID, ancestors)
}

// categoryIndex precomputes parent links for one catalog snapshot and
// memoizes ancestor closures across lookups within a single filter call.
type categoryIndex struct {
	byID    map[string]*Category
	parent  map[string]string
	closure map[string][]string
}

func newCategoryIndex(categories []*Category) *categoryIndex {
	idx := &categoryIndex{
		byID:    make(map[string]*Category, len(categories)),
		parent:  make(map[string]string, len(categories)),
		closure: make(map[string][]string),
	}
	for _, c := range categories {
		idx.byID[c.ID] = c
		if c.ParentID != "" {
			idx.parent[c.ID] = c.ParentID
		}
	}
	return idx
}

// Ancestors returns the full parent chain above id, nearest first. Broken
// parent links and cycles terminate the walk.
func (idx *categoryIndex) Ancestors(id string) []string {
	if chain, ok := idx.closure[id]; ok {
		return chain
	}
	chain := make([]string, 0, 4)
	seen := map[string]struct{}{id: {}}
	cur := id
	for {
		p, ok := idx.parent[cur]
		if !ok {
			break
		}
		if _, cycle := seen[p]; cycle {
			break
		}
		seen[p] = struct{}{}
		chain = append(chain, p)
		cur = p
	}
	idx.closure[id] = chain
	return chain
}

// ============================================================================
// CATEGORY TREE
// ============================================================================

// BuildCategoryTree computes the accessible category tree for UI navigation
// from one catalog snapshot. Under selected mode the tree holds every
// directly permitted category, its descendants (stopping at denied branches)
// and the ancestor chain of each included category for breadcrumbs; sibling
// branches of a breadcrumb ancestor are never pulled in. Under all mode it is
// the full active tree minus denied subtrees. Under none it is empty.
func BuildCategoryTree(perm *EffectivePermission, categories []*Category) []*CategoryNode {
	ps := compilePermission(perm)
	if ps.mode == AccessNone {
		return nil
	}

	idx := newCategoryIndex(categories)
	children := make(map[string][]*Category)
	roots := make([]*Category, 0)
	for _, c := range categories {
		if !c.Active {
			continue
		}
		if c.ParentID == "" {
			roots = append(roots, c)
		} else {
			children[c.ParentID] = append(children[c.ParentID], c)
		}
	}

	denied := func(id string) bool {
		_, ok := ps.deniedCats[id]
		return ok
	}

	included := make(map[string]struct{})
	switch ps.mode {
	case AccessAll:
		var walk func(c *Category)
		walk = func(c *Category) {
			if denied(c.ID) {
				return
			}
			included[c.ID] = struct{}{}
			for _, child := range children[c.ID] {
				walk(child)
			}
		}
		for _, r := range roots {
			walk(r)
		}
	case AccessSelected:
		var markDescendants func(c *Category)
		markDescendants = func(c *Category) {
			if denied(c.ID) {
				return
			}
			included[c.ID] = struct{}{}
			for _, child := range children[c.ID] {
				markDescendants(child)
			}
		}
		for id := range ps.allowedCats {
			c, ok := idx.byID[id]
			if !ok || !c.Active || denied(id) {
				continue
			}
			ancestors := idx.Ancestors(id)
			blocked := false
			for _, anc := range ancestors {
				if denied(anc) {
					blocked = true
					break
				}
			}
			if blocked {
				continue
			}
			markDescendants(c)
			// ancestor chain for breadcrumb navigation only
			for _, anc := range ancestors {
				if ac, ok := idx.byID[anc]; ok && ac.Active {
					included[anc] = struct{}{}
				}
			}
		}
	}

	var build func(c *Category) *CategoryNode
	build = func(c *Category) *CategoryNode {
		if _, ok := included[c.ID]; !ok {
			return nil
		}
		node := &CategoryNode{Category: c}
		for _, child := range children[c.ID] {
			if n := build(child); n != nil {
				node.Children = append(node.Children, n)
			}
		}
		return node
	}
	tree := make([]*CategoryNode, 0)
	for _, r := range roots {
		if n := build(r); n != nil {
			tree = append(tree, n)
		}
	}
	return tree
}

// ============================================================================
// EXPLAIN
// ============================================================================

// AccessDecision is the traced result of a single accessibility check.
type AccessDecision struct {
	Allowed   bool      `json:"allowed"`
	Reason    string    `json:"reason"`
	MatchedBy string    `json:"matched_by,omitempty"` // the id that decided
	Trace     []string  `json:"trace"`
	Timestamp time.Time `json:"timestamp"`
}

// explainAccess replays the precedence chain recording each step.
func explainAccess(perm *EffectivePermission, categoryID, itemID string, ancestors []string) *AccessDecision {
	ps := compilePermission(perm)
	d := &AccessDecision{Timestamp: time.Now(), Trace: make([]string, 0, 6)}

	d.Trace = append(d.Trace, "1. Checking denied items...")
	if itemID != "" {
		if _, ok := ps.deniedItems[itemID]; ok {
			d.Reason = "item denied"
			d.MatchedBy = itemID
			d.Trace = append(d.Trace, fmt.Sprintf("   DENY: item %s blacklisted", itemID))
			return d
		}
	}
	d.Trace = append(d.Trace, "2. Checking denied categories and ancestors...")
	for _, id := range append([]string{categoryID}, ancestors...) {
		if _, ok := ps.deniedCats[id]; ok {
			d.Reason = "category denied"
			d.MatchedBy = id
			d.Trace = append(d.Trace, fmt.Sprintf("   DENY: category %s blacklisted", id))
			return d
		}
	}
	d.Trace = append(d.Trace, fmt.Sprintf("3. Access mode is %q", ps.mode))
	switch ps.mode {
	case AccessAll:
		d.Allowed = true
		d.Reason = "access mode all"
		d.Trace = append(d.Trace, "   ALLOW: mode grants everything not denied")
		return d
	case AccessNone:
		d.Reason = "access mode none"
		d.Trace = append(d.Trace, "   DENY: mode grants nothing")
		return d
	}
	d.Trace = append(d.Trace, "4. Checking whitelist...")
	if itemID != "" {
		if _, ok := ps.allowedItems[itemID]; ok {
			d.Allowed = true
			d.Reason = "item allowed"
			d.MatchedBy = itemID
			d.Trace = append(d.Trace, fmt.Sprintf("   ALLOW: item %s whitelisted", itemID))
			return d
		}
	}
	for _, id := range append([]string{categoryID}, ancestors...) {
		if _, ok := ps.allowedCats[id]; ok {
			d.Allowed = true
			d.Reason = "category allowed"
			d.MatchedBy = id
			d.Trace = append(d.Trace, fmt.Sprintf("   ALLOW: category %s whitelisted", id))
			return d
		}
	}
	d.Reason = "not whitelisted"
	d.Trace = append(d.Trace, "5. DENY: selected mode and no whitelist match")
	return d
}
