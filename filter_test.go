package catalogaccess

import (
	"testing"
)

func selectedPerm() *EffectivePermission {
	return &EffectivePermission{
		AccessMode:        AccessSelected,
		AllowedCategories: []string{"cat-a"},
		AllowedItems:      []string{"item-direct"},
		DeniedCategories:  []string{"cat-bad"},
		DeniedItems:       []string{"item-bad"},
	}
}

func TestAccessibleBlacklistBeatsWhitelist(t *testing.T) {
	perm := &EffectivePermission{
		AccessMode:   AccessSelected,
		AllowedItems: []string{"item-1"},
		DeniedItems:  []string{"item-1"},
	}
	if Accessible(perm, "cat-a", "item-1", nil) {
		t.Fatalf("item in both lists must be denied")
	}

	perm = &EffectivePermission{
		AccessMode:        AccessAll,
		AllowedCategories: []string{"cat-a"},
		DeniedCategories:  []string{"cat-a"},
	}
	if Accessible(perm, "cat-a", "item-1", nil) {
		t.Fatalf("category in both lists must be denied")
	}
}

func TestAccessibleDeniedAncestorWins(t *testing.T) {
	perm := selectedPerm()
	// cat-leaf is under cat-a (allowed) but also under cat-bad (denied)
	if Accessible(perm, "cat-leaf", "item-1", []string{"cat-bad", "cat-a"}) {
		t.Fatalf("denied ancestor must deny regardless of direct permission")
	}
}

func TestAccessibleModeSemantics(t *testing.T) {
	all := &EffectivePermission{AccessMode: AccessAll, DeniedItems: []string{"item-bad"}}
	if !Accessible(all, "anything", "item-1", nil) {
		t.Fatalf("mode all grants everything not denied")
	}
	if Accessible(all, "anything", "item-bad", nil) {
		t.Fatalf("mode all must still honor the blacklist")
	}

	none := &EffectivePermission{AccessMode: AccessNone, AllowedItems: []string{"item-1"}}
	if Accessible(none, "cat-a", "item-1", nil) {
		t.Fatalf("mode none grants nothing")
	}
}

func TestAccessibleSelectedAncestorPropagation(t *testing.T) {
	perm := selectedPerm()
	if !Accessible(perm, "cat-a", "item-1", nil) {
		t.Fatalf("directly allowed category must grant")
	}
	if !Accessible(perm, "cat-a1", "item-1", []string{"cat-a"}) {
		t.Fatalf("allowed ancestor must grant")
	}
	if !Accessible(perm, "cat-other", "item-direct", nil) {
		t.Fatalf("directly allowed item must grant")
	}
	if Accessible(perm, "cat-other", "item-1", []string{"cat-parent"}) {
		t.Fatalf("no whitelist match must deny under selected")
	}
}

func TestCategoryIndexAncestors(t *testing.T) {
	idx := newCategoryIndex([]*Category{
		{ID: "root"},
		{ID: "mid", ParentID: "root"},
		{ID: "leaf", ParentID: "mid"},
		{ID: "orphan", ParentID: "gone"},
	})
	chain := idx.Ancestors("leaf")
	if len(chain) != 2 || chain[0] != "mid" || chain[1] != "root" {
		t.Fatalf("expected [mid root], got %v", chain)
	}
	// memoized result is stable
	if again := idx.Ancestors("leaf"); len(again) != 2 {
		t.Fatalf("memoized chain changed: %v", again)
	}
	if chain := idx.Ancestors("orphan"); len(chain) != 1 || chain[0] != "gone" {
		t.Fatalf("broken parent link should end the walk, got %v", chain)
	}
}

func TestCategoryIndexCycleTerminates(t *testing.T) {
	idx := newCategoryIndex([]*Category{
		{ID: "a", ParentID: "b"},
		{ID: "b", ParentID: "a"},
	})
	chain := idx.Ancestors("a")
	if len(chain) != 1 || chain[0] != "b" {
		t.Fatalf("cycle must terminate, got %v", chain)
	}
}

func treeCatalog() []*Category {
	return []*Category{
		{ID: "a", OrganizationID: "org-1", Active: true},
		{ID: "a1", OrganizationID: "org-1", ParentID: "a", Active: true},
		{ID: "a1x", OrganizationID: "org-1", ParentID: "a1", Active: true},
		{ID: "a2", OrganizationID: "org-1", ParentID: "a", Active: true},
		{ID: "b", OrganizationID: "org-1", Active: true},
		{ID: "b1", OrganizationID: "org-1", ParentID: "b", Active: true},
		{ID: "dead", OrganizationID: "org-1", Active: false},
	}
}

func findNode(nodes []*CategoryNode, id string) *CategoryNode {
	for _, n := range nodes {
		if n.Category.ID == id {
			return n
		}
		if found := findNode(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}

func TestBuildCategoryTreeSelected(t *testing.T) {
	perm := &EffectivePermission{
		AccessMode:        AccessSelected,
		AllowedCategories: []string{"a1"},
	}
	tree := BuildCategoryTree(perm, treeCatalog())

	if findNode(tree, "a") == nil {
		t.Fatalf("breadcrumb ancestor a must be included")
	}
	if findNode(tree, "a1") == nil || findNode(tree, "a1x") == nil {
		t.Fatalf("permitted category and its descendants must be included")
	}
	if findNode(tree, "a2") != nil {
		t.Fatalf("sibling branch of a breadcrumb ancestor must not be included")
	}
	if findNode(tree, "b") != nil {
		t.Fatalf("unrelated root must not be included")
	}
}

func TestBuildCategoryTreeSelectedStopsAtDeniedBranch(t *testing.T) {
	perm := &EffectivePermission{
		AccessMode:        AccessSelected,
		AllowedCategories: []string{"a"},
		DeniedCategories:  []string{"a1"},
	}
	tree := BuildCategoryTree(perm, treeCatalog())
	if findNode(tree, "a") == nil || findNode(tree, "a2") == nil {
		t.Fatalf("allowed branch must be included")
	}
	if findNode(tree, "a1") != nil || findNode(tree, "a1x") != nil {
		t.Fatalf("denied branch and its subtree must be excluded")
	}
}

func TestBuildCategoryTreeAllMinusDenied(t *testing.T) {
	perm := &EffectivePermission{
		AccessMode:       AccessAll,
		DeniedCategories: []string{"b"},
	}
	tree := BuildCategoryTree(perm, treeCatalog())
	if findNode(tree, "a") == nil || findNode(tree, "a1x") == nil {
		t.Fatalf("full active tree expected outside denied subtrees")
	}
	if findNode(tree, "b") != nil || findNode(tree, "b1") != nil {
		t.Fatalf("denied subtree must be pruned")
	}
	if findNode(tree, "dead") != nil {
		t.Fatalf("inactive categories never appear")
	}
}

func TestBuildCategoryTreeNone(t *testing.T) {
	perm := &EffectivePermission{AccessMode: AccessNone}
	if tree := BuildCategoryTree(perm, treeCatalog()); len(tree) != 0 {
		t.Fatalf("mode none yields an empty tree, got %d roots", len(tree))
	}
}

func TestBuildCategoryTreeAllowedUnderDeniedAncestor(t *testing.T) {
	perm := &EffectivePermission{
		AccessMode:        AccessSelected,
		AllowedCategories: []string{"a1x"},
		DeniedCategories:  []string{"a"},
	}
	tree := BuildCategoryTree(perm, treeCatalog())
	if len(tree) != 0 {
		t.Fatalf("whitelist below a denied ancestor must not resurface, got %d roots", len(tree))
	}
}

func TestExplainAccessTraces(t *testing.T) {
	perm := selectedPerm()
	d := explainAccess(perm, "cat-a1", "item-1", []string{"cat-a"})
	if !d.Allowed || d.MatchedBy != "cat-a" {
		t.Fatalf("expected allow matched by ancestor cat-a, got %+v", d)
	}
	if len(d.Trace) == 0 {
		t.Fatalf("expected a populated trace")
	}

	d = explainAccess(perm, "cat-a", "item-bad", []string{})
	if d.Allowed || d.MatchedBy != "item-bad" {
		t.Fatalf("expected deny matched by blacklisted item, got %+v", d)
	}
}
