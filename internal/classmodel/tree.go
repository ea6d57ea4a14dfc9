package classmodel

import (
	"sort"

	"github.com/deploymenttheory/garlic/internal/dex"
)

// SourceFile groups a top-level class together with the inner and
// anonymous classes nested inside it, mirroring the .java file a
// single top-level class would have compiled from (spec.md §9:
// "one task per top-level class, inner classes inlined into their
// enclosing task"). There is no parent back-reference: the tree is a
// forest of SourceFiles, not a graph of ResolvedClasses, so nothing
// but the owning SourceFile keeps an inner class alive.
type SourceFile struct {
	TopLevel *ResolvedClass
	Inner    []*ResolvedClass
}

// BuildForest resolves every class-def in img and groups them into a
// forest of SourceFiles keyed by top-level enclosing class. A class
// whose declared enclosing descriptor does not resolve to any class
// actually present in img (a partial dex, a split APK) is promoted to
// its own top-level entry rather than dropped.
func BuildForest(img *dex.Image) ([]*SourceFile, error) {
	resolved := make(map[string]*ResolvedClass, len(img.ClassDefs))
	order := make([]string, 0, len(img.ClassDefs))
	for _, cd := range img.ClassDefs {
		rc, err := Resolve(img, cd)
		if err != nil {
			return nil, err
		}
		resolved[rc.Descriptor] = rc
		order = append(order, rc.Descriptor)
	}

	files := make(map[string]*SourceFile)
	var forest []*SourceFile

	topLevelOf := func(rc *ResolvedClass) string {
		desc := rc.Descriptor
		for {
			rc2, ok := resolved[desc]
			if !ok || !rc2.IsInner() {
				return desc
			}
			enc := rc2.EnclosingDescriptor()
			if enc == "" || enc == desc {
				return desc
			}
			if _, ok := resolved[enc]; !ok {
				return desc // enclosing class not present in this image
			}
			desc = enc
		}
	}

	for _, desc := range order {
		rc := resolved[desc]
		top := topLevelOf(rc)
		sf, ok := files[top]
		if !ok {
			sf = &SourceFile{TopLevel: resolved[top]}
			files[top] = sf
			forest = append(forest, sf)
		}
		if desc != top {
			sf.Inner = append(sf.Inner, rc)
		}
	}

	sort.Slice(forest, func(i, j int) bool {
		return forest[i].TopLevel.Descriptor < forest[j].TopLevel.Descriptor
	})
	for _, sf := range forest {
		sort.Slice(sf.Inner, func(i, j int) bool {
			return sf.Inner[i].Descriptor < sf.Inner[j].Descriptor
		})
	}
	return forest, nil
}
