package bundle

import (
	"cmp"
	"slices"
)

// Aggregate groups records by [Classify] and orders the result.
// See [Classifier.Aggregate].
func Aggregate(records []ModuleRecord) []PackageGroup {
	return defaultClassifier.Aggregate(records)
}

// Aggregate classifies every record and returns one [PackageGroup] per group
// name. Groups are sorted by total bytes, largest first, and so are the files
// inside each group. Ties keep the order in which records were first seen.
//
// Negative byte counts are treated as zero. The input slice is not modified;
// each group owns a fresh copy of its files.
func (c *Classifier) Aggregate(records []ModuleRecord) []PackageGroup {
	if len(records) == 0 {
		return nil
	}

	index := make(map[string]int)
	var groups []PackageGroup
	for _, rec := range records {
		if rec.Bytes < 0 {
			rec.Bytes = 0
		}
		name := c.Classify(rec.Path)
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, PackageGroup{Name: name})
		}
		groups[i].Bytes += rec.Bytes
		groups[i].Files = append(groups[i].Files, rec)
	}

	for i := range groups {
		slices.SortStableFunc(groups[i].Files, func(a, b ModuleRecord) int {
			return cmp.Compare(b.Bytes, a.Bytes)
		})
	}
	slices.SortStableFunc(groups, func(a, b PackageGroup) int {
		return cmp.Compare(b.Bytes, a.Bytes)
	})
	return groups
}

// Dedupe collapses records that share a path, keeping the one with the most
// bytes. A module rendered into several output chunks is reported once per
// chunk; only its largest rendition counts toward the bundle.
//
// The result is sorted by bytes, largest first, with ties in first-seen order.
func Dedupe(records []ModuleRecord) []ModuleRecord {
	if len(records) == 0 {
		return nil
	}
	index := make(map[string]int, len(records))
	out := make([]ModuleRecord, 0, len(records))
	for _, rec := range records {
		if i, ok := index[rec.Path]; ok {
			if rec.Bytes > out[i].Bytes {
				out[i] = rec
			}
			continue
		}
		index[rec.Path] = len(out)
		out = append(out, rec)
	}
	slices.SortStableFunc(out, func(a, b ModuleRecord) int {
		return cmp.Compare(b.Bytes, a.Bytes)
	})
	return out
}

// TotalBytes returns the sum of the record sizes.
func TotalBytes(records []ModuleRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.Bytes
	}
	return total
}

// FindGroup returns the group with the given name.
func FindGroup(groups []PackageGroup, name string) (PackageGroup, bool) {
	for _, g := range groups {
		if g.Name == name {
			return g, true
		}
	}
	return PackageGroup{}, false
}
