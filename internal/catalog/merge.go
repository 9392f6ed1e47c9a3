package catalog

import (
	"sort"

	"insight-workers/internal/models"
)

// Merge unions local drafts with the remote feed. Locals come first, most
// recent first; a remote entry whose id is also local is dropped. Remotes keep
// feed order and the first occurrence of a repeated remote id wins.
func Merge(local, remote []models.Ruleset) []models.Ruleset {
	out := make([]models.Ruleset, 0, len(local)+len(remote))
	out = append(out, local...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	seen := make(map[string]struct{}, len(out)+len(remote))
	for _, r := range out {
		seen[r.ID] = struct{}{}
	}
	for _, r := range remote {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
