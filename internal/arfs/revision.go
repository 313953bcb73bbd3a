package arfs

// LatestRevisions keeps the first occurrence of each entity id. Query results
// are ordered by descending height, so the first occurrence is the latest.
func LatestRevisions(entities []*FileOrFolder) []*FileOrFolder {
	seen := make(map[EntityID]struct{}, len(entities))
	out := make([]*FileOrFolder, 0, len(entities))
	for _, e := range entities {
		if _, ok := seen[e.EntityID]; ok {
			continue
		}
		seen[e.EntityID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// LatestDriveRevisions keeps the first occurrence of each drive id.
func LatestDriveRevisions(drives []*Drive) []*Drive {
	seen := make(map[EntityID]struct{}, len(drives))
	out := make([]*Drive, 0, len(drives))
	for _, d := range drives {
		if _, ok := seen[d.DriveID]; ok {
			continue
		}
		seen[d.DriveID] = struct{}{}
		out = append(out, d)
	}
	return out
}
