package ril

// FixDuplicateCIDs rewrites connection ids that collide within one listing.
// Some firmware reports cid 1 for two contexts at once. Every entry that
// repeats an earlier entry's id ends up with id 0; first occurrences are left
// alone. The loop mirrors the vendor workaround exactly, including the scan
// that sets and then clears the id.
func FixDuplicateCIDs(calls []DataCall) {
	for i := range calls {
		for j := i - 1; j >= 0; j-- {
			if calls[i].CID != calls[j].CID {
				continue
			}
			for k := range calls {
				if calls[k].CID == 1 {
					calls[i].CID = 0
					break
				}
				calls[i].CID = 1
			}
		}
	}
}
