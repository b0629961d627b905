package reads

// SharedNames returns the read names present in both a and b. Reads aligned
// to both the WATSON and CRICK converted references cannot be assigned a
// strand.
func SharedNames(a, b []AlignedRead) map[string]struct{} {
	inA := make(map[string]struct{}, len(a))
	for i := range a {
		inA[a[i].Name] = struct{}{}
	}
	ans := make(map[string]struct{})
	for i := range b {
		if _, found := inA[b[i].Name]; found {
			ans[b[i].Name] = struct{}{}
		}
	}
	return ans
}

// Exclude returns the reads of in whose name is not in names, preserving
// order, and the number removed.
func Exclude(in []AlignedRead, names map[string]struct{}) ([]AlignedRead, int) {
	if len(names) == 0 {
		return in, 0
	}
	ans := make([]AlignedRead, 0, len(in))
	for i := range in {
		if _, found := names[in[i].Name]; found {
			continue
		}
		ans = append(ans, in[i])
	}
	return ans, len(in) - len(ans)
}
