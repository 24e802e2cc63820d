package chaos

// resolveFailures filters a Configuration down to its enabled flags and
// returns them in canonicalOrder, clamping each percentage into [0, 100]
// as a final defensive measure even though the validator already rejects
// out-of-range values at parse time (spec.md §4.4).
func resolveFailures(config Configuration) []ResolvedFailure {
	resolved := make([]ResolvedFailure, 0, len(config))

	for _, mode := range canonicalOrder {
		flag, ok := config[mode]
		if !ok || !flag.Enabled {
			continue
		}

		pct := flag.Percentage
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}

		resolved = append(resolved, ResolvedFailure{
			Mode:       mode,
			Percentage: pct,
			Flag:       flag,
		})
	}

	return resolved
}
