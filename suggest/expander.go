// Package suggest expands a query with short suffixes and pools the
// suggestions the storefront returns for every expansion.
package suggest

import "iter"

// Alphabet is the symbol set used to expand a query.
const Alphabet = "abcdeghijkmnopqstuvwyz"

// Suffixes yields every single symbol of alphabet, then the two-symbol
// combinations in start/iteration/index order. Pairs repeat across start
// offsets; callers dedup what they collect. Each range restarts from the
// beginning.
func Suffixes(alphabet string) iter.Seq[string] {
	symbols := []rune(alphabet)
	n := len(symbols)

	return func(yield func(string) bool) {
		for _, r := range symbols {
			if !yield(string(r)) {
				return
			}
		}
		for start := 0; start < n; start++ {
			for iteration := 0; iteration < n; iteration++ {
				for i := start; i < n; i++ {
					if !yield(string(symbols[i]) + string(symbols[iteration])) {
						return
					}
				}
			}
		}
	}
}

// SuffixCount returns how many values Suffixes emits for an alphabet of n
// symbols.
func SuffixCount(n int) int {
	total := n
	for k := 0; k < n; k++ {
		total += (n - k) * n
	}
	return total
}
