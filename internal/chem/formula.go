package chem

import "fmt"

// ParseFormula expands a molecular formula such as "CH3" or "CO2" into
// element counts. Symbols are one uppercase letter optionally followed by
// one lowercase letter, each with an optional integer repeat count.
func ParseFormula(formula string) (map[string]int, error) {
	if formula == "" {
		return nil, fmt.Errorf("empty formula")
	}

	counts := make(map[string]int)
	i := 0
	for i < len(formula) {
		c := formula[i]
		if c < 'A' || c > 'Z' {
			return nil, fmt.Errorf("formula %q: unexpected character %q at position %d", formula, c, i)
		}
		sym := string(c)
		i++
		if i < len(formula) && formula[i] >= 'a' && formula[i] <= 'z' {
			sym += string(formula[i])
			i++
		}

		n := 0
		for i < len(formula) && formula[i] >= '0' && formula[i] <= '9' {
			n = n*10 + int(formula[i]-'0')
			i++
		}
		if n == 0 {
			if i > 0 && formula[i-1] >= '0' && formula[i-1] <= '9' {
				return nil, fmt.Errorf("formula %q: zero count for %s", formula, sym)
			}
			n = 1
		}
		counts[sym] += n
	}
	return counts, nil
}

// AtomCount returns the total number of atoms in the formula.
func AtomCount(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
