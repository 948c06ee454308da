package catalog

// buildChoices groups row indices by identity key and attaches to every
// row the ordered index set of its identity group. Groups preserve
// original row order and are shared between the rows of one identity, so
// they must never be mutated.
func (c *Catalog) buildChoices() {
	groups := make(map[string][]int)
	for i := 0; i < c.n; i++ {
		key := c.identity[i]
		groups[key] = append(groups[key], i)
	}
	c.choices = make([][]int, c.n)
	for i := 0; i < c.n; i++ {
		c.choices[i] = groups[c.identity[i]]
	}
}

// Choices returns the partner pool of row i: the indices of every row
// sharing i's identity key, in catalog order, including i itself. The
// returned slice is shared and read-only.
func (c *Catalog) Choices(i int) []int { return c.choices[i] }

// Groups returns the identity groups keyed by identity value. The slices
// are the same shared, read-only group slices returned by Choices.
func (c *Catalog) Groups() map[string][]int {
	groups := make(map[string][]int)
	for i := 0; i < c.n; i++ {
		key := c.identity[i]
		if _, ok := groups[key]; !ok {
			groups[key] = c.choices[i]
		}
	}
	return groups
}
