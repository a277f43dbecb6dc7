package suggest

// Pool is an insertion-ordered set of suggestion strings. Equality is exact
// and case-sensitive.
type Pool struct {
	seen  map[string]struct{}
	items []string
}

func NewPool() *Pool {
	return &Pool{seen: make(map[string]struct{})}
}

// Add records s and reports whether it was new.
func (p *Pool) Add(s string) bool {
	if _, ok := p.seen[s]; ok {
		return false
	}
	p.seen[s] = struct{}{}
	p.items = append(p.items, s)
	return true
}

func (p *Pool) Len() int {
	return len(p.items)
}

// Items returns the pooled strings in discovery order.
func (p *Pool) Items() []string {
	out := make([]string, len(p.items))
	copy(out, p.items)
	return out
}
