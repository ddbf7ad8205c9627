package env

// Pool is an arena of entities addressed by id. Iteration follows insertion
// order so that runs are reproducible.
type Pool[T any] struct {
	ids  []string
	byID map[string]*T
}

func newPool[T any](capacity int) *Pool[T] {
	return &Pool[T]{ids: make([]string, 0, capacity), byID: make(map[string]*T, capacity)}
}

// add inserts v under id. A duplicate id replaces the previous entity.
func (p *Pool[T]) add(id string, v T) {
	if _, ok := p.byID[id]; !ok {
		p.ids = append(p.ids, id)
	}
	item := v
	p.byID[id] = &item
}

func (p *Pool[T]) get(id string) (*T, bool) {
	v, ok := p.byID[id]
	return v, ok
}

func (p *Pool[T]) each(fn func(*T)) {
	for _, id := range p.ids {
		fn(p.byID[id])
	}
}

// Len returns the number of entities.
func (p *Pool[T]) Len() int { return len(p.ids) }

// IDs returns the entity ids in iteration order.
func (p *Pool[T]) IDs() []string {
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

// values copies the entities in iteration order.
func (p *Pool[T]) values() []T {
	out := make([]T, 0, len(p.ids))
	for _, id := range p.ids {
		out = append(out, *p.byID[id])
	}
	return out
}
