package sync

// PatternIndex maps remote pattern names to their location handles while
// preserving discovery order. Put on an existing name overwrites the
// location and keeps the original position: last write wins. The remote
// side should not contain duplicate names, but if it does the index
// collapses them deliberately instead of failing.
type PatternIndex struct {
	names     []string
	locations map[string]string
}

func NewPatternIndex() *PatternIndex {
	return &PatternIndex{locations: map[string]string{}}
}

func (i *PatternIndex) Put(name string, location string) {
	if _, exists := i.locations[name]; !exists {
		i.names = append(i.names, name)
	}
	i.locations[name] = location
}

func (i *PatternIndex) Get(name string) (string, bool) {
	location, ok := i.locations[name]
	return location, ok
}

func (i *PatternIndex) Has(name string) bool {
	_, ok := i.locations[name]
	return ok
}

// Names returns the pattern names in discovery order.
func (i *PatternIndex) Names() []string {
	out := make([]string, len(i.names))
	copy(out, i.names)
	return out
}

func (i *PatternIndex) Len() int {
	return len(i.names)
}
