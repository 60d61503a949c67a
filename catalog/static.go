package catalog

import "context"

// StaticProvider serves a precomputed, in-memory list of RelationMeta. It
// is the Provider used by tests and by callers embedding metadata they
// already have (e.g. a snapshot checked into source control) instead of
// reflecting a live connection.
type StaticProvider struct {
	relations []RelationMeta
}

// NewStaticProvider returns a Provider serving exactly the given relations.
func NewStaticProvider(relations ...RelationMeta) *StaticProvider {
	return &StaticProvider{relations: relations}
}

// Relations implements Provider.
func (p *StaticProvider) Relations(context.Context) ([]RelationMeta, error) {
	return p.relations, nil
}
