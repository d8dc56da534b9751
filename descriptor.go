package termit

import "context"

// Attribute names routed by a Descriptor.
const (
	AttrParentTerms         = "parentTerms"
	AttrExternalParentTerms = "externalParentTerms"
	AttrExactMatchTerms     = "exactMatchTerms"
	AttrVocabulary          = "vocabulary"
)

// Descriptor routes an entity's attributes to storage contexts. Attributes
// without an override read and write the entity's own context.
type Descriptor struct {
	own       string
	overrides map[string]ContextSet
}

// Context returns the entity's own context.
func (d *Descriptor) Context() string { return d.own }

// AttributeContexts returns the contexts attr resolves against. An empty set
// means the default (unnamed) context.
func (d *Descriptor) AttributeContexts(attr string) ContextSet {
	if set, ok := d.overrides[attr]; ok {
		return set.Union(nil)
	}
	return NewContextSet(d.own)
}

// DescriptorFactory builds descriptors from the current workspace.
type DescriptorFactory struct {
	resolver *ContextResolver
}

// NewDescriptorFactory returns a factory backed by resolver.
func NewDescriptorFactory(resolver *ContextResolver) *DescriptorFactory {
	return &DescriptorFactory{resolver: resolver}
}

// ContextDescriptor describes a term read from an explicit context. With a
// non-nil cs its related terms resolve against cs as in TermDescriptor;
// otherwise every attribute maps to storageContext.
func (f *DescriptorFactory) ContextDescriptor(storageContext string, cs *ContextStore) *Descriptor {
	if cs == nil {
		return &Descriptor{own: storageContext}
	}
	return termDescriptor(storageContext, cs)
}

// VocabularyDescriptor describes a vocabulary stored in its workspace
// context.
func (f *DescriptorFactory) VocabularyDescriptor(ctx context.Context, vocabulary string) (*Descriptor, error) {
	own, err := f.resolver.VocabularyContext(ctx, vocabulary)
	if err != nil {
		return nil, err
	}
	return &Descriptor{own: own}, nil
}

// TermDescriptor describes a term of vocabulary. Its own attributes live in
// the vocabulary context. Related terms may live anywhere the workspace can
// see, so they resolve against workspace vocabulary contexts plus unshadowed
// canonical contexts. The inferred vocabulary attribute maps to the default
// context.
func (f *DescriptorFactory) TermDescriptor(ctx context.Context, vocabulary string) (*Descriptor, error) {
	own, err := f.resolver.VocabularyContext(ctx, vocabulary)
	if err != nil {
		return nil, err
	}
	cs, err := f.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return termDescriptor(own, cs), nil
}

func termDescriptor(own string, cs *ContextStore) *Descriptor {
	related := cs.All()
	return &Descriptor{
		own: own,
		overrides: map[string]ContextSet{
			AttrParentTerms:         related,
			AttrExternalParentTerms: related,
			AttrExactMatchTerms:     related,
			AttrVocabulary:          {},
		},
	}
}
