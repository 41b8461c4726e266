package chzzk_archiver

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrDuplicateProvider = errors.New("duplicate provider name")
	ErrInvalidProvider   = errors.New("invalid provider")
	ErrNoMatch           = errors.New("no provider matched the input")
)

type MatchFunc = func(string) (Source, error)

// A Provider matches any input it knows how to handle, giving a Source that
// can be used to download the media.
type Provider struct {
	Name  string
	Match MatchFunc
	// Priority of the matcher, lower (including negative) means earlier.
	Priority int16
}

func (p Provider) WithPriority(priority int16) Provider {
	p.Priority = priority
	return p
}

// A Match pairs a Source with the name of the Provider that created it.
type Match struct {
	ProviderName string
	Source       Source
}

type ProviderRegistry struct {
	providers   []*Provider
	providerMap map[string]*Provider
}

func (r *ProviderRegistry) Add(provider Provider) error {
	if provider.Name == "" || provider.Match == nil {
		return ErrInvalidProvider
	}
	if r.providerMap == nil {
		r.providerMap = make(map[string]*Provider)
	}
	if _, exists := r.providerMap[provider.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, provider.Name)
	}
	r.providerMap[provider.Name] = &provider
	r.providers = append(r.providers, &provider)
	sort.SliceStable(r.providers, func(i, j int) bool {
		return r.providers[i].Priority < r.providers[j].Priority
	})
	return nil
}

func (r *ProviderRegistry) MustAdd(provider Provider) {
	if err := r.Add(provider); err != nil {
		panic(err)
	}
}

// List returns registered provider names in priority order.
func (r *ProviderRegistry) List() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name)
	}
	return names
}

// Match tries each provider in priority order, returning the first Source.
// If nothing matches, the per-provider errors are aggregated under
// ErrNoMatch.
func (r *ProviderRegistry) Match(input string) (*Match, error) {
	errs := &multierror.Error{}
	errs = multierror.Append(errs, ErrNoMatch)
	for _, p := range r.providers {
		source, err := p.Match(input)
		if err == nil {
			return &Match{ProviderName: p.Name, Source: source}, nil
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", p.Name, err))
	}
	return nil, errs
}

// MatchWith matches input against a single named provider.
func (r *ProviderRegistry) MatchWith(name, input string) (*Match, error) {
	p, exists := r.providerMap[name]
	if !exists {
		return nil, fmt.Errorf("%w: no such provider: %s", ErrNoMatch, name)
	}
	source, err := p.Match(input)
	if err != nil {
		return nil, err
	}
	return &Match{ProviderName: p.Name, Source: source}, nil
}

// DefaultProviderRegistry is populated by provider packages' init(), via
// blank imports of the providers package.
var DefaultProviderRegistry ProviderRegistry
