package character

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperfocist/ValleyTalk/app/service/bank"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

const preloadConcurrency = 4

// Service is the character registry. Characters are loaded lazily on
// first use and kept for the lifetime of the process.
type Service struct {
	bank *bank.Service

	mu         sync.Mutex
	characters map[string]*Character
}

func New(di *do.Injector) (*Service, error) {
	bankService := do.MustInvoke[*bank.Service](di)

	return &Service{
		bank:       bankService,
		characters: make(map[string]*Character),
	}, nil
}

// Get returns the character with the given name, loading its bio and
// dialogue bank on first access. Loading happens outside the registry
// lock, so concurrent first accesses may load twice; the first insert
// wins and the duplicate is discarded.
func (s *Service) Get(name string) (*Character, error) {
	s.mu.Lock()
	char, ok := s.characters[name]
	s.mu.Unlock()
	if ok {
		return char, nil
	}

	bio, err := s.bank.LoadBio(name)
	if err != nil {
		return nil, fmt.Errorf("load bio for %s: %w", name, err)
	}
	samples, err := s.bank.LoadSamples(name)
	if err != nil {
		return nil, fmt.Errorf("load dialogue bank for %s: %w", name, err)
	}

	loaded, err := newCharacter(name, bio, samples)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if char, ok := s.characters[name]; ok {
		return char, nil
	}
	s.characters[name] = loaded
	return loaded, nil
}

// Preload warms the registry for every character with a dialogue bank or
// bio on disk.
func (s *Service) Preload(ctx context.Context) error {
	names, err := s.bank.ListCharacters()
	if err != nil {
		return fmt.Errorf("list characters: %w", err)
	}

	group, _ := errgroup.WithContext(ctx)
	group.SetLimit(preloadConcurrency)
	for _, name := range names {
		group.Go(func() error {
			_, err := s.Get(name)
			return err
		})
	}
	return group.Wait()
}

// All returns a snapshot of the loaded characters.
func (s *Service) All() []*Character {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]*Character, 0, len(s.characters))
	for _, char := range s.characters {
		result = append(result, char)
	}
	return result
}
