package bank

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyperfocist/ValleyTalk/app/config"
	"github.com/hyperfocist/ValleyTalk/app/dialogue"
	"github.com/samber/do"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// defaultPortraits are the tags every vanilla sprite sheet has.
var defaultPortraits = []string{"h", "s", "l", "a"}

// Bio describes one character's personality file.
type Bio struct {
	Name           string            `yaml:"-"`
	Biography      []string          `yaml:"biography"`
	Preoccupations []string          `yaml:"preoccupations"`
	ExtraPortraits map[string]string `yaml:"extra_portraits"`
	LovedGifts     []string          `yaml:"loved_gifts"`
	HatedGifts     []string          `yaml:"hated_gifts"`
	Missing        bool              `yaml:"-"`
}

// ValidPortraits returns the default tag set plus the bio's extras.
func (b *Bio) ValidPortraits() []string {
	result := append([]string{}, defaultPortraits...)
	for tag := range b.ExtraPortraits {
		result = append(result, tag)
	}
	return result
}

// Service loads bios and dialogue banks from the data directory.
//
// Layout: <data_dir>/bios/<npc>.yaml, <data_dir>/dialogue/<npc>.yaml and
// an optional <data_dir>/dialogue/<npc>.marriage.yaml whose keys are
// registered under the M_ prefix.
type Service struct {
	dataDir string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Service{
		dataDir: cfg.Game.DataDir,
	}, nil
}

// ListCharacters returns every name that has a bio or dialogue bank file.
func (s *Service) ListCharacters() ([]string, error) {
	names := make(map[string]struct{})
	for _, dir := range []string{"bios", "dialogue"} {
		entries, err := os.ReadDir(filepath.Join(s.dataDir, dir))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, oops.With("dir", dir).Wrapf(err, "list data directory")
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
				continue
			}
			name = strings.TrimSuffix(name, ".yaml")
			name = strings.TrimSuffix(name, ".marriage")
			names[name] = struct{}{}
		}
	}

	result := make([]string, 0, len(names))
	for name := range names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result, nil
}

// LoadBio reads the character's bio file. A missing file is not an error:
// the returned bio is marked Missing and carries the default portrait set.
func (s *Service) LoadBio(name string) (*Bio, error) {
	path := filepath.Join(s.dataDir, "bios", name+".yaml")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("no bio file found", slog.String("npc", name))
			return &Bio{Name: name, Missing: true}, nil
		}
		return nil, oops.With("npc", name).Wrapf(err, "read bio file")
	}

	var bio Bio
	if err := yaml.Unmarshal(data, &bio); err != nil {
		return nil, oops.With("npc", name).Wrapf(err, "parse bio file")
	}
	bio.Name = name
	return &bio, nil
}

// LoadSamples reads the character's dialogue bank, parsing every key into
// a situational context. Marriage-file keys are prefixed with M_ before
// parsing so the married flag survives the round trip.
func (s *Service) LoadSamples(name string) ([]dialogue.Sample, error) {
	samples, err := s.loadBankFile(filepath.Join(s.dataDir, "dialogue", name+".yaml"), "")
	if err != nil {
		return nil, err
	}

	married, err := s.loadBankFile(filepath.Join(s.dataDir, "dialogue", name+".marriage.yaml"), "M_")
	if err != nil {
		return nil, err
	}

	return append(samples, married...), nil
}

func (s *Service) loadBankFile(path, keyPrefix string) ([]dialogue.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, oops.With("path", path).Wrapf(err, "read dialogue bank")
	}

	var entries map[string]lineSet
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, oops.With("path", path).Wrapf(err, "parse dialogue bank")
	}

	var samples []dialogue.Sample
	for key, lines := range entries {
		ctx := dialogue.ParseKey(keyPrefix + key)
		for _, text := range lines {
			if strings.TrimSpace(text) == "" {
				continue
			}
			samples = append(samples, dialogue.Sample{
				Context: ctx,
				Text:    text,
			})
		}
	}
	return samples, nil
}

// lineSet accepts either a single string or a list of strings, so bank
// files can offer several candidate lines per key.
type lineSet []string

func (l *lineSet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*l = lineSet{single}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := node.Decode(&many); err != nil {
			return err
		}
		*l = lineSet(many)
		return nil
	default:
		return fmt.Errorf("unexpected yaml node kind %d for dialogue lines", node.Kind)
	}
}
