package aircraft

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gopkg.in/yaml.v3"

	"swiftgo/pkg/model"
	"swiftgo/pkg/sim"
	"swiftgo/pkg/store"
)

const (
	candidateCacheSize = 256
	candidateTTL       = 10 * time.Minute
	storeTimeout       = 2 * time.Second
)

// ModelRepository is the part of the store the matcher needs.
type ModelRepository interface {
	store.ModelStore
	store.DisabledModelStore
}

// Matcher picks a simulator title for a network aircraft from the model set.
type Matcher struct {
	repo         ModelRepository
	defaultTitle string
	candidates   *expirable.LRU[string, []model.Model]
	logger       *slog.Logger
}

// NewMatcher creates a matcher. defaultTitle is used when no model of the
// aircraft type is installed.
func NewMatcher(repo ModelRepository, defaultTitle string) *Matcher {
	return &Matcher{
		repo:         repo,
		defaultTitle: defaultTitle,
		candidates:   expirable.NewLRU[string, []model.Model](candidateCacheSize, nil, candidateTTL),
		logger:       slog.Default().With("component", "matcher"),
	}
}

// Match returns the best installed, enabled title for ac, the default title
// when none fits, or "" if even that is disabled. Among equally good
// liveries the choice is stable per callsign.
func (m *Matcher) Match(ac sim.Aircraft) string {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if ac.ModelString != "" && !m.isDisabled(ctx, ac.ModelString) {
		return ac.ModelString
	}

	models := m.candidatesFor(ctx, ac.ICAOType)
	best, bestScore := []model.Model(nil), 0
	for _, mdl := range models {
		score := mdl.MatchScore(ac.ICAOType, ac.Airline)
		switch {
		case score > bestScore:
			best, bestScore = []model.Model{mdl}, score
		case score == bestScore && score > 0:
			best = append(best, mdl)
		}
	}
	if len(best) > 0 {
		return best[pick(ac.Callsign, len(best))].Title
	}

	if m.defaultTitle == "" || m.isDisabled(ctx, m.defaultTitle) {
		return ""
	}
	m.logger.Debug("No model for type, using default", "callsign", ac.Callsign, "type", ac.ICAOType)
	return m.defaultTitle
}

func (m *Matcher) candidatesFor(ctx context.Context, icaoType string) []model.Model {
	key := strings.ToUpper(icaoType)
	if key == "" {
		return nil
	}
	if models, ok := m.candidates.Get(key); ok {
		return models
	}
	models, err := m.repo.FindModels(ctx, key)
	if err != nil {
		m.logger.Warn("Model lookup failed", "type", key, "error", err)
		return nil
	}
	m.candidates.Add(key, models)
	return models
}

func (m *Matcher) isDisabled(ctx context.Context, title string) bool {
	disabled, err := m.repo.IsModelDisabled(ctx, title)
	if err != nil {
		m.logger.Warn("Disabled model lookup failed", "title", title, "error", err)
	}
	return disabled
}

// DisableModel excludes title from matching until it is enabled again.
func (m *Matcher) DisableModel(title, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.repo.DisableModel(ctx, title, reason); err != nil {
		return fmt.Errorf("disable model %q: %w", title, err)
	}
	m.candidates.Purge()
	m.logger.Info("Model disabled", "title", title, "reason", reason)
	return nil
}

// EnableModel makes a disabled title available again.
func (m *Matcher) EnableModel(ctx context.Context, title string) error {
	if err := m.repo.EnableModel(ctx, title); err != nil {
		return fmt.Errorf("enable model %q: %w", title, err)
	}
	m.candidates.Purge()
	return nil
}

func pick(callsign string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(callsign))
	return int(h.Sum32() % uint32(n))
}

// modelSetFile is the YAML layout of a model set.
type modelSetFile struct {
	Models []struct {
		Title    string `yaml:"title"`
		ICAOType string `yaml:"icao_type"`
		Airline  string `yaml:"airline"`
		Engines  int    `yaml:"engines"`
	} `yaml:"models"`
}

// ImportModelSet loads a YAML model set into the store and returns the
// number of models saved.
func ImportModelSet(ctx context.Context, repo store.ModelStore, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read model set: %w", err)
	}
	var f modelSetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("parse model set %s: %w", path, err)
	}
	n := 0
	for i, entry := range f.Models {
		if entry.Title == "" || entry.ICAOType == "" {
			return n, fmt.Errorf("model set %s: entry %d needs title and icao_type", path, i)
		}
		mdl := &model.Model{
			Title:    entry.Title,
			ICAOType: strings.ToUpper(entry.ICAOType),
			Airline:  strings.ToUpper(entry.Airline),
			Engines:  entry.Engines,
		}
		if err := repo.SaveModel(ctx, mdl); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
