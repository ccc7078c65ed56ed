package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchthread-sync/internal/domain/competition"
	"gopkg.in/yaml.v3"
)

type competitionCatalogue struct {
	Competitions []competition.Competition `yaml:"competitions" validate:"required,min=1,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadCompetitions reads the competitions catalogue. ${VAR} references are
// expanded from the environment before parsing.
func LoadCompetitions(path string) ([]competition.Competition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read competitions file %s: %w", path, err)
	}
	return parseCompetitions([]byte(os.ExpandEnv(string(raw))))
}

func parseCompetitions(raw []byte) ([]competition.Competition, error) {
	var catalogue competitionCatalogue
	if err := yaml.Unmarshal(raw, &catalogue); err != nil {
		return nil, fmt.Errorf("parse competitions: %w", err)
	}

	for i := range catalogue.Competitions {
		item := &catalogue.Competitions[i]
		item.Key = strings.TrimSpace(item.Key)
		if item.Kind == "" {
			item.Kind = competition.KindLeague
		}
		if strings.TrimSpace(item.Timezone) == "" {
			item.Timezone = competition.DefaultTimezone
		}
		if len(item.HomeVenues) > 0 {
			venues := make(map[string]string, len(item.HomeVenues))
			for team, venue := range item.HomeVenues {
				team, venue = strings.TrimSpace(team), strings.TrimSpace(venue)
				if team == "" || venue == "" {
					return nil, fmt.Errorf("competition %q: home_venues needs a team and a venue", item.Key)
				}
				venues[team] = venue
			}
			item.HomeVenues = venues
		}
	}

	if err := validate.Struct(catalogue); err != nil {
		return nil, fmt.Errorf("validate competitions: %w", err)
	}

	seen := make(map[string]struct{}, len(catalogue.Competitions))
	for _, item := range catalogue.Competitions {
		if _, ok := seen[item.Key]; ok {
			return nil, fmt.Errorf("duplicate competition key %q", item.Key)
		}
		seen[item.Key] = struct{}{}
	}

	return catalogue.Competitions, nil
}
