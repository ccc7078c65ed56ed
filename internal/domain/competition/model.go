package competition

import (
	"strings"
	"time"
)

type Kind string

const (
	KindLeague Kind = "league"
	KindCup    Kind = "cup"
)

const DefaultTimezone = "Europe/Dublin"

// Competition is one tracked tournament and how its threads are published.
type Competition struct {
	Key        string `yaml:"key" validate:"required"`
	Name       string `yaml:"name" validate:"required"`
	ProviderID int64  `yaml:"provider_id" validate:"gt=0"`
	Kind       Kind   `yaml:"kind" validate:"oneof=league cup"`
	Timezone   string `yaml:"timezone"`
	FlairID    string `yaml:"flair_id"`
	// HomeVenues names the ground of home teams, keyed by normalized team
	// name, for fixtures upstream gives no venue for.
	HomeVenues map[string]string `yaml:"home_venues"`
}

func (c Competition) IsCup() bool {
	return c.Kind == KindCup
}

// Location resolves the competition timezone, falling back to UTC.
func (c Competition) Location() *time.Location {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

const matchThreadFlairID = "804acfe4-ef26-11eb-8f17-862a215ae082"

// Defaults returns the League of Ireland competitions.
func Defaults() []Competition {
	return []Competition{
		{Key: "premier_division", Name: "LOI Premier Division", ProviderID: 126, Kind: KindLeague, Timezone: DefaultTimezone, FlairID: matchThreadFlairID},
		{Key: "first_division", Name: "LOI First Division", ProviderID: 218, Kind: KindLeague, Timezone: DefaultTimezone, FlairID: matchThreadFlairID},
		{Key: "fai_cup", Name: "Sports Direct FAI Cup", ProviderID: 219, Kind: KindCup, Timezone: DefaultTimezone, FlairID: matchThreadFlairID},
	}
}
