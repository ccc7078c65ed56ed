package normalizer

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// flexInt accepts a JSON number or a numeric string. Anything else decodes as
// unset rather than failing the whole payload.
type flexInt struct {
	Value int64
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = flexInt{}
		return nil
	}

	text := strings.Trim(string(trimmed), `"`)
	if value, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
		*f = flexInt{Value: value, Set: true}
		return nil
	}
	if value, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		*f = flexInt{Value: int64(value), Set: true}
		return nil
	}
	*f = flexInt{}
	return nil
}

func (f flexInt) ptr() *int {
	if !f.Set {
		return nil
	}
	value := int(f.Value)
	return &value
}

// flexString accepts a string or a number and keeps its text form.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := sonic.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*f = flexString(text)
		return nil
	}
	*f = flexString(trimmed)
	return nil
}

// venueField accepts either a plain venue name or an object carrying one.
type venueField string

func (v *venueField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = ""
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := sonic.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*v = venueField(text)
		return nil
	}

	var wrapped struct {
		Name string `json:"name"`
	}
	if err := sonic.Unmarshal(trimmed, &wrapped); err != nil {
		*v = ""
		return nil
	}
	*v = venueField(wrapped.Name)
	return nil
}

// league/matches shape

type leagueEnvelope struct {
	Fixtures leagueMatchList `json:"fixtures"`
	Results  leagueMatchList `json:"results"`
	Table    []leagueTable   `json:"table"`
}

type leagueMatchList struct {
	AllMatches []leagueMatch `json:"allMatches"`
}

type leagueMatch struct {
	ID       flexInt     `json:"id"`
	Round    flexString  `json:"round"`
	RoundAlt flexString  `json:"roundName"`
	Venue    venueField  `json:"venue"`
	Home     leagueTeam  `json:"home"`
	Away     leagueTeam  `json:"away"`
	Status   leagueState `json:"status"`
}

type leagueTeam struct {
	ID   flexInt `json:"id"`
	Name string  `json:"name"`
}

type leagueState struct {
	UTCTime   string          `json:"utcTime"`
	Started   bool            `json:"started"`
	Finished  bool            `json:"finished"`
	Cancelled bool            `json:"cancelled"`
	Score     *leagueScore    `json:"score"`
	ScoreStr  string          `json:"scoreStr"`
	LiveTime  *leagueLiveTime `json:"liveTime"`
}

type leagueScore struct {
	Home flexInt `json:"home"`
	Away flexInt `json:"away"`
}

type leagueLiveTime struct {
	Short   string  `json:"short"`
	MaxTime flexInt `json:"maxTime"`
}

type leagueTable struct {
	Data struct {
		Table struct {
			All []leagueTableRow `json:"all"`
		} `json:"table"`
	} `json:"data"`
}

type leagueTableRow struct {
	Idx         int     `json:"idx"`
	ID          flexInt `json:"id"`
	Name        string  `json:"name"`
	Played      int     `json:"played"`
	Wins        int     `json:"wins"`
	Draws       int     `json:"draws"`
	Losses      int     `json:"losses"`
	ScoresStr   string  `json:"scoresStr"`
	GoalConDiff int     `json:"goalConDiff"`
	Pts         int     `json:"pts"`
	Form        string  `json:"form"`
}

type matchDetailsEnvelope struct {
	General struct {
		MatchID flexInt `json:"matchId"`
	} `json:"general"`
	Header struct {
		Teams []struct {
			Name  string  `json:"name"`
			Score flexInt `json:"score"`
		} `json:"teams"`
	} `json:"header"`
	Content struct {
		MatchFacts struct {
			InfoBox struct {
				Stadium *struct {
					Name string `json:"name"`
				} `json:"Stadium"`
			} `json:"infoBox"`
			Events struct {
				Events []matchEvent `json:"events"`
			} `json:"events"`
		} `json:"matchFacts"`
	} `json:"content"`
}

type matchEvent struct {
	Type               string  `json:"type"`
	IsHome             *bool   `json:"isHome"`
	OwnGoal            bool    `json:"ownGoal"`
	IsPenalty          bool    `json:"isPenalty"`
	GoalDescriptionKey string  `json:"goalDescriptionKey"`
	NameStr            string  `json:"nameStr"`
	Time               flexInt `json:"time"`
}

// legacy fixtures shape

type legacyEnvelope struct {
	Errors   any             `json:"errors"`
	Response []legacyFixture `json:"response"`
}

type legacyFixture struct {
	Fixture struct {
		ID     flexInt `json:"id"`
		Date   string  `json:"date"`
		Status struct {
			Short   string  `json:"short"`
			Elapsed flexInt `json:"elapsed"`
		} `json:"status"`
		Venue venueField `json:"venue"`
	} `json:"fixture"`
	League struct {
		ID    flexInt    `json:"id"`
		Round flexString `json:"round"`
	} `json:"league"`
	Teams struct {
		Home legacyTeam `json:"home"`
		Away legacyTeam `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home flexInt `json:"home"`
		Away flexInt `json:"away"`
	} `json:"goals"`
	Events []legacyEvent `json:"events"`
}

type legacyTeam struct {
	ID   flexInt `json:"id"`
	Name string  `json:"name"`
}

type legacyEvent struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
	Team   struct {
		ID   flexInt `json:"id"`
		Name string  `json:"name"`
	} `json:"team"`
	Player struct {
		Name string `json:"name"`
	} `json:"player"`
	Time struct {
		Elapsed flexInt `json:"elapsed"`
		Extra   flexInt `json:"extra"`
	} `json:"time"`
}

type legacyStandingsEnvelope struct {
	Response []struct {
		League struct {
			ID        flexInt               `json:"id"`
			Standings [][]legacyStandingRow `json:"standings"`
		} `json:"league"`
	} `json:"response"`
}

type legacyStandingRow struct {
	Rank      int        `json:"rank"`
	Team      legacyTeam `json:"team"`
	Points    int        `json:"points"`
	GoalsDiff int        `json:"goalsDiff"`
	Form      string     `json:"form"`
	All       struct {
		Played int `json:"played"`
		Win    int `json:"win"`
		Draw   int `json:"draw"`
		Lose   int `json:"lose"`
		Goals  struct {
			For     flexInt `json:"for"`
			Against flexInt `json:"against"`
		} `json:"goals"`
	} `json:"all"`
}
