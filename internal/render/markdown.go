package render

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchthread-sync/internal/domain/fixture"
	"github.com/riskibarqy/matchthread-sync/internal/domain/leaguestanding"
	"github.com/riskibarqy/matchthread-sync/internal/normalizer"
	"github.com/riskibarqy/matchthread-sync/internal/usecase"
	"github.com/valyala/bytebufferpool"
)

const (
	DefaultContact = "/u/LOIMatchThreads"
	liveNotice     = "*Live scores will be updated during matches*"
	undatedHeader  = "Date TBC"
	formLength     = 5
)

var (
	fixtureHeaders  = []string{"Home Team", "Score", "Away Team", "Ground", "Status"}
	standingHeaders = []string{"Position", "Team", "Played", "Won", "Draw", "Lost", "GF", "GA", "GD", "Points", "Form"}
	// Numeric standings columns are right aligned.
	standingNumeric = []bool{true, false, true, true, true, true, true, true, true, true, false}
	formEmoji       = strings.NewReplacer("W", "✅", "D", "⚪", "L", "❌")
)

type Config struct {
	// Contact is the account named in the footer.
	Contact string
}

// MarkdownRenderer turns a thread document into a Reddit markdown body.
type MarkdownRenderer struct {
	contact string
}

func NewMarkdownRenderer(cfg Config) *MarkdownRenderer {
	contact := strings.TrimSpace(cfg.Contact)
	if contact == "" {
		contact = DefaultContact
	}
	return &MarkdownRenderer{contact: contact}
}

var _ usecase.Renderer = (*MarkdownRenderer)(nil)

func (r *MarkdownRenderer) Render(doc usecase.ThreadDocument) (string, error) {
	loc := doc.Location
	if loc == nil {
		loc = doc.Competition.Location()
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(liveNotice + "\n\n")

	cup := doc.Competition.IsCup()
	dayHeading := "## "
	if cup {
		_, _ = buf.WriteString("## " + normalizer.RoundDisplayName(doc.Round.Raw) + "\n\n")
		dayHeading = "### "
	}

	for _, group := range groupByDate(doc.Fixtures, loc) {
		header := undatedHeader
		if !group.day.IsZero() {
			header = dateHeader(group.day, !cup)
		}
		_, _ = buf.WriteString(dayHeading + header + "\n\n")

		rows := make([][]string, 0, len(group.items))
		for _, item := range group.items {
			score, status := ScoreAndStatus(item, loc)
			rows = append(rows, []string{item.Home.Name, score, item.Away.Name, venueLabel(item), status})
		}
		writeTable(buf, fixtureHeaders, nil, rows)

		for _, item := range group.items {
			if line := ScorersInline(item); line != "" {
				_, _ = buf.WriteString("\n" + line + "\n")
			}
		}
		_, _ = buf.WriteString("\n")
	}

	if !cup {
		writeStandings(buf, doc.Round, doc.Standings)
	}

	_, _ = fmt.Fprintf(buf, "\n\n Welcome to the discussion thread for the %s. Remember to follow the subreddit rules and be civil to each other. Enjoy the game. \n\n", doc.Competition.Name)
	_, _ = fmt.Fprintf(buf, "\n\n This post was created by a bot. If you have any feedback or suggestions, please message %s.", r.contact)

	return buf.String(), nil
}

func writeStandings(buf *bytebufferpool.ByteBuffer, round fixture.Round, standings []leaguestanding.Standing) {
	if len(standings) == 0 {
		return
	}
	number := normalizer.RoundNumber(round.Raw)
	if number == 0 {
		number, _ = strconv.Atoi(strings.TrimSpace(round.Display))
	}
	if number-1 <= 0 {
		return
	}

	ordered := slices.Clone(standings)
	slices.SortStableFunc(ordered, func(a, b leaguestanding.Standing) int {
		return cmp.Compare(a.Position, b.Position)
	})

	rows := make([][]string, 0, len(ordered))
	for _, row := range ordered {
		rows = append(rows, []string{
			strconv.Itoa(row.Position),
			row.TeamName,
			strconv.Itoa(row.Played),
			strconv.Itoa(row.Won),
			strconv.Itoa(row.Draw),
			strconv.Itoa(row.Lost),
			strconv.Itoa(row.GoalsFor),
			strconv.Itoa(row.GoalsAgainst),
			strconv.Itoa(row.GoalDifference),
			strconv.Itoa(row.Points),
			FormEmoji(row.RecentForm(formLength)),
		})
	}

	_, _ = fmt.Fprintf(buf, "## League Table, as of Round %d\n\n", number-1)
	writeTable(buf, standingHeaders, standingNumeric, rows)
	_, _ = buf.WriteString("\n")
}

// writeTable emits a pipe table padded to the widest cell of each column.
func writeTable(buf *bytebufferpool.ByteBuffer, headers []string, rightAlign []bool, rows [][]string) {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = max(displayWidth(header), 3)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) {
				widths[i] = max(widths[i], displayWidth(row[i]))
			}
		}
	}

	alignRight := func(i int) bool {
		return i < len(rightAlign) && rightAlign[i]
	}
	writeRow := func(cells []string) {
		_, _ = buf.WriteString("|")
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := strings.Repeat(" ", widths[i]-displayWidth(cell))
			if alignRight(i) {
				_, _ = buf.WriteString(" " + pad + cell + " |")
			} else {
				_, _ = buf.WriteString(" " + cell + pad + " |")
			}
		}
		_, _ = buf.WriteString("\n")
	}

	writeRow(headers)
	_, _ = buf.WriteString("|")
	for i, width := range widths {
		if alignRight(i) {
			_, _ = buf.WriteString(strings.Repeat("-", width+1) + ":|")
		} else {
			_, _ = buf.WriteString(":" + strings.Repeat("-", width+1) + "|")
		}
	}
	_, _ = buf.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
}

func displayWidth(value string) int {
	return len([]rune(value))
}

type dateGroup struct {
	day   time.Time
	items []fixture.Fixture
}

// groupByDate buckets fixtures by local kickoff date in ascending order.
// Fixtures without a kickoff go last.
func groupByDate(items []fixture.Fixture, loc *time.Location) []dateGroup {
	ordered := slices.Clone(items)
	slices.SortStableFunc(ordered, func(a, b fixture.Fixture) int {
		switch {
		case a.KickoffAt.IsZero() && b.KickoffAt.IsZero():
			return cmp.Compare(a.ID, b.ID)
		case a.KickoffAt.IsZero():
			return 1
		case b.KickoffAt.IsZero():
			return -1
		}
		if c := a.KickoffAt.Compare(b.KickoffAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	groups := make([]dateGroup, 0)
	index := make(map[string]int)
	for _, item := range ordered {
		key := ""
		var day time.Time
		if !item.KickoffAt.IsZero() {
			local := item.KickoffAt.In(loc)
			day = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
			key = day.Format(time.DateOnly)
		}
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, dateGroup{day: day})
		}
		groups[pos].items = append(groups[pos].items, item)
	}
	return groups
}

// dateHeader formats "Friday, October 16th", or "Friday, October 16" without
// the ordinal.
func dateHeader(day time.Time, ordinal bool) string {
	dayOfMonth := strconv.Itoa(day.Day())
	if ordinal {
		dayOfMonth = OrdinalDay(day.Day())
	}
	return fmt.Sprintf("%s, %s %s", day.Weekday(), day.Month(), dayOfMonth)
}

// OrdinalDay renders a day of month with its English suffix.
func OrdinalDay(day int) string {
	switch {
	case day >= 11 && day <= 13:
		return strconv.Itoa(day) + "th"
	case day%10 == 1:
		return strconv.Itoa(day) + "st"
	case day%10 == 2:
		return strconv.Itoa(day) + "nd"
	case day%10 == 3:
		return strconv.Itoa(day) + "rd"
	default:
		return strconv.Itoa(day) + "th"
	}
}

func venueLabel(item fixture.Fixture) string {
	if !item.HasVenue() {
		return fixture.UnknownVenue
	}
	return strings.TrimSpace(item.Venue)
}

// ScoreAndStatus returns the Score and Status cells of a fixture row.
func ScoreAndStatus(item fixture.Fixture, loc *time.Location) (string, string) {
	if item.Status == fixture.StatusNotStarted {
		if item.KickoffAt.IsZero() {
			return "vs", "TBD"
		}
		return "vs", item.KickoffAt.In(loc).Format("15:04")
	}

	score := "vs"
	if item.HasScore() {
		score = fmt.Sprintf("%d-%d", *item.HomeGoals, *item.AwayGoals)
	}

	switch item.Status {
	case fixture.StatusFirstHalf, fixture.StatusSecondHalf, fixture.StatusLive:
		if item.Elapsed != nil && *item.Elapsed > 0 {
			return score, fmt.Sprintf("%d'", *item.Elapsed)
		}
		return score, string(item.Status)
	case fixture.StatusHalfTime, fixture.StatusExtraTime, fixture.StatusFullTime, fixture.StatusAfterExtraTime:
		return score, string(item.Status)
	case fixture.StatusPenalties, fixture.StatusAfterPenalties:
		return score, "Pens"
	default:
		return "vs", string(item.Status)
	}
}

// ScorersInline formats "**Home:** A (12'), B (P 45') | **Away:** C (OG 80')".
// Sides without goals are left out.
func ScorersInline(item fixture.Fixture) string {
	var home, away []string
	for _, event := range item.Events {
		label := formatGoal(event)
		switch event.Side {
		case fixture.SideHome:
			home = append(home, label)
		case fixture.SideAway:
			away = append(away, label)
		}
	}

	parts := make([]string, 0, 2)
	if len(home) > 0 {
		parts = append(parts, "**"+item.Home.Name+":** "+strings.Join(home, ", "))
	}
	if len(away) > 0 {
		parts = append(parts, "**"+item.Away.Name+":** "+strings.Join(away, ", "))
	}
	return strings.Join(parts, " | ")
}

func formatGoal(event fixture.GoalEvent) string {
	minute := strconv.Itoa(event.Minute) + "'"
	switch {
	case event.OwnGoal:
		return fmt.Sprintf("%s (OG %s)", event.Scorer, minute)
	case event.Penalty:
		return fmt.Sprintf("%s (P %s)", event.Scorer, minute)
	default:
		return fmt.Sprintf("%s (%s)", event.Scorer, minute)
	}
}

// FormEmoji maps W/D/L results onto the emoji shown in the table.
func FormEmoji(form string) string {
	return formEmoji.Replace(strings.ToUpper(form))
}
