package service

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/omarshaarawi/fplstandings/internal/models"
)

// ResolvePeriod finds a period from user input: an exact id first, then a
// fuzzy match against ids and display names ("october", "dec jan").
func (s *StandingsService) ResolvePeriod(query string) (models.Period, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.Selected(), nil
	}

	for _, p := range s.periods {
		if p.ID == q {
			return p, nil
		}
	}

	targets := make([]string, len(s.periods))
	for i, p := range s.periods {
		targets[i] = strings.ToLower(p.ID + " " + p.Name)
	}

	ranks := fuzzy.RankFindFold(q, targets)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return s.periods[ranks[0].OriginalIndex], nil
	}

	bestIdx := -1
	bestSimilarity := 0.6
	for i, p := range s.periods {
		name := strings.ToLower(p.Name)
		distance := fuzzy.LevenshteinDistance(q, name)
		maxLen := float64(max(len(q), len(name)))
		similarity := 1 - float64(distance)/maxLen
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		return s.periods[bestIdx], nil
	}

	return models.Period{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, query)
}

// escape protects user-chosen names from Telegram's Markdown parser.
func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

func FormatStandings(snap *models.Snapshot) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🏆 *%s Standings*\n", snap.PeriodName))

	if snap.LiveInPeriod && snap.LiveGameweek != nil {
		if snap.LiveAvailable {
			sb.WriteString(fmt.Sprintf("🔴 Live: gameweek %d\n", *snap.LiveGameweek))
		} else {
			sb.WriteString(fmt.Sprintf("Gameweek %d is live, live points unavailable\n", *snap.LiveGameweek))
		}
	}
	sb.WriteString("\n")

	if len(snap.Entries) == 0 {
		sb.WriteString("No data available for this period.")
		return sb.String()
	}

	for _, e := range snap.Entries {
		sb.WriteString(fmt.Sprintf("%d. *%s* (%s) - %d pts", e.Rank, escape(e.ManagerName), escape(e.TeamName), e.Points))
		if e.HasLiveData {
			sb.WriteString(fmt.Sprintf(" (+%d live)", e.LivePoints))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func FormatPeriods(periods []models.Period, mapping models.PeriodMapping, selected string) string {
	var sb strings.Builder
	sb.WriteString("📅 *Periods*\n\n")
	for _, p := range periods {
		marker := ""
		if p.ID == selected {
			marker = " ◀"
		}
		sb.WriteString(fmt.Sprintf("`%s` %s%s\n", p.ID, p.Name, marker))
		if ids := mapping[p.ID]; len(ids) > 0 {
			sb.WriteString(fmt.Sprintf("   Gameweeks %d-%d (%d)\n", ids[0], ids[len(ids)-1], len(ids)))
		}
	}
	return sb.String()
}

func FormatStatus(st Status) string {
	var sb strings.Builder
	sb.WriteString("ℹ️ *Status*\n\n")
	sb.WriteString(fmt.Sprintf("League: %d\n", st.LeagueID))
	sb.WriteString(fmt.Sprintf("Managers: %d\n", st.Managers))
	sb.WriteString(fmt.Sprintf("Selected period: %s\n", st.SelectedPeriod))
	if st.LiveGameweek != nil {
		sb.WriteString(fmt.Sprintf("Live gameweek: %d\n", *st.LiveGameweek))
	} else {
		sb.WriteString("Live gameweek: none\n")
	}
	if st.LoadedAt != nil {
		sb.WriteString(fmt.Sprintf("Loaded: %s\n", st.LoadedAt.Format("2006-01-02 15:04 MST")))
	}
	if st.LastError != "" {
		sb.WriteString(fmt.Sprintf("Last error: %s\n", st.LastError))
	}
	return sb.String()
}
