package parse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pable/hltv-harvester/internal/model"
)

// ratingSchema3Header is the stable header text that distinguishes the
// newer "3.0" rating table (which carries a round_swing column) from the
// older "2.0" table (round_swing absent, emitted as null).
const ratingSchema3Header = "Rating 3.0"

// ParseMapStats parses one map-stats page into its 10 player rows and
// round-outcome history. Three overtime shapes (none, inline single OT,
// extended two-container OT) are all normalized here to one flat,
// document-order round-number sequence: round_number is assigned by
// traversal order across however many round-history containers the page
// has, not by any per-container counter.
func ParseMapStats(html string, mapStatsID int64, matchID int64, mapNumber int) (model.MapStats, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.MapStats{}, wrapParseErr("map_stats", "document", err)
	}

	headerText := doc.Find(`.stats-table`).First().Text()
	isSchema3 := strings.Contains(headerText, ratingSchema3Header)

	var players []model.PlayerStat
	var firstErr error

	doc.Find(`.player-row[data-player-id]`).Each(func(_ int, sel *goquery.Selection) {
		if firstErr != nil {
			return
		}
		playerID, err := attrInt64(sel, "data-player-id")
		if err != nil {
			firstErr = wrapParseErr("map_stats", "player id", err)
			return
		}

		stat := model.PlayerStat{MatchID: matchID, MapNumber: mapNumber, PlayerID: playerID}
		stat.Kills = cellInt(sel, ".kills")
		stat.Deaths = cellInt(sel, ".deaths")
		stat.Assists = cellInt(sel, ".assists")
		stat.FlashAssists = cellInt(sel, ".flash-assists")
		stat.HSKills = cellInt(sel, ".hs")
		stat.KDDiff = cellInt(sel, ".kd-diff")
		stat.ADR = cellFloat(sel, ".adr")
		stat.KAST = cellFloat(sel, ".kast")
		stat.FKDiff = cellInt(sel, ".fk-diff")
		stat.Rating = cellFloat(sel, ".rating")
		stat.OpeningKills = cellInt(sel, ".opening-kills")
		stat.OpeningDeaths = cellInt(sel, ".opening-deaths")
		stat.MultiKills = cellInt(sel, ".multi-kills")
		stat.ClutchWins = cellInt(sel, ".clutch-wins")
		stat.TradedDeaths = cellInt(sel, ".traded-deaths")
		if isSchema3 {
			stat.RoundSwing = cellFloat(sel, ".round-swing")
		}

		players = append(players, stat)
	})
	if firstErr != nil {
		return model.MapStats{}, firstErr
	}

	outcomes, t1CT, t1T, t2CT, t2T, err := parseRoundHistory(doc)
	if err != nil {
		return model.MapStats{}, err
	}
	for i := range outcomes {
		outcomes[i].MatchID = matchID
		outcomes[i].MapNumber = mapNumber
	}

	return model.MapStats{
		MapStatsID:    mapStatsID,
		MatchID:       matchID,
		MapNumber:     mapNumber,
		PlayerStats:   players,
		RoundOutcomes: outcomes,
		Team1CTRounds: t1CT,
		Team1TRounds:  t1T,
		Team2CTRounds: t2CT,
		Team2TRounds:  t2T,
	}, nil
}

// parseRoundHistory walks every round-history container in document order —
// regulation halves plus zero, one, or two overtime containers — and
// returns a flat round-number sequence plus the regulation-only CT/T
// breakdown (overtime rounds count toward totals elsewhere but not here).
func parseRoundHistory(doc *goquery.Document) ([]model.RoundOutcome, int, int, int, int, error) {
	var outcomes []model.RoundOutcome
	var t1CT, t1T, t2CT, t2T int
	var firstErr error
	roundNumber := 0

	doc.Find(`.round-history-half, .round-history-overtime`).Each(func(_ int, half *goquery.Selection) {
		if firstErr != nil {
			return
		}
		isRegulation := half.HasClass("round-history-half")
		team1Side, hasSide := half.Attr("data-team1-side")

		half.Find(`.round`).Each(func(_ int, round *goquery.Selection) {
			if firstErr != nil {
				return
			}
			roundNumber++

			winnerTeamID, err := attrInt64(round, "data-winner-team-id")
			if err != nil {
				firstErr = wrapParseErr("map_stats", "round winner", err)
				return
			}
			side := model.Side(mustAttr(round, "data-side"))
			winType := model.WinType(mustAttr(round, "data-win-type"))

			outcomes = append(outcomes, model.RoundOutcome{
				RoundNumber:  roundNumber,
				WinnerTeamID: winnerTeamID,
				WinnerSide:   side,
				WinType:      winType,
			})

			if isRegulation && hasSide {
				team1ID, _ := attrInt64(half, "data-team1-id")
				team1IsWinner := winnerTeamID == team1ID
				switch {
				case team1IsWinner && team1Side == string(model.SideCT):
					t1CT++
				case team1IsWinner && team1Side == string(model.SideT):
					t1T++
				case !team1IsWinner && team1Side == string(model.SideCT):
					// team1 on CT means team2 is on T
					t2T++
				case !team1IsWinner && team1Side == string(model.SideT):
					t2CT++
				}
			}
		})
	})

	return outcomes, t1CT, t1T, t2CT, t2T, firstErr
}

func cellInt(row *goquery.Selection, selector string) *int {
	cell := row.Find(selector).First()
	if cell.Length() == 0 {
		return nil
	}
	v, err := atoi(cell.Text())
	if err != nil {
		return nil
	}
	return &v
}

func cellFloat(row *goquery.Selection, selector string) *float64 {
	cell := row.Find(selector).First()
	if cell.Length() == 0 {
		return nil
	}
	v, err := parseFloatOrDash(cell.Text())
	if err != nil {
		return nil
	}
	return &v
}

func mustAttr(sel *goquery.Selection, attr string) string {
	v, _ := sel.Attr(attr)
	return v
}
