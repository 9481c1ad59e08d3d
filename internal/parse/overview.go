package parse

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pable/hltv-harvester/internal/model"
)

// ParseMatchOverview parses one match-overview page.
//
// A full forfeit is detected by the sentinel map name model.ForfeitMapName
// ("Default") appearing on any map holder; a partial forfeit still carries
// a real map name on its other maps. Scores are stored exactly as shown:
// for best-of-1 this is the round score, for best-of-3/5 it is maps won —
// downstream code disambiguates using BestOf.
func ParseMatchOverview(html string, matchID int64) (model.MatchOverview, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.MatchOverview{}, wrapParseErr("overview", "document", err)
	}

	team1 := doc.Find(`.teamName[data-team-id]`).Eq(0)
	team2 := doc.Find(`.teamName[data-team-id]`).Eq(1)
	if team1.Length() == 0 || team2.Length() == 0 {
		return model.MatchOverview{}, wrapParseErr("overview", "team names", errMissingHref)
	}
	team1ID, err := attrInt64(team1, "data-team-id")
	if err != nil {
		return model.MatchOverview{}, wrapParseErr("overview", "team1 id", err)
	}
	team2ID, err := attrInt64(team2, "data-team-id")
	if err != nil {
		return model.MatchOverview{}, wrapParseErr("overview", "team2 id", err)
	}

	eventSel := doc.Find(`.event[data-event-id]`).First()
	eventID, err := attrInt64(eventSel, "data-event-id")
	if err != nil {
		return model.MatchOverview{}, wrapParseErr("overview", "event id", err)
	}

	bestOfSel := doc.Find(`.match-info-row[data-bo]`).First()
	boRaw, _ := bestOfSel.Attr("data-bo")
	bo, err := atoi(boRaw)
	if err != nil {
		return model.MatchOverview{}, wrapParseErr("overview", "best_of", err)
	}

	dateSel := doc.Find(`.date[data-unix]`).First()
	unixMsRaw, _ := dateSel.Attr("data-unix")
	unixMs, err := atoi64(unixMsRaw)
	if err != nil {
		return model.MatchOverview{}, wrapParseErr("overview", "match date", err)
	}
	matchDate := time.UnixMilli(unixMs).UTC()

	isLAN := doc.Find(`.lan-indicator`).Length() > 0

	var team1Score, team2Score *int
	if s, ok := doc.Find(`.team1-gradient .won, .team1-gradient .lost, .team1-gradient .tie`).First().Attr("data-score"); ok {
		if v, err := atoi(s); err == nil {
			team1Score = &v
		}
	}
	if s, ok := doc.Find(`.team2-gradient .won, .team2-gradient .lost, .team2-gradient .tie`).First().Attr("data-score"); ok {
		if v, err := atoi(s); err == nil {
			team2Score = &v
		}
	}

	mapHolders := doc.Find(`.map-holder`)
	if mapHolders.Length() == 0 {
		return model.MatchOverview{}, wrapParseErr("overview", "map holders", errMissingMapHolder)
	}

	isForfeit := false
	var maps []model.Map
	mapHolders.Each(func(i int, sel *goquery.Selection) {
		mapName, _ := sel.Attr("data-map-name")
		if mapName == model.ForfeitMapName {
			isForfeit = true
			maps = append(maps, model.Map{
				MatchID:    matchID,
				MapNumber:  i + 1,
				MapName:    mapName,
				IsForfeit:  true,
				IsUnplayed: true,
			})
			return
		}

		var mapStatsID *int64
		if idRaw, ok := sel.Attr("data-mapstatsid"); ok {
			if v, err := atoi64(idRaw); err == nil {
				mapStatsID = &v
			}
		}

		scores := sel.Find(`.results-team-score`)
		var t1Rounds, t2Rounds int
		if scores.Length() >= 2 {
			t1Rounds, _ = atoi(scores.Eq(0).Text())
			t2Rounds, _ = atoi(scores.Eq(1).Text())
		}

		ct := sel.Find(`.regulation-box .ct-color`)
		t := sel.Find(`.regulation-box .t-color`)
		var t1CT, t1T, t2CT, t2T int
		if ct.Length() >= 2 && t.Length() >= 2 {
			t1CT, _ = atoi(ct.Eq(0).Text())
			t2CT, _ = atoi(ct.Eq(1).Text())
			t1T, _ = atoi(t.Eq(0).Text())
			t2T, _ = atoi(t.Eq(1).Text())
		}

		maps = append(maps, model.Map{
			MatchID:       matchID,
			MapNumber:     i + 1,
			MapName:       mapName,
			MapStatsID:    mapStatsID,
			Team1Rounds:   t1Rounds,
			Team2Rounds:   t2Rounds,
			Team1CTRounds: t1CT,
			Team1TRounds:  t1T,
			Team2CTRounds: t2CT,
			Team2TRounds:  t2T,
			IsUnplayed:    scores.Length() == 0,
		})
	})

	vetoes, err := parseVetoSteps(doc, matchID)
	if err != nil {
		return model.MatchOverview{}, err
	}

	players, err := parseRoster(doc, matchID, team1ID, team2ID)
	if err != nil {
		return model.MatchOverview{}, err
	}

	return model.MatchOverview{
		Match: model.Match{
			MatchID:    matchID,
			Team1:      model.TeamRef{ID: team1ID, Name: strings.TrimSpace(team1.Text())},
			Team2:      model.TeamRef{ID: team2ID, Name: strings.TrimSpace(team2.Text())},
			Event:      model.EventRef{ID: eventID, Name: strings.TrimSpace(eventSel.Text())},
			BestOf:     model.BestOf(bo),
			Team1Score: team1Score,
			Team2Score: team2Score,
			IsLAN:      isLAN,
			Date:       matchDate,
			IsForfeit:  isForfeit,
		},
		Maps:      maps,
		Vetoes:    vetoes,
		Players:   players,
		IsForfeit: isForfeit,
	}, nil
}

func parseVetoSteps(doc *goquery.Document, matchID int64) ([]model.VetoStep, error) {
	var steps []model.VetoStep
	var firstErr error

	doc.Find(`.veto-box .veto-step`).Each(func(i int, sel *goquery.Selection) {
		if firstErr != nil {
			return
		}
		actionRaw, _ := sel.Attr("data-action")
		action := model.VetoAction(actionRaw)
		mapName := strings.TrimSpace(sel.Find(".veto-map").Text())
		var teamName *string
		if action != model.VetoLeftOver {
			name := strings.TrimSpace(sel.Find(".veto-team").Text())
			teamName = &name
		}
		steps = append(steps, model.VetoStep{
			MatchID:    matchID,
			StepNumber: i + 1,
			Action:     action,
			TeamName:   teamName,
			MapName:    mapName,
		})
	})
	return steps, firstErr
}

func parseRoster(doc *goquery.Document, matchID, team1ID, team2ID int64) ([]model.MatchPlayer, error) {
	var players []model.MatchPlayer
	var firstErr error

	doc.Find(`.lineup[data-team-number]`).Each(func(_ int, lineup *goquery.Selection) {
		if firstErr != nil {
			return
		}
		teamNumRaw, _ := lineup.Attr("data-team-number")
		teamNum, err := strconv.Atoi(teamNumRaw)
		if err != nil {
			firstErr = wrapParseErr("overview", "lineup team number", err)
			return
		}
		teamID := team1ID
		if teamNum == 2 {
			teamID = team2ID
		}

		lineup.Find(`.player[data-player-id]`).Each(func(_ int, p *goquery.Selection) {
			if firstErr != nil {
				return
			}
			playerID, err := attrInt64(p, "data-player-id")
			if err != nil {
				firstErr = wrapParseErr("overview", "player id", err)
				return
			}
			name, _ := p.Attr("data-player-name")
			players = append(players, model.MatchPlayer{
				MatchID:    matchID,
				PlayerID:   playerID,
				PlayerName: name,
				TeamID:     teamID,
				TeamNumber: teamNum,
			})
		})
	})
	return players, firstErr
}

func attrInt64(sel *goquery.Selection, attr string) (int64, error) {
	raw, ok := sel.Attr(attr)
	if !ok {
		return 0, errMissingHref
	}
	return atoi64(raw)
}
