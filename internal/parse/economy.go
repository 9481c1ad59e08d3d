package parse

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pable/hltv-harvester/internal/model"
)

// economyRound is one element of the economy page's single embedded JSON
// blob. Overtime rounds may be entirely absent from this blob on formats
// that don't record extended-OT economy; the parser emits only what is
// present, it never backfills.
type economyRound struct {
	Round          int    `json:"round"`
	Team1ID        int64  `json:"team1Id"`
	Team2ID        int64  `json:"team2Id"`
	Team1Equipment int    `json:"team1Equipment"`
	Team2Equipment int    `json:"team2Equipment"`
	WinnerIconURL  string `json:"winnerIconUrl"`
}

// buyType classifies an equipment value per the thresholds: full_eco <
// $5000 <= semi_eco < $10000 <= semi_buy < $20000 <= full_buy.
func buyType(equipmentValue int) model.BuyType {
	switch {
	case equipmentValue < 5000:
		return model.BuyFullEco
	case equipmentValue < 10000:
		return model.BuySemiEco
	case equipmentValue < 20000:
		return model.BuySemiBuy
	default:
		return model.BuyFullBuy
	}
}

// sideFromIconURL infers the winning side (CT/T) from the round's winner
// icon URL, the only place the economy page's JSON carries side
// information. The side is round-scoped and applies to whichever team won.
func sideFromIconURL(url string) model.Side {
	if strings.Contains(url, "ct_win") || strings.Contains(url, "/ct.") {
		return model.SideCT
	}
	return model.SideT
}

// ParseEconomy parses one economy page's per-round equipment and
// buy-type data.
func ParseEconomy(html string, mapStatsID int64, matchID int64, mapNumber int) (model.EconomyData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.EconomyData{}, wrapParseErr("economy", "document", err)
	}

	blob, ok := doc.Find(`.economy-chart[data-economy-json]`).First().Attr("data-economy-json")
	if !ok {
		return model.EconomyData{}, wrapParseErr("economy", "economy json", errMissingJSONBlob)
	}

	var rounds []economyRound
	if err := json.Unmarshal([]byte(blob), &rounds); err != nil {
		return model.EconomyData{}, wrapParseErr("economy", "economy json decode", err)
	}

	out := make([]model.RoundEconomy, 0, len(rounds)*2)
	for _, r := range rounds {
		// sideFromIconURL is computed for parity with the page's own data
		// even though round_economy does not persist side — round_outcome
		// (from the map-stats page) is the side source of truth.
		_ = sideFromIconURL(r.WinnerIconURL)

		out = append(out,
			model.RoundEconomy{
				MatchID:        matchID,
				MapNumber:      mapNumber,
				RoundNumber:    r.Round,
				TeamID:         r.Team1ID,
				EquipmentValue: r.Team1Equipment,
				BuyType:        buyType(r.Team1Equipment),
			},
			model.RoundEconomy{
				MatchID:        matchID,
				MapNumber:      mapNumber,
				RoundNumber:    r.Round,
				TeamID:         r.Team2ID,
				EquipmentValue: r.Team2Equipment,
				BuyType:        buyType(r.Team2Equipment),
			},
		)
	}

	return model.EconomyData{MapStatsID: mapStatsID, Rounds: out}, nil
}
