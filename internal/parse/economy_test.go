package parse

import (
	"testing"

	"github.com/pable/hltv-harvester/internal/model"
)

func TestParseEconomyBuyTypeThresholds(t *testing.T) {
	html := mustReadFixture(t, "economy.html")

	econ, err := ParseEconomy(html, 555, 100, 1)
	if err != nil {
		t.Fatalf("ParseEconomy: %v", err)
	}
	if len(econ.Rounds) != 6 {
		t.Fatalf("expected 6 rows (2 teams x 3 rounds), got %d", len(econ.Rounds))
	}

	round1Team1 := econ.Rounds[0]
	if round1Team1.EquipmentValue != 4500 || round1Team1.BuyType != model.BuyFullEco {
		t.Errorf("expected full_eco for 4500, got %+v", round1Team1)
	}
	round2Team2 := econ.Rounds[3]
	if round2Team2.EquipmentValue != 12000 || round2Team2.BuyType != model.BuySemiBuy {
		t.Errorf("expected semi_buy for 12000, got %+v", round2Team2)
	}
	round3Team1 := econ.Rounds[4]
	if round3Team1.EquipmentValue != 22000 || round3Team1.BuyType != model.BuyFullBuy {
		t.Errorf("expected full_buy for 22000, got %+v", round3Team1)
	}
	for _, r := range econ.Rounds {
		if r.MatchID != 100 || r.MapNumber != 1 {
			t.Errorf("expected match/map context on every row: %+v", r)
		}
	}
}

func TestSideFromIconURL(t *testing.T) {
	if sideFromIconURL("/img/ct_win.svg") != model.SideCT {
		t.Error("expected ct_win to map to CT")
	}
	if sideFromIconURL("/img/t_win.svg") != model.SideT {
		t.Error("expected t_win to map to T")
	}
}
