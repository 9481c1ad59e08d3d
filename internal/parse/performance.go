package parse

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pable/hltv-harvester/internal/model"
)

// performanceBar is one entry of a performance card's embedded JSON
// configuration. The "display value" field carries the real number; the
// normalised "value" field is not used (per the parser contract, the
// display value is authoritative and may legitimately differ after
// HLTV's own rounding).
type performanceBar struct {
	Label        string  `json:"label"`
	Value        float64 `json:"value"`
	DisplayValue string  `json:"displayValue"`
}

type performanceCard struct {
	Bars []performanceBar `json:"bars"`
}

// ParsePerformance parses one performance page's per-player rate metrics
// and kill matrices.
func ParsePerformance(html string, mapStatsID int64) (model.PerformanceData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.PerformanceData{}, wrapParseErr("performance", "document", err)
	}

	rates := make(map[int64]model.PlayerPerformanceRates)
	var firstErr error

	doc.Find(`.performance-card[data-player-id]`).Each(func(_ int, sel *goquery.Selection) {
		if firstErr != nil {
			return
		}
		playerID, err := attrInt64(sel, "data-player-id")
		if err != nil {
			firstErr = wrapParseErr("performance", "player id", err)
			return
		}

		raw, ok := sel.Attr("data-stats-json")
		if !ok {
			firstErr = wrapParseErr("performance", "stats json", errMissingJSONBlob)
			return
		}
		var card performanceCard
		if err := json.Unmarshal([]byte(raw), &card); err != nil {
			firstErr = wrapParseErr("performance", "stats json decode", err)
			return
		}

		var r model.PlayerPerformanceRates
		for _, bar := range card.Bars {
			v, err := parseFloatOrDash(bar.DisplayValue)
			if err != nil {
				continue
			}
			switch bar.Label {
			case "KPR":
				r.KPR = v
			case "DPR":
				r.DPR = v
			case "Impact":
				r.MKRating = v
			}
		}
		rates[playerID] = r
	})
	if firstErr != nil {
		return model.PerformanceData{}, firstErr
	}

	var matrix []model.KillMatrixEntry
	doc.Find(`.kill-matrix[data-matrix-type]`).Each(func(_ int, grid *goquery.Selection) {
		if firstErr != nil {
			return
		}
		matrixType := model.MatrixType(mustAttr(grid, "data-matrix-type"))
		grid.Find(`.cell`).Each(func(_ int, cell *goquery.Selection) {
			if firstErr != nil {
				return
			}
			rowID, err := attrInt64(cell, "data-row-player-id")
			if err != nil {
				firstErr = wrapParseErr("performance", "matrix row player", err)
				return
			}
			colID, err := attrInt64(cell, "data-col-player-id")
			if err != nil {
				firstErr = wrapParseErr("performance", "matrix col player", err)
				return
			}
			rowKills, _ := atoi(mustAttr(cell, "data-row-kills"))
			colKills, _ := atoi(mustAttr(cell, "data-col-kills"))
			matrix = append(matrix, model.KillMatrixEntry{
				MatrixType:  matrixType,
				RowPlayerID: rowID,
				ColPlayerID: colID,
				RowKills:    rowKills,
				ColKills:    colKills,
			})
		})
	})
	if firstErr != nil {
		return model.PerformanceData{}, firstErr
	}

	return model.PerformanceData{MapStatsID: mapStatsID, PlayerRates: rates, KillMatrix: matrix}, nil
}

// ratingSchemaFromPerformance reports which rating schema a performance
// card's JSON was generated under, read from its last bar's label —
// callers may cross-check this against the map-stats page's header text.
func ratingSchemaFromPerformance(raw string) (string, error) {
	var card performanceCard
	if err := json.Unmarshal([]byte(raw), &card); err != nil {
		return "", err
	}
	if len(card.Bars) == 0 {
		return "", errMissingJSONBlob
	}
	return card.Bars[len(card.Bars)-1].Label, nil
}
