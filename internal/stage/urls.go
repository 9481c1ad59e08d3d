package stage

import "fmt"

const baseURL = "https://www.hltv.org"

func resultsURL(offset int) string {
	return fmt.Sprintf("%s/results?offset=%d", baseURL, offset)
}

// mapStatsURL, performanceURL, and economyURL all key off the mapstatsid
// HLTV assigns per map — the trailing slug segment is cosmetic and HLTV
// accepts any value there, so a fixed placeholder is used rather than
// threading team/event names through just to build a URL.
func mapStatsURL(mapStatsID int64) string {
	return fmt.Sprintf("%s/stats/matches/mapstatsid/%d/map", baseURL, mapStatsID)
}

func performanceURL(mapStatsID int64) string {
	return fmt.Sprintf("%s/stats/matches/performance/mapstatsid/%d/map", baseURL, mapStatsID)
}

func economyURL(mapStatsID int64) string {
	return fmt.Sprintf("%s/stats/matches/economy/mapstatsid/%d/map", baseURL, mapStatsID)
}
