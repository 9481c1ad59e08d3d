// Package parse implements the five pure HTML-to-record parsers: results
// listing, match overview, map stats, performance, and economy. Every
// function is side-effect-free and deterministic — no I/O, no retries, no
// store access — so each is independently testable against archived HTML
// fixtures, in the style of the pack's tournament-page scraper
// (parseTournamentInfo).
package parse

import (
	"strconv"
	"strings"

	"github.com/pable/hltv-harvester/internal/xerrors"
)

// atoi64 parses a decimal integer, stripping thousands separators HLTV
// sometimes embeds (e.g. "1,234").
func atoi64(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseInt(s, 10, 64)
}

func atoi(s string) (int, error) {
	v, err := atoi64(s)
	return int(v), err
}

// parseFloatOrDash parses a float, mapping the "-" sentinel (HLTV's way of
// marking an absent metric) to 0.0.
func parseFloatOrDash(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "-" || s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func wrapParseErr(stage, context string, err error) error {
	if err == nil {
		return nil
	}
	return &xerrors.ParseError{Stage: stage, Context: context, Cause: err}
}
