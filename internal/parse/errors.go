package parse

import "errors"

var (
	errMissingHref       = errors.New("expected anchor with href not found")
	errMalformedMatchURL = errors.New("url does not contain a match id")
	errMissingMapHolder  = errors.New("no map holder elements found")
	errMissingScoreSpan  = errors.New("expected score span not found")
	errMissingJSONBlob   = errors.New("expected embedded json payload not found")
)
