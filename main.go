// Package main is the entry point for hltv-harvester, which scrapes and
// archives historical CS2 match data from HLTV.org into a local SQLite
// database.
package main

import "github.com/pable/hltv-harvester/cmd"

func main() {
	cmd.Execute()
}
