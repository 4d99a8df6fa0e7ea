package main

import "strconv"

// Rulesets names the game modes a chart's General.Mode can select.
var Rulesets = map[int]string{
	0: "osu",
	1: "taiko",
	2: "fruits",
	3: "mania",
}

func rulesetName(mode int) string {
	if name, ok := Rulesets[mode]; ok {
		return name
	}
	return "unknown (" + strconv.Itoa(mode) + ")"
}
