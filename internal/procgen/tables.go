package procgen

// Morpheme classes for plane names.
const (
	regionOnset = iota
	regionVowel
	regionCoda
	regionTitle
)

// RegionNames composes names like "Vorath", "Ilsmere Reach" or "Quendaril".
var RegionNames = Table{
	Templates: [][]int{
		{regionOnset, regionVowel, regionCoda},
		{regionOnset, regionVowel, regionCoda, regionTitle},
		{regionVowel, regionCoda, regionOnset, regionVowel, regionCoda},
		{regionOnset, regionVowel, regionOnset, regionVowel, regionCoda},
		{regionOnset, regionVowel, regionCoda, regionVowel},
	},
	Classes: [][]string{
		regionOnset: {
			"v", "th", "k", "z", "qu", "m", "dr", "s", "br", "l",
			"n", "gr", "ph", "t", "w", "x", "cr", "sh", "y", "b",
		},
		regionVowel: {
			"a", "e", "i", "o", "u", "ae", "ei", "ou", "y", "ia",
		},
		regionCoda: {
			"rath", "n", "l", "smere", "x", "dor", "rin", "th", "mar", "vek",
			"lis", "nd", "ris", "k", "zar", "mos",
		},
		regionTitle: {
			" reach", " prime", " expanse", " deep", " verge", " hollow",
			" drift", " spire",
		},
	},
}

// Morpheme classes for power names.
const (
	powerRoot = iota
	powerJoin
	powerNoun
	powerOf
)

// PowerNames composes names like "Emberward" or "Tide Of Stillness".
var PowerNames = Table{
	Templates: [][]int{
		{powerRoot, powerNoun},
		{powerRoot, powerJoin, powerNoun},
		{powerNoun, powerOf},
	},
	Classes: [][]string{
		powerRoot: {
			"ember", "frost", "gloom", "star", "iron", "void", "storm", "glass",
			"ash", "dawn", "moss", "rift",
		},
		powerJoin: {
			"-", " ", "en",
		},
		powerNoun: {
			"ward", "surge", "bloom", "veil", "forge", "tide", "crown", "call",
			"pulse", "song",
		},
		powerOf: {
			" of stillness", " of plenty", " of echoes", " of the hoard",
			" of ruin", " of hours",
		},
	},
}
