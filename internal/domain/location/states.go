package location

// stateCodes is the fixed 50-state abbreviation list used to validate
// trailing state tokens.
var stateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true,
	"CO": true, "CT": true, "DE": true, "FL": true, "GA": true,
	"HI": true, "ID": true, "IL": true, "IN": true, "IA": true,
	"KS": true, "KY": true, "LA": true, "ME": true, "MD": true,
	"MA": true, "MI": true, "MN": true, "MS": true, "MO": true,
	"MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true,
	"OK": true, "OR": true, "PA": true, "RI": true, "SC": true,
	"SD": true, "TN": true, "TX": true, "UT": true, "VT": true,
	"VA": true, "WA": true, "WV": true, "WI": true, "WY": true,
}

// majorCities is the fixed city list for substring matching, longest
// names first so "Kansas City" wins over any shorter overlap.
var majorCities = []string{
	"Oklahoma City",
	"Salt Lake City",
	"San Francisco",
	"Indianapolis",
	"Jacksonville",
	"Philadelphia",
	"Kansas City",
	"Los Angeles",
	"Minneapolis",
	"New Orleans",
	"San Antonio",
	"Sacramento",
	"Charlotte",
	"Las Vegas",
	"Milwaukee",
	"Nashville",
	"Pittsburgh",
	"San Diego",
	"St. Louis",
	"Cleveland",
	"Columbus",
	"New York",
	"Portland",
	"Atlanta",
	"Chicago",
	"Detroit",
	"Houston",
	"Memphis",
	"Phoenix",
	"Seattle",
	"Austin",
	"Boston",
	"Dallas",
	"Denver",
	"Omaha",
	"Miami",
	"Tampa",
	"Tucson",
}

// ValidStateCode reports whether code is one of the 50 state abbreviations.
func ValidStateCode(code string) bool {
	return stateCodes[code]
}
