package location

import (
	"fmt"
	"regexp"

	"github.com/mdhaarishussain/Yuvshiksha/pkg/utils"
)

type MatchType string

const (
	MatchPincode  MatchType = "pincode"
	MatchLocality MatchType = "locality"
	MatchCity     MatchType = "city"
	MatchState    MatchType = "state"
	MatchNone     MatchType = "none"
)

// Scores for each rung of the proximity ladder.
const (
	ScorePincodeExact = 100
	ScoreLocality     = 95
	ScorePincodeZone  = 80
	ScoreCity         = 60
	ScoreState        = 30
	ScoreNone         = 0
)

// LocationScore is a 0-100 proximity score. Details is informational only.
type LocationScore struct {
	Score     int       `json:"score"`
	MatchType MatchType `json:"matchType"`
	Details   string    `json:"details"`
}

var nonDigit = regexp.MustCompile(`\D`)

// pinDigits strips everything but digits and reports whether six remain.
func pinDigits(pin string) (string, bool) {
	clean := nonDigit.ReplaceAllString(pin, "")
	return clean, len(clean) == 6
}

// PinCodesExact reports whether both codes reduce to the same 6 digits.
func PinCodesExact(a, b string) bool {
	ca, okA := pinDigits(a)
	cb, okB := pinDigits(b)
	return okA && okB && ca == cb
}

// PinCodesNearby reports whether both codes share a postal zone (first 3 digits).
func PinCodesNearby(a, b string) bool {
	ca, okA := pinDigits(a)
	cb, okB := pinDigits(b)
	return okA && okB && ca[:3] == cb[:3]
}

func sameNonEmpty(a, b string) bool {
	return a != "" && a == b
}

// Score evaluates the ladder in strict priority order; the first rung that
// matches wins. The zone rung precedes the city rung, so a pair sharing both
// a postal zone and a city scores 80.
func Score(requester, candidate ParsedLocation, requesterPin, candidatePin string) LocationScore {
	reqLocality := utils.CollapseSpaces(requester.Locality)
	candLocality := utils.CollapseSpaces(candidate.Locality)

	if PinCodesExact(requesterPin, candidatePin) {
		if sameNonEmpty(reqLocality, candLocality) {
			return LocationScore{
				Score:     ScorePincodeExact,
				MatchType: MatchPincode,
				Details:   fmt.Sprintf("Same pincode (%s) and locality (%s)", requesterPin, requester.Locality),
			}
		}
		return LocationScore{
			Score:     ScorePincodeExact,
			MatchType: MatchPincode,
			Details:   "Same pincode: " + requesterPin,
		}
	}

	reqCity := utils.CollapseSpaces(requester.City)
	candCity := utils.CollapseSpaces(candidate.City)

	if sameNonEmpty(reqLocality, candLocality) && sameNonEmpty(reqCity, candCity) {
		return LocationScore{
			Score:     ScoreLocality,
			MatchType: MatchLocality,
			Details:   fmt.Sprintf("Same area: %s, %s", requester.Locality, requester.City),
		}
	}

	if PinCodesNearby(requesterPin, candidatePin) {
		zone, _ := pinDigits(requesterPin)
		return LocationScore{
			Score:     ScorePincodeZone,
			MatchType: MatchPincode,
			Details:   fmt.Sprintf("Nearby pincode zone: %sxxx", zone[:3]),
		}
	}

	if sameNonEmpty(reqCity, candCity) {
		return LocationScore{
			Score:     ScoreCity,
			MatchType: MatchCity,
			Details:   "Same city: " + firstNonEmpty(requester.City, candidate.City),
		}
	}

	if sameNonEmpty(utils.CollapseSpaces(requester.State), utils.CollapseSpaces(candidate.State)) {
		return LocationScore{
			Score:     ScoreState,
			MatchType: MatchState,
			Details:   "Same state: " + firstNonEmpty(requester.State, candidate.State),
		}
	}

	return LocationScore{Score: ScoreNone, MatchType: MatchNone, Details: "Different location"}
}

// Badge is the short label shown next to a ranked teacher.
type Badge struct {
	Text  string `json:"text"`
	Emoji string `json:"emoji"`
}

var badges = map[MatchType]Badge{
	MatchPincode:  {Text: "Same Area", Emoji: "📍"},
	MatchLocality: {Text: "Same Locality", Emoji: "🏘️"},
	MatchCity:     {Text: "Same City", Emoji: "🌆"},
	MatchState:    {Text: "Same State", Emoji: "🗺️"},
}

// MatchBadge returns the badge for t; unknown and none yield the zero Badge.
func MatchBadge(t MatchType) Badge {
	return badges[t]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// String renders the badge as "<emoji> <text>", or "" for no match.
func (b Badge) String() string {
	if b.Text == "" {
		return ""
	}
	return b.Emoji + " " + b.Text
}
