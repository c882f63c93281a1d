package location

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Locale holds the closed, case-insensitive sets of known states and major
// cities used to classify address segments.
type Locale struct {
	states map[string]struct{}
	cities map[string]struct{}
}

// NewLocale builds a Locale from plain name lists.
func NewLocale(states, cities []string) *Locale {
	l := &Locale{
		states: make(map[string]struct{}, len(states)),
		cities: make(map[string]struct{}, len(cities)),
	}
	for _, s := range states {
		l.states[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	for _, c := range cities {
		l.cities[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return l
}

func (l *Locale) IsState(segment string) bool {
	_, ok := l.states[strings.ToLower(segment)]
	return ok
}

func (l *Locale) IsCity(segment string) bool {
	_, ok := l.cities[strings.ToLower(segment)]
	return ok
}

type localeFile struct {
	States []string `yaml:"states"`
	Cities []string `yaml:"cities"`
}

// LoadLocale reads a YAML file of the form
//
//	states: [telangana, karnataka]
//	cities: [hyderabad, bengaluru]
func LoadLocale(path string) (*Locale, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f localeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse locale %s: %w", path, err)
	}
	if len(f.States) == 0 && len(f.Cities) == 0 {
		return nil, fmt.Errorf("locale %s defines no states or cities", path)
	}
	return NewLocale(f.States, f.Cities), nil
}

var defaultLocale = NewLocale(indianStates, indianCities)

// Default returns the built-in Indian locale.
func Default() *Locale {
	return defaultLocale
}

// SetDefault replaces the locale used by the package-level Parse.
func SetDefault(l *Locale) {
	if l != nil {
		defaultLocale = l
	}
}

var indianCities = []string{
	"hyderabad", "bangalore", "bengaluru", "mumbai", "delhi", "chennai",
	"kolkata", "pune", "ahmedabad", "jaipur", "lucknow", "kanpur",
	"nagpur", "indore", "thane", "bhopal", "visakhapatnam", "vizag",
	"patna", "vadodara", "ghaziabad", "ludhiana", "agra", "nashik",
	"faridabad", "meerut", "rajkot", "varanasi", "srinagar", "aurangabad",
	"dhanbad", "amritsar", "allahabad", "ranchi", "howrah", "coimbatore",
	"jabalpur", "gwalior", "vijayawada", "jodhpur", "madurai", "raipur",
	"kota", "chandigarh", "guwahati", "solapur", "hubli", "mysore",
	"tiruchirappalli", "bareilly", "aligarh", "tiruppur", "moradabad",
	"jalandhar", "bhubaneswar", "salem", "warangal", "guntur", "bhiwandi",
	"saharanpur", "gorakhpur", "bikaner", "amravati", "noida", "jamshedpur",
	"bhilai", "cuttack", "firozabad", "kochi", "cochin", "trivandrum",
	"nellore", "secunderabad", "gurgaon", "gurugram",
}

var indianStates = []string{
	"telangana", "andhra pradesh", "karnataka", "tamil nadu", "kerala",
	"maharashtra", "gujarat", "rajasthan", "uttar pradesh", "madhya pradesh",
	"west bengal", "bihar", "odisha", "jharkhand", "chhattisgarh",
	"punjab", "haryana", "uttarakhand", "himachal pradesh", "jammu and kashmir",
	"assam", "goa", "tripura", "meghalaya", "manipur", "nagaland",
	"arunachal pradesh", "mizoram", "sikkim", "delhi",
}
