package core

// Point is a WGS84 coordinate pair returned by the geocoder.
type Point struct {
	Lat float64
	Lng float64
}

// Poem is one imported poem record. Body is the extraction input; AudioURL
// doubles as the enrichment eligibility flag.
type Poem struct {
	ID       string
	Title    string
	URL      string
	Body     string
	AuthorID *string
	AudioURL *string
}

// Author is one imported poet record. The biographical fields come from
// different upstream sources and any of them may be missing.
type Author struct {
	ID            string
	Title         string
	URL           string
	BirthYear     *string
	DeathYear     *string
	BioFoundation *string
	BioGale       *string
	BioPoetry     *string
	BioPol        *string
}

// Location is a canonical geographic row keyed by its unique description
// text. Point is nil when geocoding failed or the description is the
// extractor's "no location found" sentinel.
type Location struct {
	ID          int64
	Description string
	Point       *Point
}

// SentinelNoLocation is what the extractor returns when a record's text
// yields no determinable geography. It is stored and linked like any other
// description, just never geocoded.
const SentinelNoLocation = "N/A"
