package enrich

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"verseatlas/internal/core"
)

// fakeStore backs fakeTx instances with shared location and link state, the
// way the real store's unique constraints behave.
type fakeStore struct {
	nextID    int64
	locations map[string]*core.Location // keyed by description
	links     map[string]int            // "recordID/locationID" -> attempts that stuck
	linkTries int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		locations: make(map[string]*core.Location),
		links:     make(map[string]int),
	}
}

type fakeTx struct {
	store      *fakeStore
	committed  bool
	rolledBack bool
}

func (t *fakeTx) LocationIDByDescription(_ context.Context, description string) (int64, bool, error) {
	if loc, ok := t.store.locations[description]; ok {
		return loc.ID, true, nil
	}
	return 0, false, nil
}

func (t *fakeTx) InsertLocation(_ context.Context, description string, point *core.Point) (int64, error) {
	// Insert-or-ignore: an existing row wins and keeps its geometry.
	if loc, ok := t.store.locations[description]; ok {
		return loc.ID, nil
	}
	t.store.nextID++
	t.store.locations[description] = &core.Location{
		ID:          t.store.nextID,
		Description: description,
		Point:       point,
	}
	return t.store.nextID, nil
}

func (t *fakeTx) LinkLocation(_ context.Context, recordID string, locationID int64) error {
	t.store.linkTries++
	key := fmt.Sprintf("%s/%d", recordID, locationID)
	if _, ok := t.store.links[key]; !ok {
		t.store.links[key] = 0
	}
	t.store.links[key]++
	return nil
}

func (t *fakeTx) Commit(context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.rolledBack = true; return nil }

// fakeGeocoder resolves only the descriptions it knows and counts calls.
type fakeGeocoder struct {
	known map[string]core.Point
	calls int
}

func (g *fakeGeocoder) Geocode(_ context.Context, description string) (core.Point, error) {
	g.calls++
	if p, ok := g.known[description]; ok {
		return p, nil
	}
	return core.Point{}, fmt.Errorf("no results for %q", description)
}

// fakeTarget serves records from a fixed list, honoring the exclude set the
// way the store's eligibility query does: linked or excluded records are not
// handed out again.
type fakeTarget struct {
	records     []*Record
	extractions map[string][]string
	extractErr  map[string]error
	store       *fakeStore
	begun       int
}

func (t *fakeTarget) Kind() string { return "poem" }

func (t *fakeTarget) Next(_ context.Context, exclude []string) (*Record, error) {
	excluded := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}
	for _, rec := range t.records {
		if excluded[rec.ID] {
			continue
		}
		if t.hasLink(rec.ID) {
			continue
		}
		return rec, nil
	}
	return nil, nil
}

func (t *fakeTarget) hasLink(recordID string) bool {
	prefix := recordID + "/"
	for key := range t.store.links {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func (t *fakeTarget) Extract(_ context.Context, rec *Record) ([]string, error) {
	if err := t.extractErr[rec.ID]; err != nil {
		return nil, err
	}
	return t.extractions[rec.ID], nil
}

func (t *fakeTarget) Begin(context.Context) (Tx, error) {
	t.begun++
	return &fakeTx{store: t.store}, nil
}

func TestResolveAndLink_Idempotent(t *testing.T) {
	store := newFakeStore()
	geocoder := &fakeGeocoder{known: map[string]core.Point{
		"Paris, France": {Lat: 48.8566, Lng: 2.3522},
	}}
	enricher := New(geocoder)

	descriptions := []string{"Paris, France", "Paris, France"}
	for i := 0; i < 2; i++ {
		tx := &fakeTx{store: store}
		if err := enricher.ResolveAndLink(context.Background(), tx, "poem-1", descriptions); err != nil {
			t.Fatalf("ResolveAndLink run %d failed: %v", i+1, err)
		}
	}

	if len(store.locations) != 1 {
		t.Errorf("expected 1 location row, got %d", len(store.locations))
	}
	if len(store.links) != 1 {
		t.Errorf("expected 1 distinct link, got %d", len(store.links))
	}
	// Four attempts total, all no-ops after the first.
	if store.linkTries != 4 {
		t.Errorf("expected 4 link attempts, got %d", store.linkTries)
	}
}

func TestResolveAndLink_SentinelSkipsGeocoding(t *testing.T) {
	store := newFakeStore()
	geocoder := &fakeGeocoder{known: map[string]core.Point{}}
	enricher := New(geocoder)

	tx := &fakeTx{store: store}
	if err := enricher.ResolveAndLink(context.Background(), tx, "poem-1", []string{"N/A"}); err != nil {
		t.Fatalf("ResolveAndLink failed: %v", err)
	}

	if geocoder.calls != 0 {
		t.Errorf("sentinel must not be geocoded, got %d calls", geocoder.calls)
	}
	loc, ok := store.locations["N/A"]
	if !ok {
		t.Fatal("expected a location row for the sentinel")
	}
	if loc.Point != nil {
		t.Error("sentinel location must have null geometry")
	}
	if len(store.links) != 1 {
		t.Errorf("expected 1 link, got %d", len(store.links))
	}
}

func TestResolveAndLink_GeocodeFailureContainment(t *testing.T) {
	store := newFakeStore()
	geocoder := &fakeGeocoder{known: map[string]core.Point{
		"Paris, France": {Lat: 48.8566, Lng: 2.3522},
	}}
	enricher := New(geocoder)

	tx := &fakeTx{store: store}
	err := enricher.ResolveAndLink(context.Background(), tx, "poem-1",
		[]string{"Nowhereville", "Paris, France"})
	if err != nil {
		t.Fatalf("ResolveAndLink failed: %v", err)
	}

	nowhere, ok := store.locations["Nowhereville"]
	if !ok {
		t.Fatal("failed-geocode description must still get a location row")
	}
	if nowhere.Point != nil {
		t.Error("failed-geocode location must have null geometry")
	}

	paris, ok := store.locations["Paris, France"]
	if !ok {
		t.Fatal("expected a location row for Paris, France")
	}
	if paris.Point == nil {
		t.Fatal("geocoded location must carry a point")
	}
	if paris.Point.Lat != 48.8566 || paris.Point.Lng != 2.3522 {
		t.Errorf("unexpected point: %+v", paris.Point)
	}

	if len(store.links) != 2 {
		t.Errorf("both descriptions must be linked, got %d links", len(store.links))
	}
}

func TestResolveAndLink_ExistingLocationReused(t *testing.T) {
	store := newFakeStore()
	geocoder := &fakeGeocoder{known: map[string]core.Point{
		"Columbia River, US": {Lat: 45.71, Lng: -121.79},
	}}
	enricher := New(geocoder)

	tx := &fakeTx{store: store}
	if err := enricher.ResolveAndLink(context.Background(), tx, "poem-1", []string{"Columbia River, US"}); err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	if err := enricher.ResolveAndLink(context.Background(), tx, "poem-2", []string{"Columbia River, US"}); err != nil {
		t.Fatalf("second record failed: %v", err)
	}

	if geocoder.calls != 1 {
		t.Errorf("an existing row must resolve without geocoding, got %d calls", geocoder.calls)
	}
	if len(store.locations) != 1 {
		t.Errorf("expected 1 location row, got %d", len(store.locations))
	}
	if len(store.links) != 2 {
		t.Errorf("expected 2 links (one per record), got %d", len(store.links))
	}
}

func TestRun_EmptyExtractionLeavesRecordUntouched(t *testing.T) {
	store := newFakeStore()
	target := &fakeTarget{
		records:     []*Record{{ID: "poem-1", Title: "Untitled", Text: "..."}},
		extractions: map[string][]string{"poem-1": nil},
		store:       store,
	}
	enricher := New(&fakeGeocoder{})

	if err := enricher.Run(context.Background(), target); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if target.begun != 0 {
		t.Error("no transaction may be opened for a record with zero descriptions")
	}
	if len(store.locations) != 0 || len(store.links) != 0 {
		t.Error("empty extraction must not create rows")
	}
	// Still eligible: with a fresh exclusion set the source hands it out again.
	rec, err := target.Next(context.Background(), nil)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec == nil || rec.ID != "poem-1" {
		t.Error("record must remain eligible after an empty extraction")
	}
}

func TestRun_ExtractionErrorTreatedAsZeroDescriptions(t *testing.T) {
	store := newFakeStore()
	target := &fakeTarget{
		records:     []*Record{{ID: "poem-1"}},
		extractions: map[string][]string{},
		extractErr:  map[string]error{"poem-1": fmt.Errorf("model unavailable")},
		store:       store,
	}
	enricher := New(&fakeGeocoder{})

	if err := enricher.Run(context.Background(), target); err != nil {
		t.Fatalf("Run must swallow extraction errors, got: %v", err)
	}
	if len(store.links) != 0 {
		t.Error("failed extraction must not link anything")
	}
}

func TestRun_ProcessesUntilExhaustion(t *testing.T) {
	store := newFakeStore()
	geocoder := &fakeGeocoder{known: map[string]core.Point{
		"Portland, OR, US": {Lat: 45.52, Lng: -122.68},
	}}
	target := &fakeTarget{
		records: []*Record{
			{ID: "poem-1", Title: "One"},
			{ID: "poem-2", Title: "Two"},
			{ID: "poem-3", Title: "Three"},
		},
		extractions: map[string][]string{
			"poem-1": {"Portland, OR, US"},
			"poem-2": nil, // stays eligible, must not spin the loop
			"poem-3": {"N/A"},
		},
		store: store,
	}
	enricher := New(geocoder)

	if err := enricher.Run(context.Background(), target); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if target.begun != 2 {
		t.Errorf("expected 2 transactions (poem-2 yields nothing), got %d", target.begun)
	}
	if len(store.locations) != 2 {
		t.Errorf("expected 2 location rows, got %d", len(store.locations))
	}
	if len(store.links) != 2 {
		t.Errorf("expected 2 links, got %d", len(store.links))
	}
}

func TestAuthorBioText(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name   string
		author core.Author
		want   string
	}{
		{
			name: "all fields present",
			author: core.Author{
				BirthYear:     str("1874"),
				DeathYear:     str("1963"),
				BioFoundation: str("Born in San Francisco."),
			},
			want: "Poet Information:\nBirth Year: 1874\nDeath Year: 1963\nBio (Foundation): Born in San Francisco.",
		},
		{
			name: "none and empty values skipped",
			author: core.Author{
				BirthYear: str("none"),
				BioGale:   str("  "),
				BioPoetry: str("Lived in Amherst."),
			},
			want: "Poet Information:\nBio (Poetry): Lived in Amherst.",
		},
		{
			name:   "no usable fields",
			author: core.Author{BirthYear: str("None")},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AuthorBioText(&tt.author)
			if got != tt.want {
				t.Errorf("AuthorBioText() = %q, want %q", got, tt.want)
			}
		})
	}
}
