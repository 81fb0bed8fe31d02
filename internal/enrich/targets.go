package enrich

import (
	"context"
	"strings"

	"verseatlas/internal/core"
	"verseatlas/internal/llm"
	"verseatlas/internal/store"
)

// PoemTarget enriches poems; the extraction input is the raw poem body.
type PoemTarget struct {
	store *store.Store
	llm   *llm.Client
}

// NewPoemTarget creates the poem enrichment target.
func NewPoemTarget(s *store.Store, c *llm.Client) *PoemTarget {
	return &PoemTarget{store: s, llm: c}
}

func (t *PoemTarget) Kind() string { return "poem" }

func (t *PoemTarget) Next(ctx context.Context, exclude []string) (*Record, error) {
	poem, err := t.store.NextPoemForEnrichment(ctx, exclude)
	if err != nil || poem == nil {
		return nil, err
	}
	return &Record{ID: poem.ID, Title: poem.Title, Text: poem.Body}, nil
}

func (t *PoemTarget) Extract(ctx context.Context, rec *Record) ([]string, error) {
	return t.llm.ExtractPoemLocations(ctx, rec.Title, rec.Text)
}

func (t *PoemTarget) Begin(ctx context.Context) (Tx, error) {
	return t.store.BeginEnrichment(ctx, store.PoemLocations)
}

// AuthorTarget enriches authors; the extraction input is the labeled
// concatenation of the author's biographical fields.
type AuthorTarget struct {
	store *store.Store
	llm   *llm.Client
}

// NewAuthorTarget creates the author enrichment target.
func NewAuthorTarget(s *store.Store, c *llm.Client) *AuthorTarget {
	return &AuthorTarget{store: s, llm: c}
}

func (t *AuthorTarget) Kind() string { return "author" }

func (t *AuthorTarget) Next(ctx context.Context, exclude []string) (*Record, error) {
	author, err := t.store.NextAuthorForEnrichment(ctx, exclude)
	if err != nil || author == nil {
		return nil, err
	}
	return &Record{ID: author.ID, Title: author.Title, Text: AuthorBioText(author)}, nil
}

func (t *AuthorTarget) Extract(ctx context.Context, rec *Record) ([]string, error) {
	return t.llm.ExtractAuthorLocations(ctx, rec.Title, rec.Text)
}

func (t *AuthorTarget) Begin(ctx context.Context) (Tx, error) {
	return t.store.BeginEnrichment(ctx, store.AuthorLocations)
}

// AuthorBioText assembles the extraction input for an author: each present
// biographical field on its own labeled line. Fields that are null or hold
// the literal string "none" (upstream dumps use it for missing data) are
// skipped. Returns "" when no field is usable.
func AuthorBioText(author *core.Author) string {
	var lines []string
	add := func(label string, value *string) {
		if value == nil {
			return
		}
		v := strings.TrimSpace(*value)
		if v == "" || strings.EqualFold(v, "none") {
			return
		}
		lines = append(lines, label+": "+v)
	}

	add("Birth Year", author.BirthYear)
	add("Death Year", author.DeathYear)
	add("Bio (Foundation)", author.BioFoundation)
	add("Bio (Gale)", author.BioGale)
	add("Bio (Poetry)", author.BioPoetry)
	add("Bio (Pol)", author.BioPol)

	if len(lines) == 0 {
		return ""
	}
	return "Poet Information:\n" + strings.Join(lines, "\n")
}
