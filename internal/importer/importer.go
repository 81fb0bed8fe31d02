// Package importer loads poem and author records from the upstream JSON
// dumps into Postgres. Each dump file is a {"data": {"entries": [...]}}
// envelope; files are committed one at a time.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"verseatlas/internal/core"
	"verseatlas/internal/logger"
)

// PoemStore is the storage surface the poem import needs.
type PoemStore interface {
	ImportPoems(ctx context.Context, poems []core.Poem) error
}

// AuthorStore is the storage surface the author import needs.
type AuthorStore interface {
	ImportAuthors(ctx context.Context, authors []core.Author) error
}

// dumpEnvelope is the outer shape shared by all dump files.
type dumpEnvelope struct {
	Data struct {
		Entries json.RawMessage `json:"entries"`
	} `json:"data"`
}

// optString accepts a JSON string, number, or null. The dumps are not
// consistent about year fields.
type optString struct {
	value *string
}

func (o *optString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		o.value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		o.value = &s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	s = n.String()
	o.value = &s
	return nil
}

type poemEntry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Body    string `json:"body"`
	Authors []struct {
		ID string `json:"id"`
	} `json:"authors"`
	AudioVersion []struct {
		AudioFile []struct {
			URL string `json:"url"`
		} `json:"audioFile"`
	} `json:"audioVersion"`
}

type authorEntry struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	BirthYear     optString `json:"birthYear"`
	DeathYear     optString `json:"deathYear"`
	FoundationBio *string   `json:"foundationBio"`
	GaleBio       *string   `json:"galeBio"`
	PoetryBio     *string   `json:"poetryBio"`
	PolBio        *string   `json:"polBio"`
}

// ParsePoemDump parses one poem dump file. The primary author is the first
// listed author; the audio URL is the first audio file of the first audio
// version, when present.
func ParsePoemDump(data []byte) ([]core.Poem, error) {
	var envelope dumpEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse dump: %w", err)
	}

	var entries []poemEntry
	if err := json.Unmarshal(envelope.Data.Entries, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse poem entries: %w", err)
	}

	poems := make([]core.Poem, 0, len(entries))
	for _, entry := range entries {
		poem := core.Poem{
			ID:    entry.ID,
			Title: entry.Title,
			URL:   entry.URL,
			Body:  entry.Body,
		}
		if len(entry.Authors) > 0 {
			id := entry.Authors[0].ID
			poem.AuthorID = &id
		}
		if len(entry.AudioVersion) > 0 && len(entry.AudioVersion[0].AudioFile) > 0 {
			url := entry.AudioVersion[0].AudioFile[0].URL
			poem.AudioURL = &url
		}
		poems = append(poems, poem)
	}
	return poems, nil
}

// ParseAuthorDump parses one author dump file.
func ParseAuthorDump(data []byte) ([]core.Author, error) {
	var envelope dumpEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse dump: %w", err)
	}

	var entries []authorEntry
	if err := json.Unmarshal(envelope.Data.Entries, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse author entries: %w", err)
	}

	authors := make([]core.Author, 0, len(entries))
	for _, entry := range entries {
		authors = append(authors, core.Author{
			ID:            entry.ID,
			Title:         entry.Title,
			URL:           entry.URL,
			BirthYear:     entry.BirthYear.value,
			DeathYear:     entry.DeathYear.value,
			BioFoundation: entry.FoundationBio,
			BioGale:       entry.GaleBio,
			BioPoetry:     entry.PoetryBio,
			BioPol:        entry.PolBio,
		})
	}
	return authors, nil
}

// ImportPoems imports every poem dump file matching pattern, committing per
// file.
func ImportPoems(ctx context.Context, st PoemStore, pattern string) (int, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return 0, fmt.Errorf("bad glob pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no dump files match %q", pattern)
	}

	total := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return total, fmt.Errorf("failed to read %s: %w", file, err)
		}
		poems, err := ParsePoemDump(data)
		if err != nil {
			return total, fmt.Errorf("%s: %w", file, err)
		}
		if err := st.ImportPoems(ctx, poems); err != nil {
			return total, fmt.Errorf("%s: %w", file, err)
		}
		total += len(poems)
		logger.Info("imported poem dump", "file", file, "poems", len(poems))
	}
	return total, nil
}

// ImportAuthors imports every author dump file matching pattern, committing
// per file.
func ImportAuthors(ctx context.Context, st AuthorStore, pattern string) (int, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return 0, fmt.Errorf("bad glob pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no dump files match %q", pattern)
	}

	total := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return total, fmt.Errorf("failed to read %s: %w", file, err)
		}
		authors, err := ParseAuthorDump(data)
		if err != nil {
			return total, fmt.Errorf("%s: %w", file, err)
		}
		if err := st.ImportAuthors(ctx, authors); err != nil {
			return total, fmt.Errorf("%s: %w", file, err)
		}
		total += len(authors)
		logger.Info("imported author dump", "file", file, "authors", len(authors))
	}
	return total, nil
}
