// Package enrich implements the location resolution and linking workflow:
// extract location descriptions from a record's text, resolve each to a
// canonical locations row (geocoding new ones), and link record and location
// through the join table, idempotently and one transaction per record.
package enrich

import (
	"context"
	"fmt"

	"verseatlas/internal/core"
	"verseatlas/internal/logger"
)

// Record is the entity-agnostic view of one poem or author to enrich.
type Record struct {
	ID    string
	Title string
	Text  string
}

// Geocoder resolves one free-text description to a coordinate pair.
type Geocoder interface {
	Geocode(ctx context.Context, description string) (core.Point, error)
}

// Tx is one record's transactional view of the location tables, pre-bound to
// the record type's join table.
type Tx interface {
	LocationIDByDescription(ctx context.Context, description string) (int64, bool, error)
	InsertLocation(ctx context.Context, description string, point *core.Point) (int64, error)
	LinkLocation(ctx context.Context, recordID string, locationID int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Target abstracts over the record types so one driver serves both poems and
// authors: fetching the next eligible record (with its extraction text
// already assembled), running the type-specific extraction prompt, and
// opening a transaction bound to the type's join table.
type Target interface {
	Kind() string
	Next(ctx context.Context, exclude []string) (*Record, error)
	Extract(ctx context.Context, rec *Record) ([]string, error)
	Begin(ctx context.Context) (Tx, error)
}

// Enricher drives the batch: one record fully processed and committed before
// the next is fetched.
type Enricher struct {
	geocoder Geocoder
}

// New creates an Enricher.
func New(geocoder Geocoder) *Enricher {
	return &Enricher{geocoder: geocoder}
}

// Run processes eligible records until the target reports none left. Records
// already attempted in this run are excluded from re-selection so a record
// that yields no descriptions (and therefore stays eligible) cannot spin the
// loop; it will be revisited on a future run.
//
// Failures below the record level are logged and swallowed: an extraction
// error means zero descriptions for this run, a mid-record store error rolls
// the record back and moves on. Nothing is retried within a run.
func (e *Enricher) Run(ctx context.Context, target Target) error {
	var (
		exclude   []string
		processed int
	)

	for {
		rec, err := target.Next(ctx, exclude)
		if err != nil {
			return fmt.Errorf("fetching next %s: %w", target.Kind(), err)
		}
		if rec == nil {
			break
		}
		exclude = append(exclude, rec.ID)

		logger.Info("processing record", "kind", target.Kind(), "id", rec.ID, "title", rec.Title)

		descriptions, err := target.Extract(ctx, rec)
		if err != nil {
			logger.Error("extraction failed, record stays eligible for a future run", err,
				"kind", target.Kind(), "id", rec.ID)
			continue
		}
		if len(descriptions) == 0 {
			logger.Info("no location descriptions found", "kind", target.Kind(), "id", rec.ID)
			continue
		}

		if err := e.processRecord(ctx, target, rec, descriptions); err != nil {
			logger.Error("record skipped", err, "kind", target.Kind(), "id", rec.ID)
			continue
		}
		processed++
		logger.Info("record linked", "kind", target.Kind(), "id", rec.ID, "locations", len(descriptions))
	}

	logger.Info("enrichment complete", "kind", target.Kind(), "processed", processed)
	return nil
}

// processRecord runs resolution and linking for one record inside a single
// transaction, so all of its links commit atomically or not at all.
func (e *Enricher) processRecord(ctx context.Context, target Target, rec *Record, descriptions []string) error {
	tx, err := target.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.Warn("rollback failed", "id", rec.ID, "error", rbErr.Error())
		}
	}()

	if err := e.ResolveAndLink(ctx, tx, rec.ID, descriptions); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing record: %w", err)
	}
	return nil
}

// ResolveAndLink resolves every description to a locations row and links it
// to the record, in input order.
//
// Per description: look the row up by exact text; if absent, create it —
// geocoding first unless the description is the "N/A" sentinel, and falling
// back to a null geometry when geocoding fails. Creation uses insert-or-
// ignore plus a re-read by description, so a concurrent writer winning the
// insert is never an error. Every path converges on an idempotent link.
// A geocode failure never aborts the record; the remaining descriptions are
// still processed.
func (e *Enricher) ResolveAndLink(ctx context.Context, tx Tx, recordID string, descriptions []string) error {
	for _, description := range descriptions {
		locationID, found, err := tx.LocationIDByDescription(ctx, description)
		if err != nil {
			return err
		}

		if !found {
			var point *core.Point
			if description != core.SentinelNoLocation {
				p, err := e.geocoder.Geocode(ctx, description)
				if err != nil {
					logger.Warn("geocoding failed, storing location without geometry",
						"description", description, "error", err.Error())
				} else {
					point = &p
				}
			}

			locationID, err = tx.InsertLocation(ctx, description, point)
			if err != nil {
				return err
			}
		}

		if err := tx.LinkLocation(ctx, recordID, locationID); err != nil {
			return err
		}
	}
	return nil
}
