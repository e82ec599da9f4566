package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/despotakis/sparkify-lake/internal/model"
	"github.com/despotakis/sparkify-lake/internal/storage"
)

// Catalog is the song/artist lookup the log phase joins events against,
// keyed by exact (title, artist name) match. It stands in for the temp
// views the metadata phase used to register.
type Catalog struct {
	entries map[catalogKey]catalogEntry
}

type catalogKey struct {
	title  string
	artist string
}

type catalogEntry struct {
	songID   string
	artistID string
}

// Lookup resolves a played (song, artist) pair to catalog ids.
func (c *Catalog) Lookup(song, artist string) (songID, artistID string, ok bool) {
	e, ok := c.entries[catalogKey{title: song, artist: artist}]
	return e.songID, e.artistID, ok
}

// Size returns the number of distinct (title, artist) pairs.
func (c *Catalog) Size() int { return len(c.entries) }

// ProcessSongData loads the song metadata glob, derives the songs and
// artists relations and writes both. The returned catalog feeds the event
// phase, so this must run first.
func ProcessSongData(ctx context.Context, log *zap.Logger, in storage.ObjectStore, tw *TableWriter, pattern string, parallel int, stats *Stats) (*Catalog, error) {
	log.Info("loading artist and song metadata", zap.String("pattern", pattern))
	log.Warn("source bucket is heavily populated; the configured glob ingests only a subset of song logs")

	keys, err := storage.Glob(ctx, in, pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing song metadata: %w", err)
	}
	log.Info("song metadata files found", zap.Int("files", len(keys)))

	bodies, err := storage.FetchAll(ctx, in, keys, parallel)
	if err != nil {
		return nil, fmt.Errorf("fetching song metadata: %w", err)
	}
	stats.FilesRead += len(keys)

	var records []model.SongMeta
	for i, body := range bodies {
		recs, bad, err := model.DecodeSongMeta(body)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", keys[i], err)
		}
		if bad > 0 {
			log.Warn("undecodable metadata lines skipped",
				zap.String("key", keys[i]), zap.Int("lines", bad))
			stats.BadLines += bad
		}
		records = append(records, recs...)
	}
	log.Info("song metadata loaded", zap.Int("records", len(records)))

	songs := distinctSongs(records)
	artists := distinctArtists(records)
	catalog := buildCatalog(records)
	log.Info("metadata relations derived",
		zap.Int("songs", len(songs)),
		zap.Int("artists", len(artists)),
		zap.Int("catalog_entries", catalog.Size()))

	written, err := WriteTable(ctx, tw, "songs", songs, func(r model.SongRow) ([]Partition, bool) {
		if r.ArtistName == "" {
			return nil, false
		}
		return []Partition{
			{Col: "year", Value: strconv.Itoa(int(r.Year))},
			{Col: "artist_name", Value: r.ArtistName},
		}, true
	})
	if err != nil {
		return nil, err
	}
	stats.RowsWritten["songs"] = written

	written, err = WriteTable(ctx, tw, "artists", artists, nil)
	if err != nil {
		return nil, err
	}
	stats.RowsWritten["artists"] = written

	return catalog, nil
}

// distinctSongs projects the song columns and drops exact duplicate
// tuples, keeping first-seen order.
func distinctSongs(records []model.SongMeta) []model.SongRow {
	seen := make(map[model.SongRow]bool, len(records))
	var out []model.SongRow
	for _, rec := range records {
		row := model.SongRow{
			SongID:     rec.SongID,
			Title:      rec.Title,
			ArtistID:   rec.ArtistID,
			ArtistName: rec.ArtistName,
			Year:       int32(rec.Year),
			Duration:   rec.Duration,
		}
		if seen[row] {
			continue
		}
		seen[row] = true
		out = append(out, row)
	}
	return out
}

// distinctArtists keeps one row per artist_id. Records are scanned in
// surrogate-id order (the order they were loaded), so the first
// occurrence wins; the surrogate id itself is not persisted.
func distinctArtists(records []model.SongMeta) []model.ArtistRow {
	seen := make(map[string]bool, len(records))
	var out []model.ArtistRow
	for _, rec := range records {
		if rec.ArtistID == "" || seen[rec.ArtistID] {
			continue
		}
		seen[rec.ArtistID] = true
		out = append(out, model.ArtistRow{
			ArtistID:   rec.ArtistID,
			ArtistName: rec.ArtistName,
			Location:   rec.ArtistLocation,
			Latitude:   rec.ArtistLatitude,
			Longitude:  rec.ArtistLongitude,
		})
	}
	return out
}

func buildCatalog(records []model.SongMeta) *Catalog {
	entries := make(map[catalogKey]catalogEntry, len(records))
	for _, rec := range records {
		key := catalogKey{title: rec.Title, artist: rec.ArtistName}
		if _, ok := entries[key]; ok {
			continue
		}
		entries[key] = catalogEntry{songID: rec.SongID, artistID: rec.ArtistID}
	}
	return &Catalog{entries: entries}
}
