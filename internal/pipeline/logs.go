package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/despotakis/sparkify-lake/internal/model"
	"github.com/despotakis/sparkify-lake/internal/storage"
)

// pageNextSong is the only event page that counts as a playback.
const pageNextSong = "NextSong"

// ProcessLogData loads the event log glob, derives the songplays fact
// table plus the users and time dimensions, and writes all three. The
// catalog from the metadata phase supplies the song/artist id join.
func ProcessLogData(ctx context.Context, log *zap.Logger, in storage.ObjectStore, tw *TableWriter, pattern string, parallel int, catalog *Catalog, stats *Stats) error {
	log.Info("loading user log data", zap.String("pattern", pattern))

	keys, err := storage.Glob(ctx, in, pattern)
	if err != nil {
		return fmt.Errorf("globbing event logs: %w", err)
	}
	log.Info("event log files found", zap.Int("files", len(keys)))

	bodies, err := storage.FetchAll(ctx, in, keys, parallel)
	if err != nil {
		return fmt.Errorf("fetching event logs: %w", err)
	}
	stats.FilesRead += len(keys)

	var events []model.LogEvent
	for i, body := range bodies {
		recs, bad, err := model.DecodeLogEvents(body)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", keys[i], err)
		}
		if bad > 0 {
			log.Warn("undecodable event lines skipped",
				zap.String("key", keys[i]), zap.Int("lines", bad))
			stats.BadLines += bad
		}
		for _, rec := range recs {
			if rec.Page == pageNextSong {
				events = append(events, rec)
			}
		}
	}
	// Timestamp order makes the dedup below deterministic.
	sort.SliceStable(events, func(i, j int) bool { return events[i].TS < events[j].TS })
	log.Info("playback events loaded", zap.Int("events", len(events)))

	songplays, unmatched := deriveSongplays(events, catalog)
	users := distinctUsers(events)
	times := deriveTimeDim(songplays)
	stats.UnmatchedEvents += unmatched
	if unmatched > 0 {
		log.Warn("events without a catalog match kept with empty song/artist ids",
			zap.Int("events", unmatched), zap.Int("catalog_entries", catalog.Size()))
	}
	log.Info("event relations derived",
		zap.Int("songplays", len(songplays)),
		zap.Int("users", len(users)),
		zap.Int("time_rows", len(times)))

	written, err := WriteTable(ctx, tw, "users", users, nil)
	if err != nil {
		return err
	}
	stats.RowsWritten["users"] = written

	byYearMonth := func(year, month int32) []Partition {
		return []Partition{
			{Col: "year", Value: strconv.Itoa(int(year))},
			{Col: "month", Value: strconv.Itoa(int(month))},
		}
	}
	written, err = WriteTable(ctx, tw, "time", times, func(r model.TimeRow) ([]Partition, bool) {
		return byYearMonth(r.Year, r.Month), true
	})
	if err != nil {
		return err
	}
	stats.RowsWritten["time"] = written

	written, err = WriteTable(ctx, tw, "songplays", songplays, func(r model.SongplayRow) ([]Partition, bool) {
		return byYearMonth(r.Year, r.Month), true
	})
	if err != nil {
		return err
	}
	stats.RowsWritten["songplays"] = written

	return nil
}

// deriveSongplays turns each playback event into a fact row. start_time is
// the epoch-millis timestamp floored to seconds; year and month come from
// its UTC calendar date. Events with no exact (song, artist) catalog match
// keep empty ids, mirroring the left join the job has always done.
func deriveSongplays(events []model.LogEvent, catalog *Catalog) ([]model.SongplayRow, int) {
	rows := make([]model.SongplayRow, 0, len(events))
	unmatched := 0
	for i, ev := range events {
		startTime := ev.TS / 1000
		t := time.Unix(startTime, 0).UTC()
		songID, artistID, ok := catalog.Lookup(ev.Song, ev.Artist)
		if !ok {
			unmatched++
		}
		rows = append(rows, model.SongplayRow{
			SongplayID: int64(i),
			StartTime:  startTime,
			UserID:     ev.UserID,
			Level:      ev.Level,
			SongID:     songID,
			ArtistID:   artistID,
			SessionID:  ev.SessionID,
			Location:   ev.Location,
			UserAgent:  ev.UserAgent,
			Year:       int32(t.Year()),
			Month:      int32(t.Month()),
		})
	}
	return rows, unmatched
}

// distinctUsers keeps one row per user id. Events arrive sorted by
// timestamp, so the subscription level seen last wins. Events without a
// user id are anonymous sessions and are skipped.
func distinctUsers(events []model.LogEvent) []model.UserRow {
	byID := make(map[string]model.UserRow)
	for _, ev := range events {
		if ev.UserID == "" {
			continue
		}
		byID[ev.UserID] = model.UserRow{
			UserID:    ev.UserID,
			FirstName: ev.FirstName,
			LastName:  ev.LastName,
			Gender:    ev.Gender,
			Level:     ev.Level,
		}
	}
	out := make([]model.UserRow, 0, len(byID))
	for _, row := range byID {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// deriveTimeDim explodes the distinct start_time values into calendar
// components (UTC). Week is the ISO week number; weekday the abbreviated
// day name.
func deriveTimeDim(songplays []model.SongplayRow) []model.TimeRow {
	seen := make(map[int64]bool, len(songplays))
	var startTimes []int64
	for _, sp := range songplays {
		if !seen[sp.StartTime] {
			seen[sp.StartTime] = true
			startTimes = append(startTimes, sp.StartTime)
		}
	}
	sort.Slice(startTimes, func(i, j int) bool { return startTimes[i] < startTimes[j] })

	rows := make([]model.TimeRow, 0, len(startTimes))
	for _, st := range startTimes {
		t := time.Unix(st, 0).UTC()
		_, week := t.ISOWeek()
		rows = append(rows, model.TimeRow{
			StartTime: st,
			Hour:      int32(t.Hour()),
			Day:       int32(t.Day()),
			Week:      int32(week),
			Month:     int32(t.Month()),
			Year:      int32(t.Year()),
			Weekday:   t.Format("Mon"),
		})
	}
	return rows
}
