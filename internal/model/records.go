package model

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
)

// SongMeta is one raw song metadata record as it appears in the source
// bucket. Latitude/longitude are pointers because many records carry null.
type SongMeta struct {
	NumSongs        int      `json:"num_songs"`
	ArtistID        string   `json:"artist_id"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistName      string   `json:"artist_name"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	Duration        float64  `json:"duration"`
	Year            int      `json:"year"`
}

// LogEvent is one raw user interaction record from the event logs.
// UserID is a string in the source data and may be empty for
// unauthenticated sessions.
type LogEvent struct {
	Artist        string  `json:"artist"`
	Auth          string  `json:"auth"`
	FirstName     string  `json:"firstName"`
	Gender        string  `json:"gender"`
	ItemInSession int     `json:"itemInSession"`
	LastName      string  `json:"lastName"`
	Length        float64 `json:"length"`
	Level         string  `json:"level"`
	Location      string  `json:"location"`
	Method        string  `json:"method"`
	Page          string  `json:"page"`
	Registration  float64 `json:"registration"`
	SessionID     int64   `json:"sessionId"`
	Song          string  `json:"song"`
	Status        int     `json:"status"`
	TS            int64   `json:"ts"`
	UserAgent     string  `json:"userAgent"`
	UserID        string  `json:"userId"`
}

// decodeLines decodes a body holding either a single JSON object or one
// object per line into dst records via the unmarshal callback. Returns the
// number of lines that failed to decode. A scan failure (a line exceeding
// the buffer limit) aborts the whole file: silently truncating it would
// drop records without a trace.
func decodeLines(body []byte, unmarshal func([]byte) error) (int, error) {
	bad := 0
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := unmarshal(line); err != nil {
			bad++
		}
	}
	if err := scanner.Err(); err != nil {
		return bad, fmt.Errorf("scanning records: %w", err)
	}
	return bad, nil
}

// DecodeSongMeta parses a metadata object body. Files in the source bucket
// hold one JSON object each, but multi-line bodies are accepted too.
func DecodeSongMeta(body []byte) ([]SongMeta, int, error) {
	var out []SongMeta
	bad, err := decodeLines(body, func(line []byte) error {
		var rec SongMeta
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, bad, err
	}
	return out, bad, nil
}

// DecodeLogEvents parses a JSON-lines event log body.
func DecodeLogEvents(body []byte) ([]LogEvent, int, error) {
	var out []LogEvent
	bad, err := decodeLines(body, func(line []byte) error {
		var rec LogEvent
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, bad, err
	}
	return out, bad, nil
}
