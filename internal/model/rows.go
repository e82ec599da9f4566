package model

// Output row schemas for the five analytical tables. Tags follow the
// xitongsys/parquet-go convention.

// SongRow is one row of the songs dimension, partitioned by
// (year, artist_name).
type SongRow struct {
	SongID     string  `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Title      string  `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistID   string  `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistName string  `parquet:"name=artist_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year       int32   `parquet:"name=year, type=INT32"`
	Duration   float64 `parquet:"name=duration, type=DOUBLE"`
}

// ArtistRow is one row of the artists dimension, unpartitioned.
type ArtistRow struct {
	ArtistID   string   `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistName string   `parquet:"name=artist_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Location   string   `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8"`
	Latitude   *float64 `parquet:"name=latitude, type=DOUBLE, repetitiontype=OPTIONAL"`
	Longitude  *float64 `parquet:"name=longitude, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// UserRow is one row of the users dimension, unpartitioned.
type UserRow struct {
	UserID    string `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	FirstName string `parquet:"name=first_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	LastName  string `parquet:"name=last_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Gender    string `parquet:"name=gender, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level     string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// TimeRow is one row of the time dimension, partitioned by (year, month).
// StartTime is epoch seconds.
type TimeRow struct {
	StartTime int64  `parquet:"name=start_time, type=INT64"`
	Hour      int32  `parquet:"name=hour, type=INT32"`
	Day       int32  `parquet:"name=day, type=INT32"`
	Week      int32  `parquet:"name=week, type=INT32"`
	Month     int32  `parquet:"name=month, type=INT32"`
	Year      int32  `parquet:"name=year, type=INT32"`
	Weekday   string `parquet:"name=weekday, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// SongplayRow is one row of the songplays fact table, partitioned by
// (year, month). SongID and ArtistID are empty when the event did not
// match any catalog entry.
type SongplayRow struct {
	SongplayID int64  `parquet:"name=songplay_id, type=INT64"`
	StartTime  int64  `parquet:"name=start_time, type=INT64"`
	UserID     string `parquet:"name=user_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Level      string `parquet:"name=level, type=BYTE_ARRAY, convertedtype=UTF8"`
	SongID     string `parquet:"name=song_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ArtistID   string `parquet:"name=artist_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SessionID  int64  `parquet:"name=session_id, type=INT64"`
	Location   string `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8"`
	UserAgent  string `parquet:"name=user_agent, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year       int32  `parquet:"name=year, type=INT32"`
	Month      int32  `parquet:"name=month, type=INT32"`
}
