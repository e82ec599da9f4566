package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedPrefix(t *testing.T) {
	assert.Equal(t, "song_data/A/A/", fixedPrefix("song_data/A/A/*/*.json"))
	assert.Equal(t, "log_data/", fixedPrefix("log_data/*/*/*.json"))
	assert.Equal(t, "", fixedPrefix("*/*.json"))
	assert.Equal(t, "exact/key.json", fixedPrefix("exact/key.json"))
}

func TestGlobMatchesSegments(t *testing.T) {
	store := NewMemoryStore()
	store.Put("song_data/A/A/A/TRAAAAA.json", []byte("{}"))
	store.Put("song_data/A/A/B/TRAABBB.json", []byte("{}"))
	store.Put("song_data/A/B/A/TRABAAA.json", []byte("{}"))
	store.Put("song_data/A/A/A/readme.txt", []byte("x"))
	store.Put("log_data/2018/11/events.json", []byte("{}"))

	keys, err := Glob(context.Background(), store, "song_data/A/A/*/*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"song_data/A/A/A/TRAAAAA.json",
		"song_data/A/A/B/TRAABBB.json",
	}, keys)

	keys, err = Glob(context.Background(), store, "log_data/*/*/*.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"log_data/2018/11/events.json"}, keys)
}

func TestFetchAllPreservesOrder(t *testing.T) {
	store := NewMemoryStore()
	store.Put("a", []byte("first"))
	store.Put("b", []byte("second"))
	store.Put("c", []byte("third"))

	bodies, err := FetchAll(context.Background(), store, []string{"c", "a", "b"}, 2)
	require.NoError(t, err)
	require.Len(t, bodies, 3)
	assert.Equal(t, "third", string(bodies[0]))
	assert.Equal(t, "first", string(bodies[1]))
	assert.Equal(t, "second", string(bodies[2]))
}

func TestFetchAllMissingKey(t *testing.T) {
	store := NewMemoryStore()
	store.Put("a", []byte("first"))

	_, err := FetchAll(context.Background(), store, []string{"a", "missing"}, 2)
	require.Error(t, err)
}

type failingStore struct {
	*MemoryStore
}

func (f *failingStore) Download(context.Context, string) ([]byte, error) {
	return nil, errors.New("boom")
}

func TestFetchAllPropagatesDownloadError(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore()}
	_, err := FetchAll(context.Background(), store, []string{"a", "b", "c"}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDeleteBatchErrorReportsFailedKeys(t *testing.T) {
	require.NoError(t, deleteBatchError("bucket", "songs/", nil))

	err := deleteBatchError("bucket", "songs/", []*s3.Error{
		{
			Key:     aws.String("songs/year=2000/part-00000.parquet"),
			Code:    aws.String("AccessDenied"),
			Message: aws.String("Access Denied"),
		},
		{
			Key:  aws.String("songs/year=2001/part-00000.parquet"),
			Code: aws.String("InternalError"),
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 objects not deleted")
	assert.Contains(t, err.Error(), "songs/year=2000/part-00000.parquet")
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	store := NewMemoryStore()
	store.Put("songs/year=2000/part-00000.parquet", []byte("old"))
	store.Put("songs/year=2001/part-00000.parquet", []byte("old"))
	store.Put("artists/part-00000.parquet", []byte("keep"))

	deleted, err := store.DeletePrefix(context.Background(), "songs/")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	keys, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"artists/part-00000.parquet"}, keys)
}
