package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
)

// ObjectStore is the minimal surface the job needs from a bucket. The S3
// implementation is used in production; tests run against the in-memory
// one.
type ObjectStore interface {
	// List returns all keys under prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	// Download fetches one object body.
	Download(ctx context.Context, key string) ([]byte, error)
	// Upload writes one object, replacing any prior version.
	Upload(ctx context.Context, key string, body io.Reader, meta map[string]string) error
	// DeletePrefix removes every object under prefix and returns how many
	// were deleted.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// Glob lists the keys matching a path-style pattern such as
// "song_data/A/A/*/*.json". Listing is narrowed to the longest fixed
// prefix before the first wildcard segment; * does not cross '/'.
func Glob(ctx context.Context, store ObjectStore, pattern string) ([]string, error) {
	keys, err := store.List(ctx, fixedPrefix(pattern))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", pattern, err)
	}
	var out []string
	for _, key := range keys {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		if ok {
			out = append(out, key)
		}
	}
	return out, nil
}

// fixedPrefix returns the pattern's leading segments up to (not including)
// the first one containing a glob metacharacter.
func fixedPrefix(pattern string) string {
	segments := strings.Split(pattern, "/")
	var fixed []string
	for _, seg := range segments {
		if strings.ContainsAny(seg, "*?[\\") {
			break
		}
		fixed = append(fixed, seg)
	}
	if len(fixed) == 0 {
		return ""
	}
	if len(fixed) == len(segments) {
		return strings.Join(fixed, "/")
	}
	return strings.Join(fixed, "/") + "/"
}
