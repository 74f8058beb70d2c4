package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ahlanjobb/api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	key := NewObjectKey(FolderDefault, "my cv final.pdf", now)

	assert.True(t, strings.HasPrefix(key, "ahlanjobs/"))
	assert.True(t, strings.HasSuffix(key, "_1700000000123_my_cv_final.pdf"))
}

func TestKeyFromURL(t *testing.T) {
	cases := map[string]string{
		"https://bucket.s3.eu-central-1.amazonaws.com/ahlanjobs/1_2_a.png": "ahlanjobs/1_2_a.png",
		"http://localhost:9000/bucket/small/3_4_face.jpg":                  "small/3_4_face.jpg",
		"https://cdn.example/other/x.png":                                  "other/x.png",
		"https://cdn.example/ahlanjobs/1_2_a%20b.png":                      "ahlanjobs/1_2_a b.png",
	}
	for in, want := range cases {
		got, err := KeyFromURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := KeyFromURL("https://cdn.example/")
	assert.Error(t, err)
}

func TestMemoryStorageRoundTrip(t *testing.T) {
	s := NewMemoryStorage("https://cdn.example")
	ctx := context.Background()

	u, err := s.Upload(ctx, "ahlanjobs/1_2_a.txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/ahlanjobs/1_2_a.txt", u)

	obj, ok := s.Get("ahlanjobs/1_2_a.txt")
	require.True(t, ok)
	assert.Equal(t, "hello", string(obj.Data))

	require.NoError(t, s.Delete(ctx, u))
	_, ok = s.Get("ahlanjobs/1_2_a.txt")
	assert.False(t, ok)
}

func TestNewS3StorageBaseURL(t *testing.T) {
	s, err := NewS3Storage(config.StorageConfig{Region: "eu-central-1", Bucket: "jobs"})
	require.NoError(t, err)
	assert.Equal(t, "https://jobs.s3.eu-central-1.amazonaws.com", s.baseURL)

	s, err = NewS3Storage(config.StorageConfig{Region: "auto", Bucket: "jobs", Endpoint: "http://localhost:9000/", AccessKeyID: "k", SecretAccessKey: "s"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/jobs", s.baseURL)

	_, err = NewS3Storage(config.StorageConfig{})
	assert.Error(t, err)
}
