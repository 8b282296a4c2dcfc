package storage

import (
	"context"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	require.NoError(t, s.Put(ctx, "graphs/social.hcl", []byte("graph")))
	require.NoError(t, s.Put(ctx, "data/b.yaml", []byte("b")))
	require.NoError(t, s.Put(ctx, "data/a.yaml", []byte("a")))

	data, err := s.Get(ctx, "data/a.yaml")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	keys, err := s.List(ctx, "data")
	require.NoError(t, err)
	assert.Equal(t, []string{"data/a.yaml", "data/b.yaml"}, keys)

	keys, err = s.List(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, keys)

	_, err = s.Get(ctx, "data/c.yaml")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "../outside")
	assert.Error(t, err)
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("s3://bucket/data/social.yaml")
	require.NoError(t, err)
	assert.Equal(t, Location{Bucket: "bucket", Key: "data/social.yaml"}, loc)
	assert.True(t, loc.IsS3())

	loc, err = ParseLocation("testdata/social.yaml")
	require.NoError(t, err)
	assert.False(t, loc.IsS3())

	_, err = ParseLocation("s3:///key")
	assert.Error(t, err)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}))
	assert.False(t, isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNotFound(assert.AnError))
}
