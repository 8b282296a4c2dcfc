//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
)

// Requires Docker.
func TestS3Store_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := localstack.Run(ctx, "localstack/localstack:3.0")
	require.NoError(t, err)
	defer func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	}()

	endpoint, err := container.PortEndpoint(ctx, "4566/tcp", "http")
	require.NoError(t, err)

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	store, err := OpenS3(ctx, "datasets", S3Options{Region: "us-east-1", Endpoint: endpoint})
	require.NoError(t, err)

	_, err = store.Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String("datasets")})
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "social/persons.yaml", []byte("collections: []")))

	data, err := store.Get(ctx, "social/persons.yaml")
	require.NoError(t, err)
	assert.Equal(t, "collections: []", string(data))

	keys, err := store.List(ctx, "social/")
	require.NoError(t, err)
	assert.Equal(t, []string{"social/persons.yaml"}, keys)

	_, err = store.Get(ctx, "social/missing.yaml")
	assert.ErrorIs(t, err, ErrNotFound)
}
