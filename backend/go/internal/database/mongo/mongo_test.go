package mongo

import (
	"context"
	"testing"

	"MedMemory/backend/go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestClientOptions(t *testing.T) {
	opts := clientOptions(&config.MongoConfig{Address: "mongodb://localhost:27017", Username: "u", Password: "p", Database: "medmemory"})
	require.NotNil(t, opts.AppName)
	assert.Equal(t, appName, *opts.AppName)
	require.NotNil(t, opts.Auth)
	assert.Equal(t, "u", opts.Auth.Username)
	assert.Equal(t, "medmemory", opts.Auth.AuthSource)
	require.NotNil(t, opts.RetryWrites)
	assert.True(t, *opts.RetryWrites)
	assert.NotNil(t, opts.WriteConcern)

	opts = clientOptions(&config.MongoConfig{Address: "mongodb://localhost:27017"})
	assert.Nil(t, opts.Auth)
}

func TestAuditIndexes(t *testing.T) {
	idx := auditIndexes()
	require.Len(t, idx, 2)
	assert.Equal(t, bson.D{{Key: "subject_id", Value: 1}, {Key: "decided_at", Value: -1}}, idx[0].Keys)
	require.NotNil(t, idx[1].Options.Name)
	assert.Equal(t, "statement_id", *idx[1].Options.Name)
}

func TestHealthCheckWithoutClient(t *testing.T) {
	assert.Error(t, HealthCheck(context.Background()))
	assert.NoError(t, Close(context.Background()))
}
