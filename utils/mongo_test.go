package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const unreachableMongo = "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200"

func TestPingMongo_DisconnectsOnFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(unreachableMongo))
	require.NoError(t, err)

	err = pingMongo(ctx, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping mongodb")

	// already released
	assert.ErrorIs(t, client.Disconnect(ctx), mongo.ErrClientDisconnected)
}

func TestConnectMongo_Unreachable(t *testing.T) {
	client, err := ConnectMongo(unreachableMongo)
	assert.Nil(t, client)
	assert.Error(t, err)
}
