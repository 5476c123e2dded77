package utils

import (
	"context"
	"net/url"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiverPresignedURL(t *testing.T) {
	archiver := NewArchiverFromConfig(aws.Config{
		Region:      "us-east-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}, "fish-bucket")

	key := ArchiveKey("switch oled", "run-1", "temp_data.json")
	link, err := archiver.PresignedURL(context.Background(), key)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Contains(t, u.Host+u.Path, "fish-bucket")
	assert.Contains(t, u.Path, "scrapes/switch_oled/run-1/temp_data.json")
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "3600", u.Query().Get("X-Amz-Expires"))
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "scrapes/a_b/r/x.png", ArchiveKey("a/b", "r", "x.png"))
	assert.Equal(t, "scrapes/untitled/r/x.png", ArchiveKey("", "r", "x.png"))
}
