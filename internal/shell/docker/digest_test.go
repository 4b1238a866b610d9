package docker

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/registry"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDigest_PushedImage(t *testing.T) {
	server := httptest.NewServer(registry.New())
	defer server.Close()

	host := strings.TrimPrefix(server.URL, "http://")
	ref := host + "/alice/app:latest"

	img, err := random.Image(256, 1)
	require.NoError(t, err)
	parsed, err := name.ParseReference(ref, name.Insecure)
	require.NoError(t, err)
	require.NoError(t, remote.Write(parsed, img))

	want, err := img.Digest()
	require.NoError(t, err)

	got, err := ResolveDigest(context.Background(), ref, RegistryAuth{}, name.Insecure)
	require.NoError(t, err)
	assert.Equal(t, want.String(), got)
}

func TestResolveDigest_MissingImage(t *testing.T) {
	server := httptest.NewServer(registry.New())
	defer server.Close()

	ref := strings.TrimPrefix(server.URL, "http://") + "/alice/missing:latest"

	_, err := ResolveDigest(context.Background(), ref, RegistryAuth{Username: "alice", Password: "pw"}, name.Insecure)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPushFailed)
}

func TestResolveDigest_InvalidReference(t *testing.T) {
	_, err := ResolveDigest(context.Background(), "UPPER/Case::bad", RegistryAuth{})
	assert.ErrorIs(t, err, ErrPushFailed)
}
