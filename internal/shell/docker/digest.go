package docker

import (
	"context"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
)

// ResolveDigest asks the registry for the manifest digest of ref.
// It returns "" with an error when the registry cannot be reached or the
// reference does not exist.
func ResolveDigest(ctx context.Context, ref string, auth RegistryAuth, opts ...name.Option) (string, error) {
	parsed, err := name.ParseReference(ref, opts...)
	if err != nil {
		return "", withCause(NewDockerError("ResolveDigest", "image", ref, "invalid reference", ErrPushFailed), err)
	}

	authenticator := authn.Anonymous
	if auth.Username != "" {
		authenticator = &authn.Basic{Username: auth.Username, Password: auth.Password}
	}

	desc, err := remote.Head(parsed, remote.WithContext(ctx), remote.WithAuth(authenticator))
	if err != nil {
		return "", withCause(NewDockerError("ResolveDigest", "image", ref, err.Error(), ErrPushFailed), err)
	}
	return desc.Digest.String(), nil
}
