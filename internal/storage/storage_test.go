package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/tenantcms/internal/reliability/circuitbreaker"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "org-1/file.png", want: "org-1/file.png"},
		{in: "org-1//file.png", want: "org-1/file.png"},
		{in: "./org-1/file.png", want: "org-1/file.png"},
		{in: "", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
		{in: "../secret", wantErr: true},
		{in: "org-1/../../secret", wantErr: true},
		{in: `org-1\file.png`, wantErr: true},
		{in: ".", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := cleanKey(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStore(root, "/uploads/", nil)
	require.NoError(t, err)

	require.NoError(t, store.WriteFile(ctx, "org-1/a.txt", []byte("hello"), "text/plain"))

	b, err := os.ReadFile(filepath.Join(root, "org-1", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	ok, err := store.Exists(ctx, "org-1/a.txt")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/uploads/org-1/a.txt", store.URL("org-1/a.txt"))

	require.NoError(t, store.DeleteFile(ctx, "org-1/a.txt"))
	ok, err = store.Exists(ctx, "org-1/a.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.DeleteFile(ctx, "org-1/a.txt"), "deleting twice is not an error")
	assert.ErrorIs(t, store.WriteFile(ctx, "../escape.txt", []byte("x"), ""), ErrInvalidPath)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("http://cdn.test")

	data := []byte("abc")
	require.NoError(t, store.WriteFile(ctx, "org/x.bin", data, ""))
	data[0] = 'z'

	got, ok := store.Read("org/x.bin")
	require.True(t, ok)
	assert.Equal(t, "abc", string(got), "store keeps its own copy")
	assert.Equal(t, "http://cdn.test/org/x.bin", store.URL("org/x.bin"))

	require.NoError(t, store.DeleteFile(ctx, "org/x.bin"))
	assert.Equal(t, 0, store.Len())
}

type failingStore struct {
	*MemoryStore
	calls int
	err   error
}

func (f *failingStore) WriteFile(ctx context.Context, p string, data []byte, ct string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return f.MemoryStore.WriteFile(ctx, p, data, ct)
}

func TestBreakerStoreOpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{MemoryStore: NewMemoryStore(""), err: errors.New("connection refused")}
	store := NewBreakerStore(inner, circuitbreaker.Settings{Name: "test", FailureThreshold: 2, Cooldown: time.Hour}, nil)

	assert.Error(t, store.WriteFile(ctx, "a/b", []byte("x"), ""))
	assert.Error(t, store.WriteFile(ctx, "a/b", []byte("x"), ""))

	err := store.WriteFile(ctx, "a/b", []byte("x"), "")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Equal(t, 2, inner.calls, "open breaker does not reach the store")
}

func TestBreakerStoreIgnoresInvalidPaths(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{MemoryStore: NewMemoryStore("")}
	store := NewBreakerStore(inner, circuitbreaker.Settings{Name: "test", FailureThreshold: 1, Cooldown: time.Hour}, nil)

	assert.ErrorIs(t, store.WriteFile(ctx, "../x", []byte("x"), ""), ErrInvalidPath)
	assert.Equal(t, circuitbreaker.StateClosed, store.State())

	require.NoError(t, store.WriteFile(ctx, "ok/x", []byte("x"), ""))
	ok, err := store.Exists(ctx, "ok/x")
	require.NoError(t, err)
	assert.True(t, ok)
}

type fakeS3 struct {
	headErr   error
	deleted   []string
	uploaded  map[string]string
	uploadErr error
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	body, _ := io.ReadAll(in.Body)
	f.uploaded[*in.Key] = *in.ContentType + ":" + string(body)
	return &manager.UploadOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{uploaded: map[string]string{}}
	store := &S3Store{client: fake, uploader: fake, bucket: "media", publicURL: "https://cdn.test", logger: nil}

	require.NoError(t, store.WriteFile(ctx, "org/a.png", []byte("png"), "image/png"))
	assert.Equal(t, "image/png:png", fake.uploaded["org/a.png"])

	ok, err := store.Exists(ctx, "org/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	fake.headErr = &types.NotFound{}
	ok, err = store.Exists(ctx, "org/a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	fake.headErr = errors.New("timeout")
	_, err = store.Exists(ctx, "org/a.png")
	assert.Error(t, err)

	require.NoError(t, store.DeleteFile(ctx, "org/a.png"))
	assert.Equal(t, []string{"org/a.png"}, fake.deleted)
	assert.Equal(t, "https://cdn.test/org/a.png", store.URL("org/a.png"))
}

func TestResolverV2JoinsBucket(t *testing.T) {
	r := &resolverV2{endpoint: "http://localhost:9000"}
	bucket := "media"
	ep, err := r.ResolveEndpoint(context.Background(), s3.EndpointParameters{Bucket: &bucket})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/media", ep.URI.String())
}
