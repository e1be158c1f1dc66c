package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/repository/memory"
	"github.com/aryan0dhankhar/tenantcms/internal/security"
	"github.com/aryan0dhankhar/tenantcms/internal/upload"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestMediaUpload(t *testing.T) {
	f := newFixture(t)
	data := testPNG(t, 4, 3)

	m, err := f.media.Upload(f.ctx, f.editorA, UploadInput{
		OriginalName: "Logo.PNG", Data: data, MimeType: "image/png", Alt: "logo",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^\d+-[0-9a-f]{8}\.png$`, m.Filename)
	assert.Equal(t, f.orgA.ID+"/"+m.Filename, m.Path)
	assert.Equal(t, "/uploads/"+m.Path, m.URL)
	assert.Equal(t, int64(len(data)), m.Size)
	require.NotNil(t, m.Width)
	assert.Equal(t, 4, *m.Width)
	assert.Equal(t, 3, *m.Height)
	assert.Len(t, m.Hash, 64)

	stored, ok := f.files.Read(m.Path)
	require.True(t, ok)
	assert.Equal(t, data, stored)
}

func TestMediaUploadRejectsWithAllReasons(t *testing.T) {
	f := newFixture(t)
	data := append([]byte("MZ\x90\x00"), []byte("<script>alert(1)</script>")...)

	_, err := f.media.Upload(f.ctx, f.editorA, UploadInput{
		OriginalName: "invoice.exe", Data: data, MimeType: "image/png",
	})
	require.ErrorIs(t, err, domain.ErrValidation)
	details := strings.Join(domain.Details(err), "\n")
	assert.Contains(t, details, "executable")
	assert.Contains(t, details, "security reasons")
	assert.Equal(t, 0, f.files.Len(), "nothing is stored for a rejected upload")
}

func TestMediaUploadRequiresWriteRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.media.Upload(f.ctx, f.viewerA, UploadInput{OriginalName: "a.png", Data: testPNG(t, 1, 1), MimeType: "image/png"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

type failingMediaRepo struct {
	*memory.MediaRepository
}

func (failingMediaRepo) Create(context.Context, *domain.Media) error {
	return errors.New("database is down")
}

func TestMediaUploadRemovesFileWhenRecordFails(t *testing.T) {
	f := newFixture(t)
	svc := NewMediaService(failingMediaRepo{f.store.Media()}, f.files, nil, security.NewAuthorizationService(nil), nil, nil)

	_, err := svc.Upload(f.ctx, f.editorA, UploadInput{OriginalName: "a.png", Data: testPNG(t, 1, 1), MimeType: "image/png"})
	require.Error(t, err)
	assert.Equal(t, 0, f.files.Len())
}

func TestMediaListByKind(t *testing.T) {
	f := newFixture(t)
	_, err := f.media.Upload(f.ctx, f.editorA, UploadInput{OriginalName: "a.png", Data: testPNG(t, 1, 1), MimeType: "image/png"})
	require.NoError(t, err)
	_, err = f.media.Upload(f.ctx, f.editorA, UploadInput{OriginalName: "notes.txt", Data: []byte("plain notes"), MimeType: "text/plain"})
	require.NoError(t, err)

	images, err := f.media.List(f.ctx, f.viewerA, MediaQuery{Kind: upload.KindImage})
	require.NoError(t, err)
	assert.Equal(t, 1, images.Total)

	all, err := f.media.List(f.ctx, f.viewerA, MediaQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, all.Total)

	_, err = f.media.List(f.ctx, f.viewerA, MediaQuery{Kind: "hologram"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMediaUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	m, err := f.media.Upload(f.ctx, f.editorA, UploadInput{OriginalName: "a.png", Data: testPNG(t, 1, 1), MimeType: "image/png"})
	require.NoError(t, err)

	caption := "A caption"
	updated, err := f.media.Update(f.ctx, f.editorA, m.ID, UpdateMediaInput{Caption: &caption})
	require.NoError(t, err)
	assert.Equal(t, caption, updated.Caption)

	assert.ErrorIs(t, f.media.Delete(f.ctx, f.editorB, m.ID), domain.ErrForbidden)
	require.NoError(t, f.media.Delete(f.ctx, f.editorA, m.ID))
	assert.Equal(t, 0, f.files.Len())
	_, err = f.media.Get(f.ctx, f.editorA, m.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMediaScanDoesNotStore(t *testing.T) {
	f := newFixture(t)
	res, err := f.media.Scan(f.ctx, f.viewerA, UploadInput{OriginalName: "a.png", Data: testPNG(t, 2, 2), MimeType: "image/png"})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, res.FileInfo.IsImage)
	assert.Equal(t, 0, f.files.Len())
}
