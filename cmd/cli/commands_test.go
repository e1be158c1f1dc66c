package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/strength"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSecretCheck(t *testing.T) {
	out, err := execute(t, "secret", "check", "--value", "secret")
	assert.ErrorIs(t, err, errRejected)
	assert.Contains(t, out, "false")

	t.Setenv("JWT_SECRET", "")
	_, err = execute(t, "secret", "check")
	assert.ErrorIs(t, err, errRejected)
}

func TestSecretGenerate(t *testing.T) {
	out, err := execute(t, "secret", "generate", "--length", "48")
	require.NoError(t, err)
	secret := strings.TrimSpace(out)
	assert.Len(t, secret, 48)
	assert.True(t, strength.JWTSecret(secret).Valid)

	_, err = execute(t, "secret", "check", "--value", secret)
	assert.NoError(t, err)

	_, err = execute(t, "secret", "generate", "--length", "8")
	assert.Error(t, err)
}

func TestPasswordCheck(t *testing.T) {
	_, err := execute(t, "password", "check", "Tr7#kP2!mX9$vL4@qZ6&")
	assert.NoError(t, err)

	out, err := execute(t, "password", "check", "password123")
	assert.ErrorIs(t, err, errRejected)
	assert.Contains(t, out, "Error")

	_, err = execute(t, "password", "check")
	assert.Error(t, err, "password argument is required")
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("plain text notes\n"), 0o600))
	out, err := execute(t, "scan", notes)
	require.NoError(t, err)
	assert.Contains(t, out, "true")

	exe := filepath.Join(dir, "tool.exe")
	require.NoError(t, os.WriteFile(exe, append([]byte("MZ"), make([]byte, 128)...), 0o600))
	out, err = execute(t, "scan", exe, "--json")
	assert.ErrorIs(t, err, errRejected)
	assert.Contains(t, out, `"accepted": false`)

	_, err = execute(t, "scan", filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

type fakeBootstrapper struct {
	err error
}

func (f fakeBootstrapper) Bootstrap(_ context.Context, in service.BootstrapInput) (*domain.Organization, *domain.User, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return &domain.Organization{ID: "org-1", Slug: in.OrganizationSlug},
		&domain.User{ID: "user-1", Email: in.Email}, nil
}

func TestRunBootstrap(t *testing.T) {
	var out bytes.Buffer
	err := runBootstrap(context.Background(), &out, fakeBootstrapper{}, service.BootstrapInput{
		OrganizationSlug: "acme", Email: "root@acme.test",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "acme (org-1)")
	assert.Contains(t, out.String(), "root@acme.test (user-1)")

	err = runBootstrap(context.Background(), &out, fakeBootstrapper{
		err: domain.Invalid("Validation failed", "email is invalid", "password is too short"),
	}, service.BootstrapInput{})
	require.Error(t, err)
	assert.Equal(t, "Validation failed: email is invalid; password is too short", err.Error())
}
