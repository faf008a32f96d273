package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safenest/internal/auth/password"
	authservice "safenest/internal/auth/service"
	accountstore "safenest/internal/auth/store/account"
	sessionstore "safenest/internal/auth/store/session"
	"safenest/internal/auth/token"
	dErrors "safenest/pkg/domain-errors"
	"safenest/pkg/testutil"
)

func TestHashPasswordFromArg(t *testing.T) {
	var out bytes.Buffer
	hashPasswordCmd.SetOut(&out)
	hashPasswordCmd.SetArgs(nil)

	require.NoError(t, hashPasswordCmd.RunE(hashPasswordCmd, []string{"s3cret-pass"}))

	hash := strings.TrimSpace(out.String())
	assert.NoError(t, password.Verify("s3cret-pass", hash))
}

func TestHashPasswordFromStdin(t *testing.T) {
	var out bytes.Buffer
	hashPasswordCmd.SetOut(&out)
	hashPasswordCmd.SetIn(strings.NewReader("from-stdin\n"))

	require.NoError(t, hashPasswordCmd.RunE(hashPasswordCmd, nil))

	assert.NoError(t, password.Verify("from-stdin", strings.TrimSpace(out.String())))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	hashPasswordCmd.SetIn(strings.NewReader("\n"))
	assert.Error(t, hashPasswordCmd.RunE(hashPasswordCmd, nil))
}

func TestAddAccountNormalizesAndHashes(t *testing.T) {
	store := accountstore.NewInMemory()
	now := time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC)

	account, err := addAccount(context.Background(), store, "  Volunteer@AgapeSafetyNest.org ", "kind-words", now)
	require.NoError(t, err)
	assert.Equal(t, "volunteer@agapesafetynest.org", account.Email)

	saved, err := store.FindByEmail(context.Background(), "volunteer@agapesafetynest.org")
	require.NoError(t, err)
	assert.NoError(t, password.Verify("kind-words", saved.PasswordHash))
	assert.Equal(t, now, saved.CreatedAt)
}

func TestAddAccountRejectsBadInput(t *testing.T) {
	store := accountstore.NewInMemory()

	_, err := addAccount(context.Background(), store, "not-an-email", "kind-words", time.Now())
	assert.Error(t, err)

	_, err = addAccount(context.Background(), store, "volunteer@agapesafetynest.org", "", time.Now())
	assert.Error(t, err)
}

func TestAddedNonAdminAccountIsDenied(t *testing.T) {
	accounts := accountstore.NewInMemory()
	_, err := addAccount(context.Background(), accounts, "volunteer@agapesafetynest.org", "kind-words", time.Now())
	require.NoError(t, err)

	svc, err := authservice.New(accounts, sessionstore.NewInMemory(), token.NewSigner("test-key"),
		authservice.Config{AdminEmail: testutil.AdminEmail, SessionTTL: time.Hour})
	require.NoError(t, err)

	_, err = svc.SignIn(testutil.AdminContext(time.Now()), "volunteer@agapesafetynest.org", "kind-words")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}
