package git

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/config"
	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func TestClassifyGitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ferrors.ErrorCategory
		retry    bool
	}{
		{name: "auth", err: transport.ErrAuthenticationRequired, category: ferrors.CategoryConfig},
		{name: "not found", err: fmt.Errorf("clone: %w", transport.ErrRepositoryNotFound), category: ferrors.CategoryNotFound},
		{name: "empty", err: transport.ErrEmptyRemoteRepository, category: ferrors.CategoryGit},
		{name: "network", err: errors.New("read tcp: connection reset by peer"), category: ferrors.CategoryNetwork, retry: true},
		{name: "other", err: errors.New("object not found in pack"), category: ferrors.CategoryGit, retry: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyGitError(tt.err, "update", "https://example.com/docs.git")
			ce, ok := ferrors.AsClassified(got)
			require.True(t, ok)
			assert.Equal(t, tt.category, ce.Category())
			assert.Equal(t, tt.retry, ce.CanRetry())
			url, _ := ce.Context().GetString("url")
			assert.Equal(t, "https://example.com/docs.git", url)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, ClassifyGitError(nil, "clone", ""))
	already := ferrors.GitError("x").Build()
	assert.Same(t, already, ClassifyGitError(already, "clone", ""))
}

func TestTransient(t *testing.T) {
	c := NewClient(t.TempDir(), config.RepositoryConfig{URL: "https://example.com/docs.git"})
	op := "update"
	transient := c.transient(&op)

	assert.True(t, transient(errors.New("read: connection reset by peer")))
	assert.True(t, transient(errors.New("object missing")), "unclassified git failures are retried")
	assert.False(t, transient(transport.ErrRepositoryNotFound))
	assert.False(t, transient(transport.ErrAuthenticationRequired))
	assert.False(t, transient(fmt.Errorf("fetch: %w", context.Canceled)))
}
