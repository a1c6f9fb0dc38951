package git

import (
	"errors"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	ferrors "git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// ClassifyGitError translates go-git errors into ClassifiedErrors.
func ClassifyGitError(err error, op, url string) error {
	if err == nil {
		return nil
	}
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}

	l := strings.ToLower(err.Error())
	var b *ferrors.ErrorBuilder
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		strings.Contains(l, "authentication"), strings.Contains(l, "invalid credentials"):
		b = ferrors.NewError(ferrors.CategoryConfig, "repository authentication failed").UserAction()
	case errors.Is(err, transport.ErrRepositoryNotFound),
		strings.Contains(l, "repository not found"), strings.Contains(l, "couldn't find remote ref"):
		b = ferrors.NewError(ferrors.CategoryNotFound, "repository or branch not found").UserAction()
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		b = ferrors.NewError(ferrors.CategoryGit, "remote repository is empty").UserAction()
	case strings.Contains(l, "connection reset"), strings.Contains(l, "timeout"),
		strings.Contains(l, "remote hung up"), strings.Contains(l, "no route to host"):
		b = ferrors.NewError(ferrors.CategoryNetwork, "repository unreachable").Retryable()
	default:
		b = ferrors.GitError("git " + op + " failed")
	}
	return b.WithCause(err).WithContext("op", op).WithContext("url", url).Build()
}
