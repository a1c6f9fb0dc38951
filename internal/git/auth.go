package git

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/docsite/internal/config"
)

// authFor returns token auth for HTTP remotes. Without a token go-git uses its
// defaults (anonymous HTTP, ssh-agent for SSH remotes).
func authFor(repo config.RepositoryConfig) transport.AuthMethod {
	if repo.Token == "" {
		return nil
	}
	// GitHub and GitLab accept any non-empty username with a token password.
	return &http.BasicAuth{Username: "token", Password: repo.Token}
}
