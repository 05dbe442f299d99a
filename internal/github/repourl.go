package github

import (
	"net/url"
	"strings"

	"github.com/sakif/repoedit/internal/apperror"
	"github.com/sakif/repoedit/internal/model"
)

// ParseRepoURL extracts owner and name from a repository API URL such as
// https://api.github.com/repos/octocat/hello-world. GitHub Enterprise prefixes
// (/api/v3/repos/...) are accepted too.
func ParseRepoURL(raw string) (model.RepoRef, error) {
	invalid := apperror.ValidationFailed("repo_url", "repo_url must look like https://api.github.com/repos/{owner}/{repo}")

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return model.RepoRef{}, invalid
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, s := range segs {
		if s != "repos" {
			continue
		}
		if i+3 != len(segs) {
			return model.RepoRef{}, invalid
		}
		owner, name := segs[i+1], segs[i+2]
		if owner == "" || name == "" {
			return model.RepoRef{}, invalid
		}
		return model.RepoRef{Owner: owner, Name: name}, nil
	}
	return model.RepoRef{}, invalid
}
