package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/repoedit/internal/apperror"
	"github.com/sakif/repoedit/internal/model"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    model.RepoRef
		wantErr bool
	}{
		{"public api", "https://api.github.com/repos/octocat/hello-world", model.RepoRef{Owner: "octocat", Name: "hello-world"}, false},
		{"trailing slash", "https://api.github.com/repos/octocat/hello-world/", model.RepoRef{Owner: "octocat", Name: "hello-world"}, false},
		{"enterprise prefix", "https://ghe.example/api/v3/repos/team/svc", model.RepoRef{Owner: "team", Name: "svc"}, false},
		{"html url", "https://github.com/octocat/hello-world", model.RepoRef{}, true},
		{"extra segments", "https://api.github.com/repos/octocat/hello/commits/main", model.RepoRef{}, true},
		{"owner only", "https://api.github.com/repos/octocat", model.RepoRef{}, true},
		{"relative", "/repos/octocat/hello", model.RepoRef{}, true},
		{"empty", "", model.RepoRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRepoURL(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
