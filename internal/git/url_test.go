package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRepoURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "https url",
			input: "https://github.com/user/repo.git",
			want:  "https://github.com/user/repo.git",
		},
		{
			name:  "https url without suffix",
			input: "https://github.com/user/repo",
			want:  "https://github.com/user/repo",
		},
		{
			name:  "ssh scp form",
			input: "git@github.com:user/repo.git",
			want:  "https://github.com/user/repo.git",
		},
		{
			name:  "ssh scheme form",
			input: "ssh://git@github.com/user/repo.git",
			want:  "https://github.com/user/repo.git",
		},
		{
			name:  "embedded credentials are stripped",
			input: "https://ghp_sometoken@github.com/user/repo.git",
			want:  "https://github.com/user/repo.git",
		},
		{
			name:  "absolute local path",
			input: "/srv/git/repo.git",
			want:  "/srv/git/repo.git",
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "not a url",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			input:   "ftp://github.com/user/repo.git",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRepoURL(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrBadRepoURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsRemoteURL(t *testing.T) {
	assert.True(t, IsRemoteURL("https://github.com/user/repo.git"))
	assert.True(t, IsRemoteURL("http://git.local/repo.git"))
	assert.False(t, IsRemoteURL("/srv/git/repo.git"))
}
