package git

import (
	"errors"
	"fmt"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "nil stays nil",
			err:  nil,
			want: nil,
		},
		{
			name: "already up to date is success",
			err:  gogit.NoErrAlreadyUpToDate,
			want: nil,
		},
		{
			name: "authentication required",
			err:  transport.ErrAuthenticationRequired,
			want: ErrAuth,
		},
		{
			name: "authorization failed",
			err:  fmt.Errorf("remote: %w", transport.ErrAuthorizationFailed),
			want: ErrAuth,
		},
		{
			name: "non fast forward",
			err:  errors.New("non-fast-forward update: refs/heads/main"),
			want: ErrConflict,
		},
		{
			name: "connection refused",
			err:  errors.New("dial tcp 127.0.0.1:443: connect: connection refused"),
			want: ErrNetwork,
		},
		{
			name: "unknown host",
			err:  errors.New("Get \"https://nope.invalid\": dial tcp: lookup nope.invalid: no such host"),
			want: ErrNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestKind(t *testing.T) {
	assert.Equal(t, KindNone, Kind(nil))
	assert.Equal(t, KindAuth, Kind(Classify(transport.ErrAuthenticationRequired)))
	assert.Equal(t, KindConflict, Kind(Classify(errors.New("non-fast-forward update"))))
	assert.Equal(t, KindNetwork, Kind(Classify(errors.New("no such host"))))
	assert.Equal(t, KindOther, Kind(errors.New("boom")))
}
