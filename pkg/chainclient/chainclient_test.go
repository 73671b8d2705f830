package chainclient

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUserRejection(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "sentinel", err: ErrUserRejected, expected: true},
		{name: "wrapped sentinel", err: fmt.Errorf("send: %w", ErrUserRejected), expected: true},
		{name: "metamask wording", err: errors.New("MetaMask Tx Signature: User denied transaction signature"), expected: true},
		{name: "generic wording", err: errors.New("request rejected by user"), expected: true},
		{name: "broadcast failure", err: ErrBroadcastFailed, expected: false},
		{name: "unrelated", err: errors.New("nonce too low"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsUserRejection(tt.err))
		})
	}
}
