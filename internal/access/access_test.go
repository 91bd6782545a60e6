package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type record struct {
	id    int
	owner int64
}

func (r record) OwnerID() int64 { return r.owner }

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		p      Principal
		record record
		want   Decision
	}{
		{name: "owner", p: Principal{UserID: 7}, record: record{owner: 7}, want: Allow},
		{name: "other user", p: Principal{UserID: 8}, record: record{owner: 7}, want: Deny},
		{name: "anonymous", p: Principal{}, record: record{owner: 0}, want: Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Authorize(tt.p, tt.record))
		})
	}
}

func TestFilterKeepsOwnedInOrder(t *testing.T) {
	records := []record{{1, 1}, {2, 2}, {3, 1}, {4, 3}, {5, 1}}

	got := Filter(Principal{UserID: 1}, records)

	require.Equal(t, []record{{1, 1}, {3, 1}, {5, 1}}, got)
}

func TestFilterNeverNil(t *testing.T) {
	got := Filter[record](Principal{UserID: 1}, nil)
	require.NotNil(t, got)
	require.Empty(t, got)
}
