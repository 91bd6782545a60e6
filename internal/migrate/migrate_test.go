package migrate

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("up")
	require.NoError(t, err)
	require.Equal(t, Up, d)

	d, err = ParseDirection("down")
	require.NoError(t, err)
	require.Equal(t, Down, d)

	_, err = ParseDirection("sideways")
	require.Error(t, err)
}

func TestSourceListsEmbeddedMigrations(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	var versions []uint
	v, err := src.First()
	require.NoError(t, err)
	for {
		versions = append(versions, v)
		next, err := src.Next(v)
		if err != nil {
			break
		}
		v = next
	}
	require.Equal(t, []uint{1, 2, 3}, versions)

	r, _, err := src.ReadUp(3)
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	require.True(t, strings.Contains(strings.ToLower(string(body)), "songs"))

	down, _, err := src.ReadDown(1)
	require.NoError(t, err)
	down.Close()
}
