package bouquet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddRevealsInOrderThenStops(t *testing.T) {
	b := New()
	require.Empty(t, b.Revealed())
	require.False(t, b.Complete())

	for i, want := range Flowers {
		got, ok := b.Add()
		require.True(t, ok)
		require.Equal(t, want, got)
		require.Len(t, b.Revealed(), i+1)
	}
	require.True(t, b.Complete())

	_, ok := b.Add()
	require.False(t, ok)
	require.Len(t, b.Revealed(), len(Flowers))
}

func TestResetHidesEverything(t *testing.T) {
	b := New()
	b.Add()
	b.Add()
	b.Reset()
	require.Empty(t, b.Revealed())

	got, ok := b.Add()
	require.True(t, ok)
	require.Equal(t, "rose", got.Kind)
}

func TestRevealedIsACopy(t *testing.T) {
	b := New()
	b.Add()
	shown := b.Revealed()
	shown[0].Message = "changed"
	require.Equal(t, Flowers[0].Message, b.Revealed()[0].Message)
}
