package l1

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRef(t *testing.T) {
	ref := Ref{Type: DefaultType, ID: "abc"}
	require.True(t, ref.IsValid())
	require.Equal(t, "brick/abc/state", ref.StateTopic())
	require.Equal(t, "brick/abc/cmd", ref.CommandTopic())
	require.False(t, Ref{Type: DefaultType}.IsValid())
}
