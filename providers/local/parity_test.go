package local_test

import (
	"testing"

	"github.com/ruffel/hostkit"
	"github.com/ruffel/hostkit/hostkittest"
	"github.com/ruffel/hostkit/providers/local"
	"github.com/stretchr/testify/require"
)

func TestLocalParity(t *testing.T) {
	t.Parallel()

	hostkittest.Verify(t, func(t *testing.T) hostkit.Environment {
		env, err := local.New()
		require.NoError(t, err)

		return env
	})
}
