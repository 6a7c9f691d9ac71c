package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMetabonding_Amount_Parse(t *testing.T) {
	t.Parallel()

	v, err := Parse("123456789012345678901234567890")
	require.NoError(t, err)
	require.Equal(t, "123456789012345678901234567890", v.String())

	v, err = Parse(" 0 ")
	require.NoError(t, err)
	require.Zero(t, v.Sign())

	for _, in := range []string{"", "-1", "1.5", "0x10", "abc"} {
		_, err := Parse(in)
		require.ErrorIs(t, err, ErrInvalid, in)
	}
}

func TestMetabonding_Amount_ParseOrZero(t *testing.T) {
	t.Parallel()

	v, err := ParseOrZero("")
	require.NoError(t, err)
	require.Zero(t, v.Sign())

	_, err = ParseOrZero("-3")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestMetabonding_Amount_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Validate("x", big.NewInt(0)))
	require.ErrorIs(t, Validate("x", nil), ErrInvalid)
	require.ErrorIs(t, Validate("x", big.NewInt(-1)), ErrInvalid)
	require.Zero(t, OrZero(nil).Sign())
}
