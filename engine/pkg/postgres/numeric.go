package postgres

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/malbeclabs/metabonding/engine/pkg/amount"
)

var ten = big.NewInt(10)

func toNumeric(v *big.Int) pgtype.Numeric {
	return pgtype.Numeric{Int: new(big.Int).Set(amount.OrZero(v)), Exp: 0, Valid: true}
}

// fromNumeric converts a NUMERIC(78, 0) value, normalizing the exponent pgx
// uses for trailing zeros.
func fromNumeric(n pgtype.Numeric) (*big.Int, error) {
	if !n.Valid {
		return nil, errors.New("numeric is null")
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil, errors.New("numeric is not finite")
	}
	v := new(big.Int).Set(amount.OrZero(n.Int))
	switch {
	case n.Exp > 0:
		v.Mul(v, new(big.Int).Exp(ten, big.NewInt(int64(n.Exp)), nil))
	case n.Exp < 0:
		var rem big.Int
		v.QuoRem(v, new(big.Int).Exp(ten, big.NewInt(int64(-n.Exp)), nil), &rem)
		if rem.Sign() != 0 {
			return nil, fmt.Errorf("numeric %s has a fractional part", n.Int.String())
		}
	}
	return v, nil
}
