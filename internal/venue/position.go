package venue

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/elys-network/clexec/internal/clmath"
	"github.com/elys-network/clexec/internal/types"
)

type position struct {
	id                       types.PositionID
	owner                    common.Address
	pool                     common.Address
	bounds                   types.Bounds
	liquidity                *uint256.Int
	feeGrowthInside0LastX128 *uint256.Int
	feeGrowthInside1LastX128 *uint256.Int
	tokensOwed0              *uint256.Int
	tokensOwed1              *uint256.Int
}

func newPosition(id types.PositionID, owner, pool common.Address, bounds types.Bounds) *position {
	return &position{
		id:                       id,
		owner:                    owner,
		pool:                     pool,
		bounds:                   bounds,
		liquidity:                new(uint256.Int),
		feeGrowthInside0LastX128: new(uint256.Int),
		feeGrowthInside1LastX128: new(uint256.Int),
		tokensOwed0:              new(uint256.Int),
		tokensOwed1:              new(uint256.Int),
	}
}

func (p *position) clone() *position {
	return &position{
		id:                       p.id,
		owner:                    p.owner,
		pool:                     p.pool,
		bounds:                   p.bounds,
		liquidity:                p.liquidity.Clone(),
		feeGrowthInside0LastX128: p.feeGrowthInside0LastX128.Clone(),
		feeGrowthInside1LastX128: p.feeGrowthInside1LastX128.Clone(),
		tokensOwed0:              p.tokensOwed0.Clone(),
		tokensOwed1:              p.tokensOwed1.Clone(),
	}
}

// update credits fees earned since the last touch and applies the liquidity change.
func (p *position) update(amount *uint256.Int, add bool, inside0, inside1 *uint256.Int) {
	delta0 := new(uint256.Int).Sub(inside0, p.feeGrowthInside0LastX128)
	delta1 := new(uint256.Int).Sub(inside1, p.feeGrowthInside1LastX128)
	if !p.liquidity.IsZero() {
		p.tokensOwed0 = clmath.CheckedAdd(p.tokensOwed0, clmath.MulDiv(delta0, p.liquidity, clmath.Q128))
		p.tokensOwed1 = clmath.CheckedAdd(p.tokensOwed1, clmath.MulDiv(delta1, p.liquidity, clmath.Q128))
	}
	p.feeGrowthInside0LastX128 = inside0.Clone()
	p.feeGrowthInside1LastX128 = inside1.Clone()

	if add {
		p.liquidity = clmath.CheckedAdd(p.liquidity, amount)
		if p.liquidity.Gt(clmath.MaxUint128) {
			panic(types.ErrArithmeticOverflow)
		}
	} else {
		p.liquidity = clmath.CheckedSub(p.liquidity, amount)
	}
}

// PositionInfo is a read-only view of a venue position.
type PositionInfo struct {
	ID          types.PositionID `json:"id"`
	Owner       common.Address   `json:"owner"`
	Pool        common.Address   `json:"pool"`
	Bounds      types.Bounds     `json:"bounds"`
	Liquidity   *uint256.Int     `json:"liquidity"`
	TokensOwed0 *uint256.Int     `json:"tokens_owed0"`
	TokensOwed1 *uint256.Int     `json:"tokens_owed1"`
}

func (p *position) info() PositionInfo {
	return PositionInfo{
		ID:          p.id,
		Owner:       p.owner,
		Pool:        p.pool,
		Bounds:      p.bounds,
		Liquidity:   p.liquidity.Clone(),
		TokensOwed0: p.tokensOwed0.Clone(),
		TokensOwed1: p.tokensOwed1.Clone(),
	}
}
