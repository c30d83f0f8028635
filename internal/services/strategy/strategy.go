package strategy

import "github.com/foreverwb/volatility-analysis/internal/domain/models"

// Info is the playbook text attached to a result.
type Info struct {
	Strategy string
	Risk     string
}

var playbook = map[models.Quadrant]Info{
	models.QuadrantBullBuyVol: {
		Strategy: "Long calls or call debit spreads; call calendars/diagonals into events; small straddle allocations when IV sits low ahead of a catalyst",
		Risk:     "A missed catalyst or IV retreat bleeds both time value and vol premium; watch term structure and slippage",
	},
	models.QuadrantBullSellVol: {
		Strategy: "Sell put spreads or cash-secured puts; bullish iron condors or covered calls",
		Risk:     "A surprise selloff hits short puts hard; prefer winged structures to cap the tail",
	},
	models.QuadrantBearBuyVol: {
		Strategy: "Long puts or put debit spreads; bearish calendars/diagonals; small straddles when IV is depressed",
		Risk:     "A bounce or IV retreat erodes the position; manage theta via tenor and delta",
	},
	models.QuadrantBearSellVol: {
		Strategy: "Call credit spreads or covered calls; bearish iron condors",
		Risk:     "Squeeze risk on short calls; go further out of the money and add wings against the tail",
	},
	models.QuadrantNeutralWatch: {
		Strategy: "Stand aside, or run delta-neutral structures such as iron condors/butterflies",
		Risk:     "No directional edge; wait for a clearer signal",
	},
}

// For composes the strategy text for a quadrant, prepending the squeeze call
// to action and appending the thin-liquidity execution warning when they
// apply.
func For(quadrant models.Quadrant, liquidity models.LiquidityTier, isSqueeze bool) Info {
	info, ok := playbook[quadrant]
	if !ok {
		info = playbook[models.QuadrantNeutralWatch]
	}

	if isSqueeze {
		info.Strategy = "Gamma squeeze setup: long calls to ride the expansion. " + info.Strategy
		info.Risk += "; squeeze moves can reverse fast, use a trailing stop"
	}
	if liquidity == models.LiquidityLow {
		info.Risk += "; thin liquidity, keep legs few and near the money, use limit orders and smaller size"
	}
	return info
}
