package transform

import (
	"math"
	"math/big"
	"strconv"

	"github.com/fredbi/runviz/internal/pkg/model"
)

const smoothingDecimals = 4

// Smooth applies an exponential moving average to the y values of a series.
//
// The weight is a percentage: each smoothed value is
//
//	y'[i] = y[i]*(1-w) + y'[i-1]*w
//
// seeded with the first raw value and rounded to 4 decimals. The x values are unchanged.
// A weight lower than or equal to 0 returns the series as is.
func Smooth(series model.Series, weightPercent int) model.Series {
	if weightPercent <= 0 || len(series.Data) == 0 {
		return series
	}

	w := float64(weightPercent) / 100
	smoothed := make([]model.Point, len(series.Data))
	smoothed[0] = series.Data[0]

	for i := 1; i < len(series.Data); i++ {
		ema := series.Data[i].Y*(1-w) + smoothed[i-1].Y*w
		smoothed[i] = model.Point{
			X: series.Data[i].X,
			Y: RoundHalfAway(ema, smoothingDecimals),
		}
	}

	out := series
	out.Data = smoothed

	return out
}

// RoundHalfAway rounds the exact decimal value of v to the given number of decimals,
// with ties rounded away from zero.
func RoundHalfAway(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	const prec = 256 // exact for a float64 scaled by a power of 10 up to 1e20

	scale := new(big.Float).SetPrec(prec).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	scaled := new(big.Float).SetPrec(prec).SetFloat64(math.Abs(v))
	scaled.Mul(scaled, scale)

	whole, _ := scaled.Int(nil) // truncated
	frac := new(big.Float).SetPrec(prec).Sub(scaled, new(big.Float).SetPrec(prec).SetInt(whole))

	if frac.Cmp(big.NewFloat(0.5)) != 0 {
		// no tie: the shortest correctly rounded decimal is the answer
		r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)

		return r
	}

	whole.Add(whole, big.NewInt(1))
	rounded, _ := new(big.Float).SetPrec(prec).Quo(new(big.Float).SetPrec(prec).SetInt(whole), scale).Float64()

	return math.Copysign(rounded, v)
}
