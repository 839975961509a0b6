package indicators

import (
	"math"

	"macd-scan-go/src/models"
)

// BlockWindow is the maximum number of bars, ending at the evaluated bar,
// that are segmented into blocks.
const BlockWindow = 101

// SegmentBlocks run-length encodes the sign of a histogram window into
// blocks, oldest first. A zero reading inherits the sign of the element
// before it so flat readings don't split a run; a leading zero keeps sign 0.
func SegmentBlocks(hist []float64) []models.Block {
	if len(hist) == 0 {
		return nil
	}

	signs := make([]int, len(hist))
	for i, h := range hist {
		signs[i] = sign(h)
		if signs[i] == 0 && i > 0 {
			signs[i] = signs[i-1]
		}
	}

	var blocks []models.Block
	start := 0
	for i := 1; i <= len(signs); i++ {
		if i < len(signs) && signs[i] == signs[start] {
			continue
		}
		blocks = append(blocks, models.Block{
			Sign:  signs[start],
			Start: start,
			End:   i - 1,
			Len:   i - start,
		})
		start = i
	}
	return blocks
}

// BlockMin returns the minimum of values over the block's span.
func BlockMin(values []float64, b models.Block) float64 {
	min := math.Inf(1)
	for _, v := range values[b.Start : b.End+1] {
		if v < min {
			min = v
		}
	}
	return min
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
