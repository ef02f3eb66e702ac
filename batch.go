package flowbench

import "math"

// OptimalBatchSize balances transaction cost against holding cost using the
// economic batch size formula:
//
//	batch = sqrt(2 × transactionCost × demandRate / holdingCostPerItem)
//
// scaled down by 1/(1+variability) — higher coefficient of variation favors
// smaller batches. Degenerates to 1 whenever holding cost or demand rate is
// non-positive.
func OptimalBatchSize(transactionCost, holdingCostPerItem, demandRate, variability float64) int {
	if holdingCostPerItem <= 0 || demandRate <= 0 {
		return 1
	}

	economic := math.Sqrt(2 * transactionCost * demandRate / holdingCostPerItem)
	optimal := economic / (1 + variability)

	if optimal < 1 {
		return 1
	}
	return int(optimal)
}

// BatchDelayCost prices the wait batching imposes: items must wait for the
// whole batch to clear, so the average item waits processing×(batch−1)/2.
//
//	cost = avgDelay × itemUrgency × batchSize
func BatchDelayCost(batchSize int, itemUrgency, processingTime float64) float64 {
	avgDelay := processingTime * float64(batchSize-1) / 2
	return avgDelay * itemUrgency * float64(batchSize)
}
