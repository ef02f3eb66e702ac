package flowbench

import "math"

// ItemStatus is the lifecycle state of a WorkItem. Transitions are
// Waiting → InProgress → Completed, driven only by the owning queue.
type ItemStatus int

const (
	ItemWaiting ItemStatus = iota
	ItemInProgress
	ItemCompleted
)

func (s ItemStatus) String() string {
	switch s {
	case ItemWaiting:
		return "waiting"
	case ItemInProgress:
		return "in_progress"
	case ItemCompleted:
		return "completed"
	}
	return "unknown"
}

// WorkItem is a discrete unit of work flowing through the pipeline.
// Timestamps are model time (days), supplied by the owning queue.
type WorkItem struct {
	ID      string
	Value   float64 // business value, $
	Urgency float64 // cost of delay, $ per day
	Size    float64 // effort (story points, hours, ...)

	CreatedTime   float64
	StartedTime   float64 // meaningful once status ≥ InProgress
	CompletedTime float64 // meaningful once status == Completed

	Status ItemStatus
}

// CostOfDelay returns the delay cost accumulated so far: urgency × age,
// where age stops growing at completion.
func (w *WorkItem) CostOfDelay(now float64) float64 {
	end := now
	if w.Status == ItemCompleted {
		end = w.CompletedTime
	}
	return (end - w.CreatedTime) * w.Urgency
}

// PipelineQueue is a FIFO, WIP-bounded, batch-admitting queue in front of
// one pipeline stage.
//
// All items live in a single arena slice ordered by arrival; each carries a
// status tag, and per-status counters keep the WIP invariant
// (waiting + inProgress ≤ MaxWIP) trivially checkable. There is no second
// list to keep in sync.
//
// Time never advances on its own: the caller moves it with AdvanceTime.
type PipelineQueue struct {
	StageName string
	MaxWIP    int // 0 means unlimited
	BatchSize int // ≥ 1

	now        float64
	items      []*WorkItem // arrival order; completed items are removed
	waiting    int
	inProgress int
}

// NewPipelineQueue returns an empty queue. A batch size below 1 is raised
// to 1; maxWIP 0 disables the WIP cap.
func NewPipelineQueue(stageName string, maxWIP, batchSize int) *PipelineQueue {
	if batchSize < 1 {
		batchSize = 1
	}
	return &PipelineQueue{
		StageName: stageName,
		MaxWIP:    maxWIP,
		BatchSize: batchSize,
	}
}

// AdvanceTime sets the queue's current model time (days).
func (q *PipelineQueue) AdvanceTime(t float64) { q.now = t }

// Now returns the queue's current model time.
func (q *PipelineQueue) Now() float64 { return q.now }

// WaitingCount returns the number of items not yet started.
func (q *PipelineQueue) WaitingCount() int { return q.waiting }

// InProgressCount returns the number of items being worked.
func (q *PipelineQueue) InProgressCount() int { return q.inProgress }

// Occupancy returns total items held (waiting + in progress).
func (q *PipelineQueue) Occupancy() int { return q.waiting + q.inProgress }

// CanAcceptWork reports whether the WIP cap allows another item.
func (q *PipelineQueue) CanAcceptWork() bool {
	if q.MaxWIP == 0 {
		return true
	}
	return q.Occupancy() < q.MaxWIP
}

// AddWorkItem admits the item if the WIP cap allows, stamping its creation
// time. Returns false on rejection; the queue never blocks — retry and
// backoff belong to the caller.
func (q *PipelineQueue) AddWorkItem(item *WorkItem) bool {
	if !q.CanAcceptWork() {
		return false
	}
	item.Status = ItemWaiting
	item.CreatedTime = q.now
	q.items = append(q.items, item)
	q.waiting++
	return true
}

// StartWork moves up to min(capacity − inProgress, waiting, BatchSize)
// items from waiting to in-progress, FIFO, stamping their start time. The
// batch size bounds how many items a single call can release even when
// capacity allows more.
func (q *PipelineQueue) StartWork(capacity int) []*WorkItem {
	n := capacity - q.inProgress
	if q.waiting < n {
		n = q.waiting
	}
	if q.BatchSize < n {
		n = q.BatchSize
	}
	if n <= 0 {
		return nil
	}

	started := make([]*WorkItem, 0, n)
	for _, item := range q.items {
		if len(started) == n {
			break
		}
		if item.Status != ItemWaiting {
			continue
		}
		item.Status = ItemInProgress
		item.StartedTime = q.now
		started = append(started, item)
	}
	q.waiting -= len(started)
	q.inProgress += len(started)
	return started
}

// CompleteWork stamps completion time on each in-progress item and removes
// it from the queue. Items the queue does not hold are ignored.
func (q *PipelineQueue) CompleteWork(items []*WorkItem) {
	done := make(map[*WorkItem]bool, len(items))
	for _, item := range items {
		done[item] = true
	}

	kept := q.items[:0]
	for _, item := range q.items {
		if item.Status == ItemInProgress && done[item] {
			item.Status = ItemCompleted
			item.CompletedTime = q.now
			q.inProgress--
			continue
		}
		kept = append(kept, item)
	}
	q.items = kept
}

// TotalCostOfDelay sums urgency × age over every item the queue holds — the
// running economic penalty of work sitting in the system.
func (q *PipelineQueue) TotalCostOfDelay() float64 {
	var total float64
	for _, item := range q.items {
		total += item.CostOfDelay(q.now)
	}
	return total
}

// Metrics returns a snapshot of queue performance estimated from current
// state. Rates are rough: arrival is occupancy over elapsed time, service
// is assumed slightly above arrival. Historical data would sharpen both.
func (q *PipelineQueue) Metrics() QueueMetrics {
	total := q.Occupancy()
	if total == 0 {
		return QueueMetrics{ServiceRate: 1.0}
	}

	var urgencySum float64
	for _, item := range q.items {
		urgencySum += item.Urgency
	}
	avgUrgency := urgencySum / float64(total)

	elapsed := q.now
	if elapsed < 1.0 {
		elapsed = 1.0
	}
	arrivalRate := float64(total) / elapsed
	serviceRate := arrivalRate * 1.1
	if serviceRate < 1.0 {
		serviceRate = 1.0
	}

	utilization := arrivalRate / serviceRate
	if utilization > 0.99 {
		utilization = 0.99
	}

	// Wait time is drain time of the current backlog, not the steady-state
	// M/M/1 figure: these rates are too rough for that.
	avgWait := float64(q.waiting) / serviceRate

	return QueueMetrics{
		ArrivalRate:        arrivalRate,
		ServiceRate:        serviceRate,
		Utilization:        utilization,
		AvgQueueLength:     float64(q.waiting),
		AvgWaitTime:        avgWait,
		AvgSystemTime:      avgWait + 1/serviceRate,
		CostOfDelayPerItem: avgUrgency,
		QueueCostPerDay:    float64(q.waiting) * avgUrgency,
	}
}

// DefaultCostOfDelay is the reference cost of delay per item per day.
const DefaultCostOfDelay = 1000.0

// QueueMetrics holds M/M/1 queue performance figures. Derived fields are
// computed once by NewQueueMetrics and never mutated.
type QueueMetrics struct {
	ArrivalRate float64 // λ, items per day
	ServiceRate float64 // μ, items per day
	Utilization float64 // ρ = λ/μ, pinned to 1.0 when unstable

	AvgQueueLength float64 // L = ρ²/(1−ρ)
	AvgWaitTime    float64 // W = L/λ, days
	AvgSystemTime  float64 // W + 1/μ, days

	CostOfDelayPerItem float64 // $ per item per day
	QueueCostPerDay    float64 // L × cost of delay
}

// NewQueueMetrics derives M/M/1 performance from arrival rate λ and service
// rate μ. When μ ≤ λ the queue grows without bound: utilization pins to 1.0
// and length/wait/system time/cost become +Inf — a well-defined sentinel the
// caller must branch on, never a NaN or an error.
func NewQueueMetrics(arrivalRate, serviceRate, costOfDelayPerItem float64) (QueueMetrics, error) {
	if err := ValidatePositive(arrivalRate, "arrival_rate"); err != nil {
		return QueueMetrics{}, err
	}
	if err := ValidatePositive(serviceRate, "service_rate"); err != nil {
		return QueueMetrics{}, err
	}

	m := QueueMetrics{
		ArrivalRate:        arrivalRate,
		ServiceRate:        serviceRate,
		CostOfDelayPerItem: costOfDelayPerItem,
	}

	if serviceRate <= arrivalRate {
		inf := math.Inf(1)
		m.Utilization = 1.0
		m.AvgQueueLength = inf
		m.AvgWaitTime = inf
		m.AvgSystemTime = inf
		m.QueueCostPerDay = inf
		return m, nil
	}

	rho := arrivalRate / serviceRate
	m.Utilization = rho
	m.AvgQueueLength = rho * rho / (1 - rho)
	m.AvgWaitTime = m.AvgQueueLength / arrivalRate
	m.AvgSystemTime = m.AvgWaitTime + 1/serviceRate
	m.QueueCostPerDay = m.AvgQueueLength * costOfDelayPerItem
	return m, nil
}

// Stable reports whether the queue is in the stable regime (ρ < 1). When
// false, length/wait/cost carry the +Inf sentinel.
func (m QueueMetrics) Stable() bool {
	return !math.IsInf(m.AvgQueueLength, 1)
}

// ApplyLittlesLaw returns lead time = WIP / throughput. A zero throughput
// yields def rather than an error — a stalled stage is a modeling state,
// not an exception.
func ApplyLittlesLaw(avgWIP, throughput, def float64) float64 {
	return SafeDivide(avgWIP, throughput, def, "littles law")
}

// FlowEfficiencyRatio returns value-add time over total lead time. Most
// product development sits below 25%; the gap is queue time.
func FlowEfficiencyRatio(valueAddTime, totalLeadTime float64) float64 {
	return SafeDivide(valueAddTime, totalLeadTime, 0.0, "flow efficiency")
}
