package model

import "time"

// RunStats accumulates counters for one batch run. The batch runner creates
// it at start, updates it after every row and returns it with the output.
type RunStats struct {
	RunID        string        `json:"run_id"`
	Mode         string        `json:"mode"`
	Total        int           `json:"total"`
	Processed    int           `json:"processed"`
	Resumed      int           `json:"resumed"`
	Errors       int           `json:"errors"`
	Fallbacks    int           `json:"fallbacks"`
	Reclassified int           `json:"reclassified"`
	Checkpoints  int           `json:"checkpoints"`
	Cost         float64       `json:"cost_usd"`
	Usage        TokenUsage    `json:"token_usage"`
	Elapsed      time.Duration `json:"elapsed"`
	Stopped      bool          `json:"stopped"`
}

// Throughput returns rows classified per second during this run, excluding
// rows restored from a checkpoint.
func (s RunStats) Throughput() float64 {
	done := s.Processed - s.Resumed
	if s.Elapsed <= 0 || done <= 0 {
		return 0
	}
	return float64(done) / s.Elapsed.Seconds()
}

// ETA estimates the time left from the current throughput.
func (s RunStats) ETA() time.Duration {
	speed := s.Throughput()
	if speed <= 0 {
		return 0
	}
	remaining := s.Total - s.Processed
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining) / speed * float64(time.Second))
}

// Percent returns the completed share in [0, 100].
func (s RunStats) Percent() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Processed) / float64(s.Total) * 100
}

// TokenUsage tracks tokens reported by remote providers.
type TokenUsage struct {
	Calls        int   `json:"calls"`
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	CacheRead    int64 `json:"cache_read_tokens"`
	CacheWrite   int64 `json:"cache_write_tokens"`
}

// Add merges token usage from another instance.
func (t *TokenUsage) Add(other TokenUsage) {
	t.Calls += other.Calls
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.CacheRead += other.CacheRead
	t.CacheWrite += other.CacheWrite
}
