package models

// Signal is the actionable output of the threshold strategy
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalWait Signal = "WAIT"
)

// Regime labels the trend from close vs the 50 and 200 day averages
type Regime string

const (
	RegimeBull    Regime = "bull"
	RegimeBear    Regime = "bear"
	RegimeNeutral Regime = "neutral"
	RegimeUnknown Regime = "unknown"
)

// Decision is what a classifier strategy concluded for one row
type Decision struct {
	Strategy string `json:"strategy"`
	Signal   Signal `json:"signal,omitempty"`
	Reason   string `json:"reason"`

	// Decision table strategy only
	Message     string `json:"message,omitempty"`
	Bucket      string `json:"bucket,omitempty"`
	TableRegime string `json:"table_regime,omitempty"`
}

// Key identifies the decision for change detection: the signal when the
// strategy emits one, otherwise the recommendation text.
func (d Decision) Key() string {
	if d.Signal != "" {
		return string(d.Signal)
	}
	return d.Message
}

// SignalRow is a feature row annotated with its decision and regime
type SignalRow struct {
	FeatureRow
	Decision Decision `json:"decision"`
	Regime   Regime   `json:"regime"`
}

// Change is the outcome of comparing the two most recent rows
type Change struct {
	Notify   bool      `json:"notify"`
	Previous SignalRow `json:"previous"`
	Current  SignalRow `json:"current"`
}

// Channel is a notification target
type Channel struct {
	ChatID string `json:"chat_id" db:"chat_id"`
	Debug  bool   `json:"debug" db:"debug"`
}

// RunStatus is the terminal state of one pipeline invocation
type RunStatus string

const (
	StatusNotified  RunStatus = "notified"
	StatusUnchanged RunStatus = "unchanged"
	StatusSkipped   RunStatus = "skipped"
	StatusDryRun    RunStatus = "dry_run"

	// StatusDeliveryFailed means a change was computed but no subscriber got
	// it; the run lock is released so the day can be retried
	StatusDeliveryFailed RunStatus = "delivery_failed"
)

// RunResult summarizes one invocation
type RunResult struct {
	Status            RunStatus   `json:"status"`
	Ticker            string      `json:"ticker"`
	Strategy          string      `json:"strategy"`
	Rows              []SignalRow `json:"rows"`
	Change            *Change     `json:"change,omitempty"`
	SentimentDegraded bool        `json:"sentiment_degraded"`
	Delivered         int         `json:"delivered"`
	DeliveryErrors    []error     `json:"-"`
}
