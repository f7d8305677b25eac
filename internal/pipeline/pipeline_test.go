package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/selivandex/fng-signal/internal/adapters/config"
	"github.com/selivandex/fng-signal/internal/adapters/price"
	"github.com/selivandex/fng-signal/internal/adapters/redis"
	"github.com/selivandex/fng-signal/internal/adapters/telegram"
	"github.com/selivandex/fng-signal/internal/channels"
	"github.com/selivandex/fng-signal/internal/features"
	"github.com/selivandex/fng-signal/internal/strategy"
	"github.com/selivandex/fng-signal/pkg/models"
	"github.com/selivandex/fng-signal/pkg/retry"
)

var firstDay = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(i int) time.Time {
	return firstDay.AddDate(0, 0, i)
}

// risingPrices returns n daily rows with close = 100 + i
func risingPrices(n int) []models.PricePoint {
	points := make([]models.PricePoint, n)
	for i := range points {
		points[i] = models.PricePoint{Date: day(i), Close: models.NewDecimal(float64(100 + i))}
	}
	return points
}

type fakePrices struct {
	mu     sync.Mutex
	points []models.PricePoint
	errs   []error // returned in order, then nil
	calls  int
}

func (f *fakePrices) GetName() string { return "fake" }

func (f *fakePrices) FetchHistory(ctx context.Context, ticker string, lookback int) ([]models.PricePoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.points, nil
}

type fakeSentiment struct {
	payload []byte
	err     error
}

func (f *fakeSentiment) FetchHistory(ctx context.Context, start time.Time) ([]byte, error) {
	return f.payload, f.err
}

// sentimentPayload builds a CNN-shaped payload with one reading per day index
func sentimentPayload(values map[int]int) []byte {
	var records []string
	for i, v := range values {
		records = append(records, fmt.Sprintf(`{"x":%d,"y":%d}`, day(i).UnixMilli(), v))
	}
	return []byte(`{"fear_and_greed_historical":{"data":[` + strings.Join(records, ",") + `]}}`)
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  map[string][]string
	fails map[string]error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(map[string][]string), fails: make(map[string]error)}
}

func (f *fakeNotifier) Send(ctx context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fails[chatID]; err != nil {
		return err
	}
	f.sent[chatID] = append(f.sent[chatID], text)
	return nil
}

type fakeLock struct {
	name     string
	held     bool
	released int
}

func (l *fakeLock) TryAcquire(ctx context.Context) (bool, error) {
	return !l.held, nil
}

func (l *fakeLock) Release(ctx context.Context) error {
	l.released++
	return nil
}

func (l *fakeLock) Name() string {
	return l.name
}

type fakeLocks struct {
	held  bool
	locks []*fakeLock
}

func (f *fakeLocks) CreateRunLock(ticker string, d time.Time) redis.RunLock {
	lock := &fakeLock{name: redis.RunLockName(ticker, d), held: f.held}
	f.locks = append(f.locks, lock)
	return lock
}

type fixture struct {
	prices      *fakePrices
	sentiment   *fakeSentiment
	notifier    *fakeNotifier
	locks       *fakeLocks
	opts        Options
	strategy    string
	subscribers []string
}

func newFixture() *fixture {
	return &fixture{
		prices:      &fakePrices{points: risingPrices(260)},
		sentiment:   &fakeSentiment{payload: sentimentPayload(map[int]int{258: 70, 259: 30})},
		notifier:    newFakeNotifier(),
		locks:       &fakeLocks{},
		subscribers: []string{"@main"},
		opts: Options{
			Ticker:        "SPY",
			LookbackDays:  260,
			SentimentDays: 30,
			Retry:         retry.Policy{Attempts: 1},
		},
		strategy: strategy.NameThreshold,
	}
}

func (f *fixture) pipeline(t *testing.T) *Pipeline {
	t.Helper()

	classifier, err := strategy.New(f.strategy)
	if err != nil {
		t.Fatalf("strategy.New failed: %v", err)
	}
	renderer, err := telegram.NewTemplateManager()
	if err != nil {
		t.Fatalf("NewTemplateManager failed: %v", err)
	}

	p := New(f.opts, Deps{
		Prices:     f.prices,
		Sentiment:  f.sentiment,
		Classifier: classifier,
		Channels: channels.NewStaticSource(&config.TelegramConfig{
			Channels:      f.subscribers,
			DebugChannels: []string{"@debug"},
		}),
		Notifier: f.notifier,
		Renderer: renderer,
		Locks:    f.locks,
	})
	p.now = func() time.Time { return time.Date(2024, 9, 17, 22, 0, 0, 0, time.UTC) }
	return p
}

func TestExecute_NotifiesOnChange(t *testing.T) {
	f := newFixture()

	result, err := f.pipeline(t).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Status != models.StatusNotified {
		t.Errorf("Expected notified, got %s", result.Status)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(result.Rows))
	}
	if !result.Rows[1].Date.Equal(day(259)) {
		t.Errorf("Expected latest row %v, got %v", day(259), result.Rows[1].Date)
	}
	if result.Change.Previous.Decision.Signal != models.SignalWait || result.Change.Current.Decision.Signal != models.SignalBuy {
		t.Errorf("Expected WAIT -> BUY, got %+v", result.Change)
	}
	if result.Change.Current.Regime != models.RegimeBull {
		t.Errorf("Expected bull regime, got %s", result.Change.Current.Regime)
	}

	if result.Delivered != 2 || len(result.DeliveryErrors) != 0 {
		t.Errorf("Expected 2 deliveries, got %d (errors %v)", result.Delivered, result.DeliveryErrors)
	}
	if msgs := f.notifier.sent["@main"]; len(msgs) != 1 || !strings.Contains(msgs[0], "WAIT → BUY") {
		t.Errorf("Unexpected subscriber messages %v", msgs)
	}
	if msgs := f.notifier.sent["@debug"]; len(msgs) != 1 || !strings.Contains(msgs[0], "Notify: true") {
		t.Errorf("Unexpected debug messages %v", msgs)
	}

	if len(f.locks.locks) != 1 || f.locks.locks[0].name != "signal:run:SPY:2024-09-17" {
		t.Errorf("Unexpected locks %+v", f.locks.locks)
	}
	if f.locks.locks[0].released != 0 {
		t.Error("Lock should be kept after a successful run")
	}
}

func TestExecute_UnchangedOnlyDebug(t *testing.T) {
	f := newFixture()
	f.sentiment.payload = sentimentPayload(map[int]int{258: 30, 259: 25})

	result, err := f.pipeline(t).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Status != models.StatusUnchanged {
		t.Errorf("Expected unchanged, got %s", result.Status)
	}
	if len(f.notifier.sent["@main"]) != 0 {
		t.Error("Subscribers must not be notified without a change")
	}
	if len(f.notifier.sent["@debug"]) != 1 {
		t.Error("Debug channel always gets the context message")
	}
}

func TestExecute_NotifyAlways(t *testing.T) {
	f := newFixture()
	f.sentiment.payload = sentimentPayload(map[int]int{258: 30, 259: 25})
	f.opts.NotifyAlways = true

	result, err := f.pipeline(t).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Status != models.StatusNotified || len(f.notifier.sent["@main"]) != 1 {
		t.Errorf("Expected subscriber notification, got status %s and %v", result.Status, f.notifier.sent)
	}
}

func TestExecute_DegradedSentiment(t *testing.T) {
	tests := []struct {
		name      string
		sentiment *fakeSentiment
	}{
		{name: "fetch failure", sentiment: &fakeSentiment{err: errors.New("cnn down")}},
		{name: "malformed payload", sentiment: &fakeSentiment{payload: []byte(`{"unexpected":true}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.sentiment = tt.sentiment

			result, err := f.pipeline(t).Execute(context.Background())
			if err != nil {
				t.Fatalf("Sentiment failure must not be fatal: %v", err)
			}

			if !result.SentimentDegraded {
				t.Error("Expected degraded sentiment")
			}
			for i, row := range result.Rows {
				if row.Sentiment != nil {
					t.Errorf("Row %d: expected null sentiment", i)
				}
				if row.Decision.Signal != models.SignalWait || row.Decision.Reason != strategy.ReasonSentimentUnavailable {
					t.Errorf("Row %d: expected WAIT/%s, got %+v", i, strategy.ReasonSentimentUnavailable, row.Decision)
				}
			}
			if result.Status != models.StatusUnchanged {
				t.Errorf("Expected unchanged, got %s", result.Status)
			}
			if msgs := f.notifier.sent["@debug"]; len(msgs) != 1 || !strings.Contains(msgs[0], "source unavailable") {
				t.Errorf("Unexpected debug messages %v", msgs)
			}
		})
	}
}

func TestExecute_PriceFailureIsFatal(t *testing.T) {
	f := newFixture()
	sentinel := errors.New("yahoo down")
	f.prices.errs = []error{sentinel}

	_, err := f.pipeline(t).Execute(context.Background())
	if !errors.Is(err, sentinel) {
		t.Fatalf("Expected price error, got %v", err)
	}
	if len(f.notifier.sent) != 0 {
		t.Error("Nothing should be sent on a fatal error")
	}
	if f.locks.locks[0].released != 1 {
		t.Error("Lock should be released after a fatal error")
	}
}

func TestExecute_PriceRetried(t *testing.T) {
	f := newFixture()
	f.prices.errs = []error{errors.New("timeout")}
	f.opts.Retry = retry.Policy{Attempts: 2, BaseDelay: time.Millisecond}

	if _, err := f.pipeline(t).Execute(context.Background()); err != nil {
		t.Fatalf("Expected retry to recover, got %v", err)
	}
	if f.prices.calls != 2 {
		t.Errorf("Expected 2 price calls, got %d", f.prices.calls)
	}
}

func TestExecute_NoDataNotRetried(t *testing.T) {
	f := newFixture()
	f.prices.errs = []error{price.ErrNoData, price.ErrNoData, price.ErrNoData}
	f.opts.Retry = retry.Policy{Attempts: 3, BaseDelay: time.Millisecond}

	_, err := f.pipeline(t).Execute(context.Background())
	if !errors.Is(err, price.ErrNoData) {
		t.Fatalf("Expected ErrNoData, got %v", err)
	}
	if f.prices.calls != 1 {
		t.Errorf("Expected 1 price call, got %d", f.prices.calls)
	}
}

func TestExecute_InsufficientHistory(t *testing.T) {
	f := newFixture()
	f.prices.points = risingPrices(200)

	_, err := f.pipeline(t).Execute(context.Background())
	if !errors.Is(err, features.ErrInsufficientHistory) {
		t.Fatalf("Expected ErrInsufficientHistory, got %v", err)
	}
	if !strings.Contains(err.Error(), "found 1 complete rows, need 2") {
		t.Errorf("Error should carry row counts: %v", err)
	}
}

func TestExecute_DryRun(t *testing.T) {
	f := newFixture()
	f.opts.DryRun = true

	result, err := f.pipeline(t).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Status != models.StatusDryRun {
		t.Errorf("Expected dry_run, got %s", result.Status)
	}
	if len(f.notifier.sent) != 0 || result.Delivered != 0 {
		t.Error("Dry run must not send")
	}
	if len(f.locks.locks) != 0 {
		t.Error("Dry run must not take the run lock")
	}
	if !result.Change.Notify {
		t.Error("Dry run still detects the change")
	}
}

func TestExecute_DeliveryErrorsAreCollected(t *testing.T) {
	f := newFixture()
	f.subscribers = []string{"@main", "@backup"}
	f.notifier.fails["@main"] = errors.New("bot was kicked")

	result, err := f.pipeline(t).Execute(context.Background())
	if err != nil {
		t.Fatalf("Delivery failure must not fail the run: %v", err)
	}

	if result.Status != models.StatusNotified {
		t.Errorf("Expected notified, got %s", result.Status)
	}
	if len(result.DeliveryErrors) != 1 || result.Delivered != 2 {
		t.Errorf("Expected 2 delivered and 1 error, got %d and %v", result.Delivered, result.DeliveryErrors)
	}
	if result.Change.Current.Decision.Signal != models.SignalBuy {
		t.Error("Signal must survive delivery failures")
	}
	if f.locks.locks[0].released != 0 {
		t.Error("Lock should be kept once a subscriber got the change")
	}
}

func TestExecute_UndeliveredChangeReleasesLock(t *testing.T) {
	tests := []struct {
		name          string
		fails         []string
		wantDelivered int
	}{
		{name: "every chat down", fails: []string{"@main", "@debug"}, wantDelivered: 0},
		{name: "only debug delivered", fails: []string{"@main"}, wantDelivered: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			for _, chat := range tt.fails {
				f.notifier.fails[chat] = errors.New("telegram unavailable")
			}

			result, err := f.pipeline(t).Execute(context.Background())
			if err != nil {
				t.Fatalf("Delivery failure must not fail the run: %v", err)
			}

			if result.Status != models.StatusDeliveryFailed {
				t.Errorf("Expected delivery_failed, got %s", result.Status)
			}
			if result.Delivered != tt.wantDelivered || len(result.DeliveryErrors) != len(tt.fails) {
				t.Errorf("Expected %d delivered and %d errors, got %d and %v",
					tt.wantDelivered, len(tt.fails), result.Delivered, result.DeliveryErrors)
			}
			if f.locks.locks[0].released != 1 {
				t.Error("Lock should be released so the change can be delivered on retry")
			}
			if result.Change.Current.Decision.Signal != models.SignalBuy {
				t.Error("Signal must survive delivery failures")
			}
		})
	}
}

func TestExecute_UnchangedDebugFailureKeepsLock(t *testing.T) {
	f := newFixture()
	f.sentiment.payload = sentimentPayload(map[int]int{258: 30, 259: 30})
	f.notifier.fails["@debug"] = errors.New("telegram unavailable")

	result, err := f.pipeline(t).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Status != models.StatusUnchanged {
		t.Errorf("Expected unchanged, got %s", result.Status)
	}
	if f.locks.locks[0].released != 0 {
		t.Error("Debug-only failures should keep the lock")
	}
}

func TestExecute_SkippedWhenLockHeld(t *testing.T) {
	f := newFixture()
	f.locks.held = true

	result, err := f.pipeline(t).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Status != models.StatusSkipped {
		t.Errorf("Expected skipped, got %s", result.Status)
	}
	if f.prices.calls != 0 {
		t.Error("Skipped run must not fetch")
	}
}

func TestExecute_DecisionTable(t *testing.T) {
	f := newFixture()
	f.strategy = strategy.NameDecisionTable

	result, err := f.pipeline(t).Execute(context.Background())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Status != models.StatusNotified {
		t.Errorf("Expected notified on recommendation change, got %s", result.Status)
	}

	current := result.Change.Current.Decision
	if current.TableRegime != strategy.TableBull || current.Bucket != strategy.BucketNearMA50 {
		t.Errorf("Unexpected placement %+v", current)
	}

	msgs := f.notifier.sent["@main"]
	if len(msgs) != 1 || msgs[0] != current.Message {
		t.Errorf("Subscribers should get the recommendation verbatim, got %v", msgs)
	}
	if !strings.Contains(current.Message, "Get ready") {
		t.Errorf("Expected fear recommendation, got %q", current.Message)
	}
}

func TestName(t *testing.T) {
	if got := newFixture().pipeline(t).Name(); got != "signal:SPY:threshold" {
		t.Errorf("Unexpected name %s", got)
	}
}
