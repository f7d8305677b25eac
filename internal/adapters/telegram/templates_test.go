package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/selivandex/fng-signal/pkg/models"
)

func signalRow(day int, close float64, signal models.Signal, value *int) models.SignalRow {
	row := models.SignalRow{
		FeatureRow: models.FeatureRow{
			TrendRow: models.TrendRow{
				PricePoint: models.PricePoint{
					Date:  time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC),
					Close: decimal.NewFromFloat(close),
				},
				MA50:  models.NullFromFloat(440),
				MA100: models.NullFromFloat(420),
				MA200: models.NullFromFloat(400),
			},
		},
		Decision: models.Decision{Strategy: "threshold", Signal: signal, Reason: "fear"},
		Regime:   models.RegimeBull,
	}
	if value != nil {
		row.Sentiment = &models.SentimentPoint{Value: *value, Rating: models.RatingFear}
	}
	return row
}

func TestTemplateManager_SignalChange(t *testing.T) {
	tm, err := NewTemplateManager()
	if err != nil {
		t.Fatalf("NewTemplateManager failed: %v", err)
	}

	value := 30
	change := models.Change{
		Notify:   true,
		Previous: signalRow(13, 455, models.SignalWait, nil),
		Current:  signalRow(14, 450, models.SignalBuy, &value),
	}

	text, err := tm.RenderSubscriber(NewMessageData("SPY", "threshold", change, false))
	if err != nil {
		t.Fatalf("RenderSubscriber failed: %v", err)
	}

	for _, want := range []string{"SPY: WAIT → BUY", "2024-06-14", "450.00", "30 (Fear)", "bull", "fear"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in message:\n%s", want, text)
		}
	}
}

func TestTemplateManager_Recommendation(t *testing.T) {
	tm, err := NewTemplateManager()
	if err != nil {
		t.Fatalf("NewTemplateManager failed: %v", err)
	}

	current := signalRow(14, 450, "", nil)
	current.Decision = models.Decision{Strategy: "decision_table", Message: "Should I invest today:\nDCA"}

	text, err := tm.RenderSubscriber(NewMessageData("SPY", "decision_table", models.Change{Current: current}, false))
	if err != nil {
		t.Fatalf("RenderSubscriber failed: %v", err)
	}
	if text != "Should I invest today:\nDCA" {
		t.Errorf("Expected the recommendation verbatim, got %q", text)
	}
}

func TestTemplateManager_Debug(t *testing.T) {
	tm, err := NewTemplateManager()
	if err != nil {
		t.Fatalf("NewTemplateManager failed: %v", err)
	}

	current := signalRow(14, 450, "", nil)
	current.MA100 = decimal.NullDecimal{}
	current.Decision = models.Decision{
		Strategy:    "decision_table",
		Message:     "fallback",
		Reason:      "unresolved",
		Bucket:      "50ma",
		TableRegime: "bull",
	}
	change := models.Change{Previous: signalRow(13, 455, models.SignalWait, nil), Current: current}

	text, err := tm.RenderDebug(NewMessageData("SPY", "decision_table", change, true))
	if err != nil {
		t.Fatalf("RenderDebug failed: %v", err)
	}

	for _, want := range []string{"SPY [decision_table]", "MA100: n/a", "MA200: 400.00", "n/a (source unavailable)", "Table: bull / 50ma", "Decision: fallback (unresolved)", "Notify: false"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in debug message:\n%s", want, text)
		}
	}
}
