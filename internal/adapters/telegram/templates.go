package telegram

import (
	"embed"

	"github.com/selivandex/fng-signal/pkg/models"
	"github.com/selivandex/fng-signal/pkg/templates"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Template names
const (
	TemplateSignalChange   = "signal_change.tmpl"
	TemplateRecommendation = "recommendation.tmpl"
	TemplateDebug          = "debug.tmpl"
)

// MessageData is everything a notification template can show
type MessageData struct {
	Ticker            string
	Strategy          string
	Previous          models.SignalRow
	Current           models.SignalRow
	Notify            bool
	SentimentDegraded bool
}

// NewMessageData builds template data from a detected change
func NewMessageData(ticker, strategy string, change models.Change, degraded bool) MessageData {
	return MessageData{
		Ticker:            ticker,
		Strategy:          strategy,
		Previous:          change.Previous,
		Current:           change.Current,
		Notify:            change.Notify,
		SentimentDegraded: degraded,
	}
}

// TemplateManager renders Telegram notification texts
type TemplateManager struct {
	templates templates.Renderer
}

// NewTemplateManager loads the embedded templates
func NewTemplateManager() (*TemplateManager, error) {
	manager, err := templates.NewManagerFS(templateFS,
		[]string{TemplateSignalChange, TemplateRecommendation, TemplateDebug},
		"templates/*.tmpl",
	)
	if err != nil {
		return nil, err
	}

	return &TemplateManager{templates: manager}, nil
}

// RenderSubscriber renders the message for regular subscribers: the signal
// change for strategies that emit a signal, the recommendation text otherwise
func (tm *TemplateManager) RenderSubscriber(data MessageData) (string, error) {
	if data.Current.Decision.Signal != "" {
		return tm.templates.ExecuteTemplate(TemplateSignalChange, data)
	}
	return tm.templates.ExecuteTemplate(TemplateRecommendation, data)
}

// RenderDebug renders the full-context message for debug channels
func (tm *TemplateManager) RenderDebug(data MessageData) (string, error) {
	return tm.templates.ExecuteTemplate(TemplateDebug, data)
}
