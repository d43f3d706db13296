package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SlackNotifier sends notifications to Slack
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	enabled    bool
}

// SlackMessage represents a Slack message payload
type SlackMessage struct {
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a Slack attachment
type Attachment struct {
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Footer    string  `json:"footer,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
}

// Field represents an attachment field
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

const (
	slackGreen = "#36a64f"
	slackBlue  = "#3498db"
	slackRed   = "#e74c3c"
	slackGray  = "#95a5a6"
)

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		enabled:    webhookURL != "",
	}
}

// IsEnabled returns true if Slack notifications are enabled
func (s *SlackNotifier) IsEnabled() bool {
	return s.enabled
}

// Send sends a simple text message
func (s *SlackNotifier) Send(text string) error {
	if !s.enabled {
		return nil
	}
	return s.sendMessage(SlackMessage{Text: text})
}

// SendSignal sends an entry signal alert
func (s *SlackNotifier) SendSignal(a SignalAlert) error {
	if !s.enabled {
		return nil
	}

	emoji := "📈"
	color := slackGreen
	if a.Side == "DOWN" {
		emoji = "📉"
		color = slackBlue
	}

	msg := SlackMessage{
		Attachments: []Attachment{
			{
				Color: color,
				Title: fmt.Sprintf("%s %s Signal: %s", emoji, a.Strength, a.Market),
				Fields: []Field{
					{Title: "Side", Value: a.Side, Short: true},
					{Title: "Phase", Value: a.Phase, Short: true},
					{Title: "Time Left", Value: fmt.Sprintf("%.1f min", a.RemainingMinutes), Short: true},
					{Title: "Edge", Value: fmt.Sprintf("%+.3f", a.Edge), Short: true},
					{Title: "Model Prob", Value: fmt.Sprintf("%.1f%%", a.ModelProb*100), Short: true},
					{Title: "Entry", Value: fmt.Sprintf("%.1f¢", a.EntryPrice), Short: true},
				},
				Footer:    "BTC 15m Bot",
				Timestamp: time.Now().Unix(),
			},
		},
	}
	return s.sendMessage(msg)
}

// SendResolution sends a trade settlement alert
func (s *SlackNotifier) SendResolution(r ResolutionAlert) error {
	if !s.enabled {
		return nil
	}

	emoji := "✅"
	color := slackGreen
	if r.Outcome != "WIN" {
		emoji = "❌"
		color = slackRed
	}

	msg := SlackMessage{
		Attachments: []Attachment{
			{
				Color: color,
				Title: fmt.Sprintf("%s Trade %s: %s", emoji, r.Outcome, r.Market),
				Fields: []Field{
					{Title: "Side", Value: r.Side, Short: true},
					{Title: "PnL", Value: fmt.Sprintf("$%.2f", r.PnL), Short: true},
					{Title: "Return", Value: fmt.Sprintf("%.1f%%", r.PnLPct*100), Short: true},
				},
				Footer:    "BTC 15m Bot",
				Timestamp: time.Now().Unix(),
			},
		},
	}
	return s.sendMessage(msg)
}

// SendSummary sends a session performance summary
func (s *SlackNotifier) SendSummary(sum Summary) error {
	if !s.enabled {
		return nil
	}

	emoji := "📊"
	color := slackGreen
	if sum.TotalPnL < 0 {
		emoji = "⚠️"
		color = slackRed
	}

	msg := SlackMessage{
		Attachments: []Attachment{
			{
				Color: color,
				Title: fmt.Sprintf("%s Session Summary", emoji),
				Fields: []Field{
					{Title: "Trades", Value: fmt.Sprintf("%d", sum.Trades), Short: true},
					{Title: "Wins", Value: fmt.Sprintf("%d", sum.Wins), Short: true},
					{Title: "Win Rate", Value: fmt.Sprintf("%.1f%%", sum.WinRate*100), Short: true},
					{Title: "Net PnL", Value: fmt.Sprintf("$%.2f", sum.TotalPnL), Short: true},
				},
				Footer:    "BTC 15m Bot - Summary",
				Timestamp: time.Now().Unix(),
			},
		},
	}
	return s.sendMessage(msg)
}

// SendError sends an error alert
func (s *SlackNotifier) SendError(component, message string) error {
	if !s.enabled {
		return nil
	}

	msg := SlackMessage{
		Attachments: []Attachment{
			{
				Color: slackRed,
				Title: "🚨 Error Alert",
				Fields: []Field{
					{Title: "Component", Value: component, Short: true},
					{Title: "Message", Value: message, Short: false},
				},
				Footer:    "BTC 15m Bot - Error",
				Timestamp: time.Now().Unix(),
			},
		},
	}
	return s.sendMessage(msg)
}

// SendStartup sends a startup notification
func (s *SlackNotifier) SendStartup(config string) error {
	if !s.enabled {
		return nil
	}

	msg := SlackMessage{
		Attachments: []Attachment{
			{
				Color: slackGreen,
				Title: "🚀 BTC 15m Bot Started",
				Fields: []Field{
					{Title: "Config", Value: config, Short: false},
				},
				Footer:    "BTC 15m Bot - Startup",
				Timestamp: time.Now().Unix(),
			},
		},
	}
	return s.sendMessage(msg)
}

// SendShutdown sends a shutdown notification
func (s *SlackNotifier) SendShutdown(reason string) error {
	if !s.enabled {
		return nil
	}

	msg := SlackMessage{
		Attachments: []Attachment{
			{
				Color: slackGray,
				Title: "⏹️ BTC 15m Bot Shutdown",
				Fields: []Field{
					{Title: "Reason", Value: reason, Short: false},
				},
				Footer:    "BTC 15m Bot - Shutdown",
				Timestamp: time.Now().Unix(),
			},
		},
	}
	return s.sendMessage(msg)
}

func (s *SlackNotifier) sendMessage(msg SlackMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned status %d", resp.StatusCode)
	}

	return nil
}
