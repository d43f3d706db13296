// Package notify pushes trading alerts to Slack and Discord webhooks
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DiscordNotifier sends notifications to Discord
type DiscordNotifier struct {
	webhookURL string
	httpClient *http.Client
	enabled    bool
}

// DiscordMessage represents a Discord webhook message
type DiscordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds,omitempty"`
}

// DiscordEmbed represents a Discord embed
type DiscordEmbed struct {
	Title     string              `json:"title,omitempty"`
	Color     int                 `json:"color,omitempty"`
	Fields    []DiscordEmbedField `json:"fields,omitempty"`
	Footer    *DiscordEmbedFooter `json:"footer,omitempty"`
	Timestamp string              `json:"timestamp,omitempty"`
}

// DiscordEmbedField represents an embed field
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordEmbedFooter represents an embed footer
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	colorGreen = 0x36a64f
	colorBlue  = 0x3498db
	colorRed   = 0xe74c3c
	colorGray  = 0x95a5a6
)

// NewDiscordNotifier creates a new Discord notifier
func NewDiscordNotifier(webhookURL string) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		enabled:    webhookURL != "",
	}
}

// IsEnabled returns true if Discord notifications are enabled
func (d *DiscordNotifier) IsEnabled() bool {
	return d.enabled
}

// Send sends a simple text message
func (d *DiscordNotifier) Send(text string) error {
	if !d.enabled {
		return nil
	}
	return d.sendMessage(DiscordMessage{Content: text})
}

// SendSignal sends an entry signal alert
func (d *DiscordNotifier) SendSignal(a SignalAlert) error {
	if !d.enabled {
		return nil
	}

	emoji := "📈"
	color := colorGreen
	if a.Side == "DOWN" {
		emoji = "📉"
		color = colorBlue
	}

	msg := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title: fmt.Sprintf("%s %s Signal: %s", emoji, a.Strength, a.Market),
				Color: color,
				Fields: []DiscordEmbedField{
					{Name: "Side", Value: a.Side, Inline: true},
					{Name: "Phase", Value: a.Phase, Inline: true},
					{Name: "Time Left", Value: fmt.Sprintf("%.1f min", a.RemainingMinutes), Inline: true},
					{Name: "Edge", Value: fmt.Sprintf("%+.3f", a.Edge), Inline: true},
					{Name: "Model Prob", Value: fmt.Sprintf("%.1f%%", a.ModelProb*100), Inline: true},
					{Name: "Entry", Value: fmt.Sprintf("%.1f¢", a.EntryPrice), Inline: true},
				},
				Footer:    &DiscordEmbedFooter{Text: "BTC 15m Bot"},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}
	return d.sendMessage(msg)
}

// SendResolution sends a trade settlement alert
func (d *DiscordNotifier) SendResolution(r ResolutionAlert) error {
	if !d.enabled {
		return nil
	}

	emoji := "✅"
	color := colorGreen
	if r.Outcome != "WIN" {
		emoji = "❌"
		color = colorRed
	}

	msg := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title: fmt.Sprintf("%s Trade %s: %s", emoji, r.Outcome, r.Market),
				Color: color,
				Fields: []DiscordEmbedField{
					{Name: "Side", Value: r.Side, Inline: true},
					{Name: "PnL", Value: fmt.Sprintf("$%.2f", r.PnL), Inline: true},
					{Name: "Return", Value: fmt.Sprintf("%.1f%%", r.PnLPct*100), Inline: true},
				},
				Footer:    &DiscordEmbedFooter{Text: "BTC 15m Bot"},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}
	return d.sendMessage(msg)
}

// SendSummary sends a session performance summary
func (d *DiscordNotifier) SendSummary(s Summary) error {
	if !d.enabled {
		return nil
	}

	emoji := "📊"
	color := colorGreen
	if s.TotalPnL < 0 {
		emoji = "⚠️"
		color = colorRed
	}

	msg := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title: fmt.Sprintf("%s Session Summary", emoji),
				Color: color,
				Fields: []DiscordEmbedField{
					{Name: "Trades", Value: fmt.Sprintf("%d", s.Trades), Inline: true},
					{Name: "Wins", Value: fmt.Sprintf("%d", s.Wins), Inline: true},
					{Name: "Win Rate", Value: fmt.Sprintf("%.1f%%", s.WinRate*100), Inline: true},
					{Name: "Net PnL", Value: fmt.Sprintf("$%.2f", s.TotalPnL), Inline: true},
				},
				Footer:    &DiscordEmbedFooter{Text: "BTC 15m Bot - Summary"},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}
	return d.sendMessage(msg)
}

// SendError sends an error alert
func (d *DiscordNotifier) SendError(component, message string) error {
	if !d.enabled {
		return nil
	}

	msg := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title: "🚨 Error Alert",
				Color: colorRed,
				Fields: []DiscordEmbedField{
					{Name: "Component", Value: component, Inline: true},
					{Name: "Message", Value: message, Inline: false},
				},
				Footer:    &DiscordEmbedFooter{Text: "BTC 15m Bot - Error"},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}
	return d.sendMessage(msg)
}

// SendStartup sends a startup notification
func (d *DiscordNotifier) SendStartup(config string) error {
	if !d.enabled {
		return nil
	}

	msg := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title: "🚀 BTC 15m Bot Started",
				Color: colorGreen,
				Fields: []DiscordEmbedField{
					{Name: "Config", Value: config, Inline: false},
				},
				Footer:    &DiscordEmbedFooter{Text: "BTC 15m Bot - Startup"},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}
	return d.sendMessage(msg)
}

// SendShutdown sends a shutdown notification
func (d *DiscordNotifier) SendShutdown(reason string) error {
	if !d.enabled {
		return nil
	}

	msg := DiscordMessage{
		Embeds: []DiscordEmbed{
			{
				Title: "⏹️ BTC 15m Bot Shutdown",
				Color: colorGray,
				Fields: []DiscordEmbedField{
					{Name: "Reason", Value: reason, Inline: false},
				},
				Footer:    &DiscordEmbedFooter{Text: "BTC 15m Bot - Shutdown"},
				Timestamp: time.Now().Format(time.RFC3339),
			},
		},
	}
	return d.sendMessage(msg)
}

func (d *DiscordNotifier) sendMessage(msg DiscordMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	resp, err := d.httpClient.Post(d.webhookURL, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("discord returned status %d", resp.StatusCode)
	}

	return nil
}
