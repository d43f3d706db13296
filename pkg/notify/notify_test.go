package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

// captureServer records every webhook body it receives.
func captureServer(t *testing.T, status int) (*httptest.Server, *[]string) {
	t.Helper()
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read webhook body: %v", err)
		}
		bodies = append(bodies, string(data))
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &bodies
}

func TestDisabledNotifiersAreNoOps(t *testing.T) {
	slack := NewSlackNotifier("")
	discord := NewDiscordNotifier("")

	if slack.IsEnabled() || discord.IsEnabled() {
		t.Fatal("notifiers with empty URLs should be disabled")
	}
	if err := slack.Send("hello"); err != nil {
		t.Errorf("disabled slack Send returned error: %v", err)
	}
	if err := discord.SendSignal(SignalAlert{}); err != nil {
		t.Errorf("disabled discord SendSignal returned error: %v", err)
	}

	n := NewNotifier("", "", zerolog.Nop())
	if n.IsEnabled() {
		t.Error("notifier with no channels should report disabled")
	}
	n.Send("should not panic or post anywhere")
}

func TestSlackSignalPayload(t *testing.T) {
	srv, bodies := captureServer(t, http.StatusOK)
	s := NewSlackNotifier(srv.URL)

	err := s.SendSignal(SignalAlert{
		Market:           "bitcoin-up-or-down-2026-08-25-1430",
		Side:             "UP",
		Strength:         "STRONG",
		Phase:            "MID",
		RemainingMinutes: 7.5,
		Edge:             0.182,
		ModelProb:        0.71,
		EntryPrice:       52.0,
	})
	if err != nil {
		t.Fatalf("SendSignal: %v", err)
	}
	if len(*bodies) != 1 {
		t.Fatalf("expected 1 webhook call, got %d", len(*bodies))
	}

	var msg SlackMessage
	if err := json.Unmarshal([]byte((*bodies)[0]), &msg); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.Color != slackGreen {
		t.Errorf("UP signal color = %q, want %q", att.Color, slackGreen)
	}
	if !strings.Contains(att.Title, "STRONG") || !strings.Contains(att.Title, "bitcoin-up-or-down") {
		t.Errorf("title missing strength or market: %q", att.Title)
	}
	var sawEdge, sawProb bool
	for _, f := range att.Fields {
		switch f.Title {
		case "Edge":
			sawEdge = f.Value == "+0.182"
		case "Model Prob":
			sawProb = f.Value == "71.0%"
		}
	}
	if !sawEdge || !sawProb {
		t.Errorf("fields missing formatted edge/prob: %+v", att.Fields)
	}
}

func TestSlackDownSignalUsesBlue(t *testing.T) {
	srv, bodies := captureServer(t, http.StatusOK)
	s := NewSlackNotifier(srv.URL)

	if err := s.SendSignal(SignalAlert{Market: "m", Side: "DOWN", Strength: "GOOD"}); err != nil {
		t.Fatalf("SendSignal: %v", err)
	}
	var msg SlackMessage
	if err := json.Unmarshal([]byte((*bodies)[0]), &msg); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if msg.Attachments[0].Color != slackBlue {
		t.Errorf("DOWN signal color = %q, want %q", msg.Attachments[0].Color, slackBlue)
	}
}

func TestDiscordResolutionPayload(t *testing.T) {
	srv, bodies := captureServer(t, http.StatusNoContent)
	d := NewDiscordNotifier(srv.URL)

	err := d.SendResolution(ResolutionAlert{
		Market:  "bitcoin-up-or-down-2026-08-25-1430",
		Side:    "UP",
		Outcome: "LOSS",
		PnL:     -0.11,
		PnLPct:  -0.011,
	})
	if err != nil {
		t.Fatalf("SendResolution: %v", err)
	}

	var msg DiscordMessage
	if err := json.Unmarshal([]byte((*bodies)[0]), &msg); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(msg.Embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(msg.Embeds))
	}
	embed := msg.Embeds[0]
	if embed.Color != colorRed {
		t.Errorf("loss color = %d, want %d", embed.Color, colorRed)
	}
	if !strings.Contains(embed.Title, "LOSS") {
		t.Errorf("title missing outcome: %q", embed.Title)
	}
	var sawPnL bool
	for _, f := range embed.Fields {
		if f.Name == "PnL" && f.Value == "$-0.11" {
			sawPnL = true
		}
	}
	if !sawPnL {
		t.Errorf("fields missing formatted pnl: %+v", embed.Fields)
	}
}

func TestWebhookErrorStatus(t *testing.T) {
	srv, _ := captureServer(t, http.StatusInternalServerError)

	s := NewSlackNotifier(srv.URL)
	if err := s.Send("boom"); err == nil {
		t.Error("slack Send should fail on 500")
	}

	d := NewDiscordNotifier(srv.URL)
	if err := d.Send("boom"); err == nil {
		t.Error("discord Send should fail on 500")
	}
}

func TestNotifierFansOut(t *testing.T) {
	slackSrv, slackBodies := captureServer(t, http.StatusOK)
	discordSrv, discordBodies := captureServer(t, http.StatusNoContent)

	n := NewNotifier(slackSrv.URL, discordSrv.URL, zerolog.Nop())
	if !n.IsEnabled() {
		t.Fatal("notifier with both channels should be enabled")
	}

	n.Signal(SignalAlert{Market: "m", Side: "UP", Strength: "GOOD", Phase: "LATE"})
	n.SessionSummary(Summary{Trades: 4, Wins: 3, WinRate: 0.75, TotalPnL: 12.5})

	if len(*slackBodies) != 2 {
		t.Errorf("slack received %d calls, want 2", len(*slackBodies))
	}
	if len(*discordBodies) != 2 {
		t.Errorf("discord received %d calls, want 2", len(*discordBodies))
	}
}

func TestNotifierToleratesChannelFailure(t *testing.T) {
	slackSrv, _ := captureServer(t, http.StatusInternalServerError)
	discordSrv, discordBodies := captureServer(t, http.StatusOK)

	// A broken Slack webhook must not stop the Discord delivery.
	n := NewNotifier(slackSrv.URL, discordSrv.URL, zerolog.Nop())
	n.Resolution(ResolutionAlert{Market: "m", Side: "DOWN", Outcome: "WIN", PnL: 9.0})

	if len(*discordBodies) != 1 {
		t.Errorf("discord received %d calls, want 1", len(*discordBodies))
	}
}
