package notify

import "github.com/rs/zerolog"

// SignalAlert describes an entry signal worth alerting on
type SignalAlert struct {
	Market           string
	Side             string
	Strength         string
	Phase            string
	RemainingMinutes float64
	Edge             float64
	ModelProb        float64
	EntryPrice       float64
}

// ResolutionAlert describes a settled simulated trade
type ResolutionAlert struct {
	Market  string
	Side    string
	Outcome string
	PnL     float64
	PnLPct  float64
}

// Summary is a rolled-up performance snapshot
type Summary struct {
	Trades   int
	Wins     int
	WinRate  float64
	TotalPnL float64
}

// Notifier fans notifications out to every configured channel
type Notifier struct {
	slack   *SlackNotifier
	discord *DiscordNotifier
	log     zerolog.Logger
}

// NewNotifier creates a notifier for the given webhook URLs.
// Empty URLs disable the corresponding channel.
func NewNotifier(slackURL, discordURL string, log zerolog.Logger) *Notifier {
	return &Notifier{
		slack:   NewSlackNotifier(slackURL),
		discord: NewDiscordNotifier(discordURL),
		log:     log,
	}
}

// IsEnabled returns true if at least one channel is configured
func (n *Notifier) IsEnabled() bool {
	return n.slack.IsEnabled() || n.discord.IsEnabled()
}

// Send sends a plain text message to all channels
func (n *Notifier) Send(text string) {
	if err := n.slack.Send(text); err != nil {
		n.log.Warn().Err(err).Msg("slack notification failed")
	}
	if err := n.discord.Send(text); err != nil {
		n.log.Warn().Err(err).Msg("discord notification failed")
	}
}

// Signal sends an entry signal alert to all channels
func (n *Notifier) Signal(a SignalAlert) {
	if err := n.slack.SendSignal(a); err != nil {
		n.log.Warn().Err(err).Msg("slack signal alert failed")
	}
	if err := n.discord.SendSignal(a); err != nil {
		n.log.Warn().Err(err).Msg("discord signal alert failed")
	}
}

// Resolution sends a trade settlement alert to all channels
func (n *Notifier) Resolution(r ResolutionAlert) {
	if err := n.slack.SendResolution(r); err != nil {
		n.log.Warn().Err(err).Msg("slack resolution alert failed")
	}
	if err := n.discord.SendResolution(r); err != nil {
		n.log.Warn().Err(err).Msg("discord resolution alert failed")
	}
}

// SessionSummary sends a performance summary to all channels
func (n *Notifier) SessionSummary(s Summary) {
	if err := n.slack.SendSummary(s); err != nil {
		n.log.Warn().Err(err).Msg("slack summary failed")
	}
	if err := n.discord.SendSummary(s); err != nil {
		n.log.Warn().Err(err).Msg("discord summary failed")
	}
}

// Error sends an error alert to all channels
func (n *Notifier) Error(component, message string) {
	if err := n.slack.SendError(component, message); err != nil {
		n.log.Warn().Err(err).Msg("slack error alert failed")
	}
	if err := n.discord.SendError(component, message); err != nil {
		n.log.Warn().Err(err).Msg("discord error alert failed")
	}
}

// Startup sends a startup notification to all channels
func (n *Notifier) Startup(config string) {
	if err := n.slack.SendStartup(config); err != nil {
		n.log.Warn().Err(err).Msg("slack startup notice failed")
	}
	if err := n.discord.SendStartup(config); err != nil {
		n.log.Warn().Err(err).Msg("discord startup notice failed")
	}
}

// Shutdown sends a shutdown notification to all channels
func (n *Notifier) Shutdown(reason string) {
	if err := n.slack.SendShutdown(reason); err != nil {
		n.log.Warn().Err(err).Msg("slack shutdown notice failed")
	}
	if err := n.discord.SendShutdown(reason); err != nil {
		n.log.Warn().Err(err).Msg("discord shutdown notice failed")
	}
}
