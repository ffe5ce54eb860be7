package services

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"pnodepulse/config"
	"pnodepulse/models"
)

// AlertNotifier posts a Discord message whenever the network risk level
// changes. It only speaks on transitions, never on every evaluation, so a
// network that sits at high risk produces one alert, not one per pass.
type AlertNotifier struct {
	session   *discordgo.Session
	channelID string
	enabled   bool

	mu        sync.Mutex
	lastLevel string
}

func NewAlertNotifier(cfg *config.Config) *AlertNotifier {
	if cfg.Discord.BotToken == "" || cfg.Discord.ChannelID == "" {
		log.Println("[Alerts] Discord alerts disabled (no bot token or channel configured)")
		return &AlertNotifier{enabled: false}
	}

	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		log.Printf("[Alerts] Failed to create Discord session: %v", err)
		return &AlertNotifier{enabled: false}
	}

	log.Println("[Alerts] Discord risk alerts enabled")
	return &AlertNotifier{
		session:   session,
		channelID: cfg.Discord.ChannelID,
		enabled:   true,
	}
}

// Observe compares the report's risk level to the previously seen one and
// posts an alert on change.
func (a *AlertNotifier) Observe(report models.RiskReport) {
	if a == nil || !a.enabled {
		return
	}

	a.mu.Lock()
	previous := a.lastLevel
	a.lastLevel = report.Risk.Level
	a.mu.Unlock()

	if previous == "" || previous == report.Risk.Level {
		return
	}

	msg := formatRiskAlert(previous, report)
	if _, err := a.session.ChannelMessageSend(a.channelID, msg); err != nil {
		log.Printf("[Alerts] Failed to send Discord alert: %v", err)
	}
}

func formatRiskAlert(previous string, report models.RiskReport) string {
	var b strings.Builder

	emoji := ":white_check_mark:"
	switch report.Risk.Level {
	case models.RiskMedium:
		emoji = ":warning:"
	case models.RiskHigh:
		emoji = ":rotating_light:"
	}

	fmt.Fprintf(&b, "%s **Network risk changed: %s -> %s** (score %d/100)\n",
		emoji, previous, report.Risk.Level, report.Risk.Score)
	fmt.Fprintf(&b, "Nodes: %d total, %d active, %d inactive\n",
		report.Metrics.TotalNodes, report.Metrics.ActiveNodes, report.Metrics.InactiveNodes)

	for _, reason := range report.Reasons {
		fmt.Fprintf(&b, "- %s\n", reason)
	}

	return b.String()
}

func (a *AlertNotifier) Close() {
	if a != nil && a.enabled && a.session != nil {
		_ = a.session.Close()
	}
}
