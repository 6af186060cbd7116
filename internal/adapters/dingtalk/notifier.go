// Package dingtalk delivers signal notifications through a DingTalk
// group robot webhook.
package dingtalk

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"btcSignalBot/internal/domain"
	"btcSignalBot/internal/ports"
)

// DingTalk rejects markdown payloads beyond this size.
const maxMessageLength = 20000

// Notifier implements the ports.Notifier interface against the DingTalk
// robot webhook API.
type Notifier struct {
	webhookURL string
	secret     string
	httpClient *http.Client
	logger     ports.Logger
	now        func() time.Time
}

// Config holds configuration for the DingTalk notifier.
type Config struct {
	WebhookURL string
	Secret     string // Signing secret; empty disables request signing
	Timeout    time.Duration
	Logger     ports.Logger
}

// New creates a new DingTalk notifier.
func New(cfg Config) (*Notifier, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for DingTalk notifier")
	}
	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("webhook URL is required for DingTalk notifier")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		webhookURL: cfg.WebhookURL,
		secret:     cfg.Secret,
		httpClient: &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
		now:        time.Now,
	}, nil
}

// SendPlan renders a position plan as markdown and delivers it.
func (n *Notifier) SendPlan(ctx context.Context, signal *domain.Signal, plan *domain.PositionPlan) error {
	title := fmt.Sprintf("%s %s signal", signal.Symbol, signal.Strength)
	return n.send(ctx, title, renderPlan(signal, plan))
}

// SendAlert delivers a free-form warning or status message.
func (n *Notifier) SendAlert(ctx context.Context, title, body string) error {
	return n.send(ctx, title, fmt.Sprintf("### %s\n\n%s", title, body))
}

// markdownMessage is the robot webhook payload.
type markdownMessage struct {
	MsgType  string `json:"msgtype"`
	Markdown struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"markdown"`
}

type webhookResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (n *Notifier) send(ctx context.Context, title, text string) error {
	if len(text) > maxMessageLength {
		return fmt.Errorf("message of %d bytes rejected: %w", len(text), ports.ErrNotificationTooLong)
	}

	msg := markdownMessage{MsgType: "markdown"}
	msg.Markdown.Title = title
	msg.Markdown.Text = text

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.signedURL(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w: %w", ports.ErrNotificationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification request returned status %d: %w", resp.StatusCode, ports.ErrNotificationFailed)
	}

	var result webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode notification response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("webhook rejected message (errcode %d: %s): %w", result.ErrCode, result.ErrMsg, ports.ErrNotificationFailed)
	}

	n.logger.Debug(ctx, "Notification delivered", map[string]interface{}{"title": title, "bytes": len(text)})
	return nil
}

// signedURL appends the timestamp and HMAC-SHA256 signature the robot
// security settings require. Without a secret the bare webhook URL is used.
func (n *Notifier) signedURL() string {
	if n.secret == "" {
		return n.webhookURL
	}

	timestamp := n.now().UnixMilli()
	stringToSign := fmt.Sprintf("%d\n%s", timestamp, n.secret)

	mac := hmac.New(sha256.New, []byte(n.secret))
	mac.Write([]byte(stringToSign))
	signature := url.QueryEscape(base64.StdEncoding.EncodeToString(mac.Sum(nil)))

	separator := "?"
	if strings.Contains(n.webhookURL, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%stimestamp=%d&sign=%s", n.webhookURL, separator, timestamp, signature)
}

// renderPlan formats the plan for a trader reading it on a phone. Every
// number comes straight from the plan; nothing is recomputed here.
func renderPlan(signal *domain.Signal, plan *domain.PositionPlan) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s %s (score %+d)\n\n", signal.Symbol, signal.Strength, signal.Score)
	fmt.Fprintf(&sb, "- Direction: **%s**\n", plan.Direction)
	fmt.Fprintf(&sb, "- Entry: **%.4f**\n", plan.EntryPrice)

	if plan.DegenerateRisk {
		sb.WriteString("- **Flat market: ATR is zero, no position size can be derived. Do not trade this signal.**\n")
	} else {
		fmt.Fprintf(&sb, "- Stop loss: **%.4f** (distance %.4f, %.1f ATR)\n",
			plan.StopLossPrice, plan.StopLossDistance, plan.RealizedRiskMultiple)
		fmt.Fprintf(&sb, "- Size: **%.6f** (value %.2f)\n", plan.PositionSize, plan.PositionValue)
		fmt.Fprintf(&sb, "- Risk: **%.2f**\n", plan.RiskAmount)
		for i, target := range plan.Targets {
			fmt.Fprintf(&sb, "- Target %d: **%.4f** (%.1fR, profit %.2f)\n",
				i+1, target.Price, target.Multiple, target.ProfitAmount)
		}
	}

	fmt.Fprintf(&sb, "\n> %s\n", signal.Reason)
	fmt.Fprintf(&sb, "\n> %s\n", signal.Time.UTC().Format(time.RFC3339))
	return sb.String()
}
