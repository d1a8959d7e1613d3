package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/ignite/campaign-insights/internal/anomaly"
	"github.com/ignite/campaign-insights/internal/domain"
)

var (
	ErrNoRecipients  = errors.New("digest has no recipients")
	ErrNothingToSend = errors.New("no anomalies to report")
)

// Message is a rendered email ready for delivery.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers a rendered message and returns the provider's message ID.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Digest renders anomaly lists into an email and hands it to a Sender.
type Digest struct {
	subject *liquid.Template
	body    *liquid.Template
	sender  Sender
	to      []string
}

// NewDigest parses the templates. Empty templates fall back to the defaults.
func NewDigest(sender Sender, to []string, subjectTpl, bodyTpl string) (*Digest, error) {
	if subjectTpl == "" {
		subjectTpl = DefaultSubjectTemplate
	}
	if bodyTpl == "" {
		bodyTpl = DefaultBodyTemplate
	}

	engine := liquid.NewEngine()
	subject, err := engine.ParseString(subjectTpl)
	if err != nil {
		return nil, fmt.Errorf("parsing subject template: %w", err)
	}
	body, err := engine.ParseString(bodyTpl)
	if err != nil {
		return nil, fmt.Errorf("parsing body template: %w", err)
	}

	return &Digest{subject: subject, body: body, sender: sender, to: to}, nil
}

func metricLabel(m domain.RateMetric) string {
	return strings.ReplaceAll(string(m), "_", " ")
}

func bindings(anomalies []anomaly.Anomaly, metric domain.RateMetric, dir anomaly.Direction, generatedAt time.Time) liquid.Bindings {
	rows := make([]map[string]interface{}, 0, len(anomalies))
	for _, a := range anomalies {
		rows = append(rows, map[string]interface{}{
			"id":                a.ID,
			"name":              a.Name,
			"group":             a.Group,
			"topic":             a.Topic,
			"value":             a.Value,
			"mean":              a.Mean,
			"std_dev":           a.StdDev,
			"z_score":           a.ZScore,
			"deviation_percent": a.DeviationPercent,
			"severity":          a.Severity,
			"is_live":           a.IsLive,
			"delivered":         a.Delivered,
		})
	}
	return liquid.Bindings{
		"count":        len(anomalies),
		"metric":       string(metric),
		"metric_label": metricLabel(metric),
		"direction":    string(dir),
		"generated_at": generatedAt.UTC().Format("2006-01-02 15:04 MST"),
		"anomalies":    rows,
	}
}

// Render builds the message for a detection run.
func (d *Digest) Render(anomalies []anomaly.Anomaly, metric domain.RateMetric, dir anomaly.Direction, generatedAt time.Time) (Message, error) {
	b := bindings(anomalies, metric, dir, generatedAt)

	subject, err := d.subject.RenderString(b)
	if err != nil {
		return Message{}, fmt.Errorf("rendering subject: %w", err)
	}
	html, err := d.body.RenderString(b)
	if err != nil {
		return Message{}, fmt.Errorf("rendering body: %w", err)
	}

	return Message{
		To:      d.to,
		Subject: strings.TrimSpace(subject),
		HTML:    html,
	}, nil
}

// Send renders and delivers the digest. An empty anomaly list is not sent.
func (d *Digest) Send(ctx context.Context, anomalies []anomaly.Anomaly, metric domain.RateMetric, dir anomaly.Direction) (string, error) {
	if len(d.to) == 0 {
		return "", ErrNoRecipients
	}
	if len(anomalies) == 0 {
		return "", ErrNothingToSend
	}

	msg, err := d.Render(anomalies, metric, dir, time.Now())
	if err != nil {
		return "", err
	}
	id, err := d.sender.Send(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("sending digest: %w", err)
	}
	return id, nil
}
