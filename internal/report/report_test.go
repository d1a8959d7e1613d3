package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campaign-insights/internal/anomaly"
	"github.com/ignite/campaign-insights/internal/domain"
)

type fakeSender struct {
	sent []Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-1", nil
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
}

func sample() []anomaly.Anomaly {
	return []anomaly.Anomaly{
		{Name: "Hot Topics: Migraine <Q1>", Group: "Hot Topics", Topic: "Migraine", Value: 8.123, Mean: 20, ZScore: -2.456, DeviationPercent: -59.4, Severity: "critical"},
		{Name: "KOL Roundup", Group: "KOL", Value: 12, Mean: 18, ZScore: -1.6, DeviationPercent: -33.3, Severity: "warning", IsLive: true},
	}
}

func TestRenderDefaultTemplates(t *testing.T) {
	d, err := NewDigest(&fakeSender{}, []string{"ops@example.com"}, "", "")
	require.NoError(t, err)

	msg, err := d.Render(sample(), domain.MetricUniqueOpenRate, anomaly.Under, time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "[Campaign Insights] 2 underperforming campaigns on unique open rate", msg.Subject)
	assert.Contains(t, msg.HTML, "Hot Topics: Migraine &lt;Q1&gt;")
	assert.Contains(t, msg.HTML, "-2.46")
	assert.Contains(t, msg.HTML, "live")
	assert.Contains(t, msg.HTML, "2024-06-01 09:30 UTC")
	assert.Equal(t, []string{"ops@example.com"}, msg.To)
}

func TestRenderSingularSubject(t *testing.T) {
	d, err := NewDigest(&fakeSender{}, []string{"ops@example.com"}, "", "")
	require.NoError(t, err)

	msg, err := d.Render(sample()[:1], domain.MetricTotalClickRate, anomaly.Over, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "[Campaign Insights] 1 overperforming campaign on total click rate", msg.Subject)
}

func TestCustomTemplates(t *testing.T) {
	d, err := NewDigest(&fakeSender{}, []string{"a@example.com"}, "{{ count }} flagged", "{% for a in anomalies %}{{ a.group }};{% endfor %}")
	require.NoError(t, err)

	msg, err := d.Render(sample(), domain.MetricUniqueOpenRate, anomaly.Under, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "2 flagged", msg.Subject)
	assert.Equal(t, "Hot Topics;KOL;", msg.HTML)
}

func TestNewDigestRejectsBadTemplate(t *testing.T) {
	_, err := NewDigest(&fakeSender{}, nil, "{% if count %}unterminated", "")
	assert.Error(t, err)
}

func TestSend(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}

	d, err := NewDigest(sender, []string{"ops@example.com"}, "", "")
	require.NoError(t, err)

	_, err = d.Send(ctx, nil, domain.MetricUniqueOpenRate, anomaly.Under)
	assert.ErrorIs(t, err, ErrNothingToSend)

	id, err := d.Send(ctx, sample(), domain.MetricUniqueOpenRate, anomaly.Under)
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	require.Len(t, sender.sent, 1)

	noTo, err := NewDigest(sender, nil, "", "")
	require.NoError(t, err)
	_, err = noTo.Send(ctx, sample(), domain.MetricUniqueOpenRate, anomaly.Under)
	assert.ErrorIs(t, err, ErrNoRecipients)

	boom := errors.New("ses down")
	failing, err := NewDigest(&fakeSender{err: boom}, []string{"ops@example.com"}, "", "")
	require.NoError(t, err)
	_, err = failing.Send(ctx, sample(), domain.MetricUniqueOpenRate, anomaly.Under)
	assert.ErrorIs(t, err, boom)
}

func TestSESSender(t *testing.T) {
	api := &fakeSES{}
	sender := NewSESSender(api, "insights@example.com")

	id, err := sender.Send(context.Background(), Message{To: []string{"ops@example.com"}, Subject: "s", HTML: "<p>b</p>"})
	require.NoError(t, err)
	assert.Equal(t, "ses-123", id)
	require.NotNil(t, api.input)
	assert.Equal(t, "insights@example.com", aws.ToString(api.input.FromEmailAddress))
	assert.Equal(t, []string{"ops@example.com"}, api.input.Destination.ToAddresses)
	assert.True(t, strings.Contains(aws.ToString(api.input.Content.Simple.Body.Html.Data), "<p>b</p>"))

	api.err = errors.New("rejected")
	_, err = sender.Send(context.Background(), Message{To: []string{"ops@example.com"}})
	assert.Error(t, err)
}
