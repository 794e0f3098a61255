package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func testMailer(t *testing.T, opsMailbox string) (*Mailer, *[]*gomail.Message) {
	t.Helper()
	m, err := NewMailer(&Config{
		Host:       "smtp.example.com",
		From:       "orders@partsdesk.example",
		OpsMailbox: opsMailbox,
	})
	require.NoError(t, err)

	var sent []*gomail.Message
	m.send = func(msgs ...*gomail.Message) error {
		sent = append(sent, msgs...)
		return nil
	}
	return m, &sent
}

func TestConfig_Validate(t *testing.T) {
	t.Run("missing host", func(t *testing.T) {
		err := (&Config{From: "a@b.c"}).Validate()
		assert.ErrorIs(t, err, ErrMailerConfigMissingHost)
	})

	t.Run("missing from", func(t *testing.T) {
		err := (&Config{Host: "smtp.example.com"}).Validate()
		assert.ErrorIs(t, err, ErrMailerConfigMissingFrom)
	})

	t.Run("default port", func(t *testing.T) {
		cfg := &Config{Host: "smtp.example.com", From: "a@b.c"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, 587, cfg.Port)
	})
}

func TestMailer_SendAddsOpsMailbox(t *testing.T) {
	m, sent := testMailer(t, "ops@partsdesk.example")

	err := m.Send(context.Background(), "Order confirmed", "<p>thanks</p>", []string{"buyer@example.com"})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	to := (*sent)[0].GetHeader("To")
	assert.Equal(t, []string{"buyer@example.com", "ops@partsdesk.example"}, to)
	assert.Equal(t, []string{"Order confirmed"}, (*sent)[0].GetHeader("Subject"))
}

func TestMailer_SendDeduplicatesRecipients(t *testing.T) {
	m, sent := testMailer(t, "ops@partsdesk.example")

	err := m.Send(context.Background(), "s", "b", []string{"Ops@partsdesk.example", "", "buyer@example.com"})
	require.NoError(t, err)
	require.Len(t, *sent, 1)

	to := (*sent)[0].GetHeader("To")
	assert.Equal(t, []string{"Ops@partsdesk.example", "buyer@example.com"}, to)
}

func TestMailer_SendNoRecipients(t *testing.T) {
	m, sent := testMailer(t, "")

	err := m.Send(context.Background(), "s", "b", nil)
	assert.Error(t, err)
	assert.Empty(t, *sent)
}

func TestMailer_SendPropagatesDialError(t *testing.T) {
	m, _ := testMailer(t, "ops@partsdesk.example")
	m.send = func(msgs ...*gomail.Message) error {
		return errors.New("dial tcp: connection refused")
	}

	err := m.Send(context.Background(), "s", "b", []string{"buyer@example.com"})
	assert.Error(t, err)
}

func TestMailer_SendCancelledContext(t *testing.T) {
	m, sent := testMailer(t, "ops@partsdesk.example")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Send(ctx, "s", "b", []string{"buyer@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *sent)
}
