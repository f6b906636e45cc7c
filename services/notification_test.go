package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"genesis-intake/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSendAllDeliversBothChannels(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "ops@example.com", "review@example.com")
	sub := newSubmission("AAAA1111", 0, "")

	out := d.SendAll(context.Background(), sub)
	assert.True(t, out.RegistrantSent)
	assert.True(t, out.InternalSent)
	assert.Empty(t, out.Errors)

	msgs := mailer.messages()
	require.Len(t, msgs, 2)
	var registrant, internal *EmailMessage
	for i := range msgs {
		if msgs[i].To[0] == sub.Email {
			registrant = &msgs[i]
		} else {
			internal = &msgs[i]
		}
	}
	require.NotNil(t, registrant)
	require.NotNil(t, internal)
	assert.Contains(t, registrant.Text, "https://genesis.example.com?ref=AAAA1111")
	assert.Equal(t, []string{"ops@example.com", "review@example.com"}, internal.To)
	assert.Contains(t, internal.Text, "Referral ID: AAAA1111")
	assert.Equal(t, "genesis@example.com", internal.FromEmail)
}

func TestSendAllIsolatesChannelFailures(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sub := newSubmission("AAAA1111", 0, "")
	mailer := &fakeMailer{failFor: map[string]error{sub.Email: errors.New("SendGrid error: 400 bad address")}}
	d := newTestDispatcher(mailer, "ops@example.com")

	out := d.SendAll(context.Background(), sub)
	assert.False(t, out.RegistrantSent)
	assert.True(t, out.InternalSent)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, models.ChannelRegistrant, out.Errors[0].Channel)
	assert.True(t, strings.HasPrefix(out.Errors[0].Message, "SendGrid error: 400"))

	mailer = &fakeMailer{failFor: map[string]error{"ops@example.com": errors.New("boom")}}
	d = newTestDispatcher(mailer, "ops@example.com")
	out = d.SendAll(context.Background(), sub)
	assert.True(t, out.RegistrantSent)
	assert.False(t, out.InternalSent)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, models.ChannelInternal, out.Errors[0].Channel)
}

func TestSendAllSkipsUnconfiguredChannels(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer)
	sub := newSubmission("AAAA1111", 0, "")
	sub.Email = " "

	out := d.SendAll(context.Background(), sub)
	assert.False(t, out.RegistrantSent)
	assert.False(t, out.InternalSent)
	assert.Empty(t, out.Errors)
	assert.Empty(t, mailer.messages())
}

func TestSendDigest(t *testing.T) {
	mailer := &fakeMailer{}
	d := newTestDispatcher(mailer, "ops@example.com")

	all := subs(newSubmission("AAAA1111", 0, ""), newSubmission("BBBB2222", 1, "AAAA1111"))
	view := BuildDashboard(all, testMetals, 10, baseTime)
	require.NoError(t, d.SendDigest(context.Background(), view))

	msgs := mailer.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Subject, "Digest")
	assert.Contains(t, msgs[0].Text, "#1 Registrant AAAA1111 (AAAA1111): 1")

	empty := newTestDispatcher(&fakeMailer{})
	assert.NoError(t, empty.SendDigest(context.Background(), view))
}
