package outreach

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bellezapp/discovery-cli/internal/model"
)

func eligibleSalon() *model.DiscoveredSalon {
	return &model.DiscoveredSalon{
		ID:       "s1",
		Name:     "Estética Luna",
		Phone:    "+525511112222",
		WhatsApp: "+525533334444",
		Email:    "luna@example.com",
		Status:   model.StatusSelected,
	}
}

func TestDispatch_PrefersWhatsApp(t *testing.T) {
	store := newMockStore()
	texter := &fakeTexter{}
	mailer := &fakeMailer{}
	d := NewDispatcher(store, texter, mailer, 100)

	res, err := d.Dispatch(context.Background(), eligibleSalon(), "hola")
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, ChannelWhatsApp, res.Channel)

	require.Len(t, texter.sent, 1)
	assert.Equal(t, "+525533334444|hola", texter.sent[0], "dedicated whatsapp number wins over phone")
	assert.Zero(t, mailer.calls)
	assert.Equal(t, []string{"s1:whatsapp"}, store.records())
}

func TestDispatch_UsesPhoneWhenNoWhatsAppNumber(t *testing.T) {
	store := newMockStore()
	texter := &fakeTexter{}
	d := NewDispatcher(store, texter, nil, 100)

	salon := eligibleSalon()
	salon.WhatsApp = ""

	res, err := d.Dispatch(context.Background(), salon, "hola")
	require.NoError(t, err)
	assert.True(t, res.Sent)
	require.Len(t, texter.sent, 1)
	assert.Equal(t, "+525511112222|hola", texter.sent[0])
}

func TestDispatch_FallsBackToEmail(t *testing.T) {
	store := newMockStore()
	texter := &fakeTexter{err: eris.New("provider 500")}
	mailer := &fakeMailer{}
	d := NewDispatcher(store, texter, mailer, 100)

	res, err := d.Dispatch(context.Background(), eligibleSalon(), "hola")
	require.NoError(t, err)
	assert.True(t, res.Sent)
	assert.Equal(t, ChannelEmail, res.Channel)

	assert.Equal(t, 1, texter.calls)
	require.Len(t, mailer.sent, 1)
	assert.Contains(t, mailer.sent[0], "luna@example.com|")
	assert.Equal(t, []string{"s1:email"}, store.records())
}

func TestDispatch_SkipsTexterWithoutPhoneChannel(t *testing.T) {
	store := newMockStore()
	texter := &fakeTexter{}
	mailer := &fakeMailer{}
	d := NewDispatcher(store, texter, mailer, 100)

	salon := eligibleSalon()
	salon.Phone = ""
	salon.WhatsApp = ""

	res, err := d.Dispatch(context.Background(), salon, "hola")
	require.NoError(t, err)
	assert.Equal(t, ChannelEmail, res.Channel)
	assert.Zero(t, texter.calls)
}

func TestDispatch_TotalFailureMutatesNothing(t *testing.T) {
	store := newMockStore()
	texter := &fakeTexter{err: eris.New("provider down")}
	mailer := &fakeMailer{err: eris.New("smtp refused")}
	d := NewDispatcher(store, texter, mailer, 100)

	res, err := d.Dispatch(context.Background(), eligibleSalon(), "hola")
	require.Error(t, err)
	assert.False(t, res.Sent)
	assert.Empty(t, store.records(), "a failed send must not touch outreach state")
}

func TestDispatch_NoUsableChannel(t *testing.T) {
	store := newMockStore()
	d := NewDispatcher(store, nil, nil, 100)

	_, err := d.Dispatch(context.Background(), eligibleSalon(), "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable contact channel")
}

func TestDispatch_BookkeepingFailureStillReportsSent(t *testing.T) {
	store := newMockStore()
	store.outreachErr = eris.New("db timeout")
	texter := &fakeTexter{}
	d := NewDispatcher(store, texter, nil, 100)

	res, err := d.Dispatch(context.Background(), eligibleSalon(), "hola")
	require.Error(t, err)
	assert.True(t, res.Sent, "the message went out; callers must count it")
	assert.Equal(t, ChannelWhatsApp, res.Channel)
}
