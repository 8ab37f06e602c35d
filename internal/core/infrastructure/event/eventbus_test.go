package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	logimpl "github.com/weisyn/shardsdk/internal/core/infrastructure/log"
	eventInterface "github.com/weisyn/shardsdk/pkg/interfaces/infrastructure/event"
)

func TestEventBusPublishSubscribe(t *testing.T) {
	eb := New(logimpl.NewNop())

	var got []eventInterface.WalletDeployed
	handler := func(e eventInterface.WalletDeployed) { got = append(got, e) }
	require.NoError(t, eb.Subscribe(eventInterface.EventWalletDeployed, handler))
	require.True(t, eb.HasCallback(eventInterface.EventWalletDeployed))
	require.False(t, eb.HasCallback(eventInterface.EventSubmitFailed))

	eb.Publish(eventInterface.EventWalletDeployed, eventInterface.WalletDeployed{})
	require.Len(t, got, 1)

	require.NoError(t, eb.Unsubscribe(eventInterface.EventWalletDeployed, handler))
	eb.Publish(eventInterface.EventWalletDeployed, eventInterface.WalletDeployed{})
	require.Len(t, got, 1)
}

func TestEventBusSubscribeOnce(t *testing.T) {
	eb := New(nil)
	calls := 0
	require.NoError(t, eb.SubscribeOnce(eventInterface.EventMessageSubmitted, func(eventInterface.MessageSubmitted) { calls++ }))

	eb.Publish(eventInterface.EventMessageSubmitted, eventInterface.MessageSubmitted{})
	eb.Publish(eventInterface.EventMessageSubmitted, eventInterface.MessageSubmitted{})
	require.Equal(t, 1, calls)
}

func TestEventBusRejectsNonFunc(t *testing.T) {
	eb := New(nil)
	require.Error(t, eb.Subscribe(eventInterface.EventWalletDeployed, "not a func"))
}
