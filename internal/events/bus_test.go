package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/models"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	t.Parallel()
	bus := NewBus(zap.NewNop())

	first := make(chan SanctionApplied, 1)
	second := make(chan SanctionApplied, 1)
	bus.Subscribe(func(ev SanctionApplied) { first <- ev })
	bus.Subscribe(func(ev SanctionApplied) { second <- ev })

	sent := SanctionApplied{GuildID: "g", UserID: "u", Action: models.ActionWarn}
	bus.Publish(sent)

	for _, ch := range []chan SanctionApplied{first, second} {
		select {
		case got := <-ch:
			assert.Equal(t, sent, got)
		case <-time.After(time.Second):
			t.Fatal("subscriber never received the event")
		}
	}
}

func TestPanickingSubscriberDoesNotAffectOthers(t *testing.T) {
	t.Parallel()
	bus := NewBus(zap.NewNop())

	bus.Subscribe(func(SanctionApplied) { panic("boom") })
	got := make(chan SanctionApplied, 1)
	bus.Subscribe(func(ev SanctionApplied) { got <- ev })

	bus.Publish(SanctionApplied{GuildID: "g"})

	select {
	case ev := <-got:
		assert.Equal(t, "g", ev.GuildID)
	case <-time.After(time.Second):
		t.Fatal("healthy subscriber starved by panicking one")
	}
}

func TestPublishWithoutSubscribersIsSafe(t *testing.T) {
	t.Parallel()
	bus := NewBus(zap.NewNop())
	bus.Publish(SanctionApplied{GuildID: "g"})
}
