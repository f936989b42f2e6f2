package event

import (
	"fmt"
	"reflect"

	"before-after/internal/logger"

	"fyne.io/fyne/v2"
	messagebus "github.com/vardius/message-bus"
)

type Topic string

const (
	// ImageLoaded carries (models.Slot, *models.ImageData).
	ImageLoaded Topic = "image.loaded"
	// ImageFailed carries (models.Slot, error).
	ImageFailed Topic = "image.failed"
	// ModeChanged carries (models.DiffMode).
	ModeChanged Topic = "mode.changed"
)

// Broker fans published messages out to subscribers. Every subscriber runs on
// its own goroutine, so delivery order between topics is not guaranteed.
type Broker struct {
	bus    messagebus.MessageBus
	logger logger.Logger
}

func NewBroker(queueSize int, log logger.Logger) *Broker {
	return &Broker{
		bus:    messagebus.New(queueSize),
		logger: log,
	}
}

// Subscribe registers fn for topic. fn must accept the topic's arguments.
func (b *Broker) Subscribe(topic Topic, fn interface{}) error {
	if err := b.bus.Subscribe(string(topic), fn); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return nil
}

// ConnectToGui is like Subscribe but runs fn on the Fyne UI goroutine
func (b *Broker) ConnectToGui(topic Topic, fn interface{}) error {
	callback := reflect.ValueOf(fn)
	if callback.Kind() != reflect.Func {
		return fmt.Errorf("subscribe to %s: %T is not a function", topic, fn)
	}

	cb := func(params ...interface{}) {
		args := make([]reflect.Value, 0, len(params))
		for i, param := range params {
			if param == nil {
				args = append(args, reflect.Zero(callback.Type().In(i)))
				continue
			}
			args = append(args, reflect.ValueOf(param))
		}
		fyne.Do(func() {
			callback.Call(args)
		})
	}
	return b.Subscribe(topic, cb)
}

func (b *Broker) Publish(topic Topic, data ...interface{}) {
	b.logger.Debug("publishing event", map[string]interface{}{
		"topic": string(topic),
		"args":  len(data),
	})
	b.bus.Publish(string(topic), data...)
}

// Shutdown closes every topic so subscriber goroutines exit
func (b *Broker) Shutdown() {
	for _, topic := range []Topic{ImageLoaded, ImageFailed, ModeChanged} {
		b.bus.Close(string(topic))
	}
}
