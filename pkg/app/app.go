package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/sirupsen/logrus"
	"github.com/tkdrob/goefergy/pkg/alarm"
	"github.com/tkdrob/goefergy/pkg/api/v1/config"
	"github.com/tkdrob/goefergy/pkg/api/v1/reading"
	"github.com/tkdrob/goefergy/pkg/efergy"
	"github.com/tkdrob/goefergy/pkg/mqtt"
	"github.com/tkdrob/goefergy/pkg/version"
)

// App polls the efergy cloud on a fixed interval and republishes each
// snapshot over the embedded mqtt broker.
type App struct {
	wg     *sync.WaitGroup
	config *config.CliConfig
	client *efergy.Client
	broker *mqttv2.Server
	cache  *reading.Cache
	alarms *alarm.ActiveAlarms
}

func New(config *config.CliConfig) *App {
	return &App{
		wg:     &sync.WaitGroup{},
		config: config,
		cache:  &reading.Cache{},
		alarms: &alarm.ActiveAlarms{},
	}
}

func (a *App) Start(ctx context.Context) error {
	logrus.Infof("starting version: %s", version.Version)

	err := a.config.LoadToken()
	if err != nil {
		return err
	}

	ttl := a.config.CacheTTL
	alt := a.config.Alternate
	a.client, err = efergy.New(a.config.Token(), &efergy.Options{
		CacheTTL:  &ttl,
		Alternate: &alt,
		UTCOffset: a.config.UTCOffset,
		Currency:  a.config.Currency,
		BaseURL:   a.config.Server,
	})
	if err != nil {
		return err
	}

	_, err = a.client.Status(ctx, true)
	if err != nil {
		a.client.Close()
		return fmt.Errorf("error fetching hub status: %w", err)
	}
	info := a.client.Info()
	logrus.Infof("connected to hub %s type %s version %s", info.HID, info.Type, info.Version)

	a.broker, err = mqtt.Start(ctx, a.wg, a.config.MQTTAddress)
	if err != nil {
		a.client.Close()
		return err
	}

	a.wg.Add(1)
	go a.pollLoop(ctx)
	return nil
}

func (a *App) Wait() {
	a.wg.Wait()
}

// Cache holds the latest poll snapshot.
func (a *App) Cache() *reading.Cache {
	return a.cache
}

// Broker exposes the embedded mqtt server.
func (a *App) Broker() *mqttv2.Server {
	return a.broker
}

func (a *App) pollLoop(ctx context.Context) {
	defer a.wg.Done()
	defer a.client.Close()

	interval := time.Duration(a.config.PollInterval) * time.Second
	delay := alignedDelay(time.Now(), interval)
	logrus.Debug("scheduling first poll in ", delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			timer.Reset(interval)
			a.poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) poll(ctx context.Context) {
	data, err := a.fetch(ctx)
	if err != nil {
		if a.alarms.Add(classifyAlarm(err)) {
			logrus.Errorf("poll failed: %v", err)
		}
		return
	}
	if a.alarms.Clear() {
		logrus.Info("polling recovered")
	}

	a.cache.Set(data)
	a.publish(data)
}

func (a *App) fetch(ctx context.Context) (*reading.Data, error) {
	instant, err := a.client.Reading(ctx, efergy.ReadingInstant, nil)
	if err != nil {
		return nil, err
	}
	watts, _ := instant.(float64)

	sensors, err := a.client.CurrentValues(ctx)
	if err != nil {
		return nil, err
	}

	data := &reading.Data{
		HID:      a.client.Info().HID,
		Time:     time.Now(),
		InstantW: watts,
		Sensors:  map[string]float64{},
	}
	for _, sensor := range sensors {
		if value, ok := sensor.Value().(float64); ok {
			data.Sensors[sensor.SID] = value
		}
	}
	return data, nil
}

func (a *App) publish(data *reading.Data) {
	prefix := a.config.MQTTTopic + "/" + data.HID

	err := a.broker.Publish(prefix+"/instant", []byte(strconv.FormatFloat(data.InstantW, 'f', -1, 64)), true, 0)
	if err != nil {
		logrus.Error(err)
	}
	for sid, value := range data.Sensors {
		err = a.broker.Publish(prefix+"/sensor/"+sid, []byte(strconv.FormatFloat(value, 'f', -1, 64)), true, 0)
		if err != nil {
			logrus.Error(err)
		}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		logrus.Error(err)
		return
	}
	err = a.broker.Publish(prefix+"/state", payload, true, 0)
	if err != nil {
		logrus.Error(err)
	}
}

func classifyAlarm(err error) string {
	switch {
	case errors.Is(err, efergy.ErrAPICallLimit):
		return "api-call-limit"
	case errors.Is(err, efergy.ErrInvalidAuth):
		return "invalid-token"
	case errors.Is(err, efergy.ErrService):
		return "hub-service"
	case errors.Is(err, efergy.ErrConnect):
		return "cloud-unreachable"
	}
	return "poll-error"
}
