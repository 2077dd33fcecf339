// Command device-client is a minimal sample driving the core exactly the
// way a real device would: construct, subscribe, publish on a timer, yield
// in a loop, clean up on signal. Grounded on
// original_source/services/mqtt_client/sample/mqtt_sample.c.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/qcloudiot/devicemqtt/client"
	"github.com/qcloudiot/devicemqtt/internal/subs"
)

func main() {
	productID := flag.String("product-id", "PRODUCT1", "device product id")
	deviceName := flag.String("device-name", "device-01", "device name")
	credential := flag.String("credential", "", "device secret/credential")
	host := flag.String("host", "", "broker host, overrides the default")
	port := flag.Int("port", 0, "broker port, overrides the default")
	tlsEnable := flag.Bool("tls", true, "enable TLS")
	flag.Parse()

	opts := []client.Option{
		WithEventLogging(),
		client.WithTLS(*tlsEnable),
	}
	if *host != "" {
		opts = append(opts, client.WithHost(*host))
	}
	if *port != 0 {
		opts = append(opts, client.WithPort(*port))
	}

	c, err := client.New(client.DeviceInfo{
		ProductID:  *productID,
		DeviceName: *deviceName,
		Credential: *credential,
	}, opts...)
	if err != nil {
		log.Fatalf("construct failed: %v", err)
	}
	log.Printf("[SAMPLE] device client constructed, client_id=%s", c.GetDeviceInfo().ProductID+c.GetDeviceInfo().DeviceName)

	dataTopic := fmt.Sprintf("%s/%s/data", *productID, *deviceName)
	ctx, cancel := context.WithTimeout(context.Background(), c.GetCommandTimeout())
	defer cancel()
	if _, err := c.Subscribe(ctx, dataTopic, 0, func(msg subs.InboundMessage) {
		log.Printf("[SAMPLE] received topic=%s payload=%s", msg.Topic, msg.Payload)
	}); err != nil {
		log.Fatalf("subscribe failed: %v", err)
	}
	for i := 0; !c.IsSubReady(dataTopic) && i < 10; i++ {
		if err := c.Yield(context.Background()); err != nil {
			log.Printf("[SAMPLE] yield while waiting for subscribe: %v", err)
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	count := 0
	publishTimer := time.NewTimer(0)
	defer publishTimer.Stop()
loop:
	for {
		select {
		case <-stop:
			log.Printf("[SAMPLE] shutting down")
			break loop
		case <-publishTimer.C:
			payload := fmt.Sprintf(`{"action":"publish_test","count":%d}`, count)
			count++
			pctx, pcancel := context.WithTimeout(context.Background(), c.GetCommandTimeout())
			if _, err := c.Publish(pctx, dataTopic, 1, false, []byte(payload)); err != nil {
				log.Printf("[SAMPLE] publish failed: %v", err)
			}
			pcancel()
			publishTimer.Reset(2 * time.Second)
		default:
			if err := c.Yield(context.Background()); err != nil {
				if merr, ok := err.(*client.Error); ok && merr.Kind == client.KindAttemptingReconnect {
					time.Sleep(100 * time.Millisecond)
					continue
				}
				log.Printf("[SAMPLE] yield: %v", err)
			}
		}
	}

	if _, err := c.Unsubscribe(context.Background(), dataTopic); err != nil {
		log.Printf("[SAMPLE] unsubscribe failed: %v", err)
	}
	c.Destroy()
}

// WithEventLogging installs an event handler that logs every event with the
// same bracketed-tag convention the rest of the core uses, mirroring
// mqtt_sample.c's _mqtt_event_handler switch.
func WithEventLogging() client.Option {
	return client.WithEventHandler(func(e client.Event) {
		switch e.Kind {
		case client.EventPublishReceivedWithoutHandler:
			log.Printf("[SAMPLE_EVENT] topic message arrived without a handler: topic=%s", e.Message.Topic)
		default:
			log.Printf("[SAMPLE_EVENT] %s packet_id=%d", e.Kind, e.PacketID)
		}
	})
}
