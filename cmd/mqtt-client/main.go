// Command mqtt-client is a bare interactive client against a configurable
// broker: connect, subscribe to a filter, publish a timestamp once a
// second, and shut down cleanly on signal. Grounded on the teacher's own
// cmd/mqtt-client/main.go, adapted from the bare mqtt.New/OnMessage/
// SubmitMessage/ConnectAndSubscribe API to this module's client package.
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
	"golang.org/x/sync/errgroup"
)

func main() {
	host := flag.String("host", "127.0.0.1", "broker host")
	port := flag.Int("port", 1883, "broker port")
	filter := flag.String("filter", "+", "topic filter to subscribe")
	topic := flag.String("topic", "12345", "topic to publish to")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())

	c, err := client.New(client.DeviceInfo{ProductID: "CLI", DeviceName: "mqtt-client"},
		client.WithHost(*host), client.WithPort(*port), client.WithTLS(false))
	if err != nil {
		log.Fatalf("construct: %v", err)
	}
	if _, err := c.Subscribe(ctx, *filter, 0, func(msg subs.InboundMessage) {
		log.Printf("on: topic=%s payload=%s", msg.Topic, msg.Payload)
	}); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			if _, err := c.Publish(ctx, *topic, 0, false, []byte(time.Now().Format("2006-01-02 15:04:05"))); err != nil {
				log.Printf("%v", err)
			}
			time.Sleep(time.Second)
		}
	})

	group.Go(func() error {
		defer cancel()
		ignore := make(chan os.Signal, 1)
		sign := make(chan os.Signal, 1)
		signal.Notify(ignore, syscall.SIGHUP)
		signal.Notify(sign, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

		select {
		case <-ctx.Done():
			log.Printf("ctx done")
			return ctx.Err()
		case sig := <-sign:
			return fmt.Errorf("got sign: %s", sig)
		}
	})

	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				c.Destroy()
				return ctx.Err()
			default:
				if err := c.Yield(ctx); err != nil {
					log.Printf("yield: %v", err)
				}
			}
		}
	})

	if err := group.Wait(); err != nil {
		log.Printf("%v", err)
	}
}
