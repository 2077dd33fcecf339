// Command benchmark drives N concurrent device clients against a local
// broker, each publishing on a timer and subscribing to a wildcard filter.
// Grounded on the teacher's own benchmark/main.go, adapted from the bare
// mqtt.New/Connect/Publish/Subscribe API to this module's client package.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/qcloudiot/devicemqtt/client"
	"github.com/qcloudiot/devicemqtt/internal/subs"
	"golang.org/x/sync/errgroup"
)

const deviceCount = 100

func main() {
	group, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < deviceCount; i++ {
		i := i
		group.Go(func() error {
			c, err := client.New(client.DeviceInfo{
				ProductID:  "BENCH",
				DeviceName: fmt.Sprintf("device-%d", i),
			}, client.WithHost("127.0.0.1"), client.WithPort(1883), client.WithTLS(false))
			if err != nil {
				return fmt.Errorf("device %d: construct: %w", i, err)
			}
			defer c.Destroy()

			if _, err := c.Subscribe(ctx, "+", 0, func(msg subs.InboundMessage) {
				log.Printf("device=%d topic=%s payload=%s", i, msg.Topic, msg.Payload)
			}); err != nil {
				return fmt.Errorf("device %d: subscribe: %w", i, err)
			}

			group.Go(func() error {
				timer := time.NewTimer(time.Second)
				defer timer.Stop()
				for {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-timer.C:
						topic := fmt.Sprintf("topic-%d", i)
						if _, err := c.Publish(ctx, topic, 0, false, []byte("hello world")); err != nil {
							log.Printf("device %d: publish: %v", i, err)
						}
						timer.Reset(time.Second)
					}
				}
			})

			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
					if err := c.Yield(ctx); err != nil {
						log.Printf("device %d: yield: %v", i, err)
					}
				}
			}
		})
	}
	if err := group.Wait(); err != nil {
		log.Fatal(err)
	}
}
