// cmd/tracker-sim/main.go

package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hershield/internal/client"
	"hershield/internal/domain/presence"
)

// logRouteDrawer stands in for the mapping capability: it logs the
// route it would draw between two coordinates.
type logRouteDrawer struct{}

func (logRouteDrawer) DrawRoute(from, to presence.Location) error {
	log.Printf("route: (%v, %v) -> (%v, %v)", from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	return nil
}

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/ws", "WebSocket endpoint of the presence server")
	lat := flag.Float64("lat", 48.8566, "Starting latitude")
	lon := flag.Float64("lon", 2.3522, "Starting longitude")
	interval := flag.Duration("interval", 2*time.Second, "Interval between location reports")
	jitter := flag.Float64("jitter", 0.0005, "Maximum random walk applied per report, in degrees")
	sosAfter := flag.Int("sos-after", 0, "Send one SOS after this many reports (0 disables)")
	linkTemplate := flag.String("link-template", "", "Rendezvous URL template, %s replaced by a random id")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconciler := client.NewReconciler(func(a client.Alert) {
		log.Printf("incoming SOS at [%v, %v] link=%s", a.Latitude, a.Longitude, a.RendezvousLink)
	}, logRouteDrawer{})

	c, err := client.Dial(ctx, *serverURL, reconciler)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer c.Close()
	if *linkTemplate != "" {
		c.SetLinkTemplate(*linkTemplate)
	}
	log.Printf("connected to %s", *serverURL)

	go func() {
		if err := c.Run(ctx); err != nil {
			log.Printf("event stream closed: %v", err)
		}
		stop()
	}()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	curLat, curLon := *lat, *lon
	reports := 0

	report := func() {
		curLat += (rand.Float64()*2 - 1) * *jitter
		curLon += (rand.Float64()*2 - 1) * *jitter
		if err := c.SendLocation(curLat, curLon); err != nil {
			log.Printf("failed to report location: %v", err)
			return
		}
		reports++
		log.Printf("reported (%v, %v), tracking %d peers", curLat, curLon, len(reconciler.Markers()))

		if *sosAfter > 0 && reports == *sosAfter {
			link, err := c.SendSOS(curLat, curLon)
			if err != nil {
				log.Printf("failed to send SOS: %v", err)
				return
			}
			log.Printf("sent SOS, rendezvous at %s", link)
		}
	}

	report()
	for {
		select {
		case <-ctx.Done():
			log.Println("shutting down")
			return
		case <-ticker.C:
			report()
		}
	}
}
