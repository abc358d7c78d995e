// Command debug_simconnect spawns each given model title once next to a
// position and reports whether the simulator accepted it.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"swiftgo/pkg/sim"
	"swiftgo/pkg/sim/mocksim"
	"swiftgo/pkg/sim/simconnect"
)

const (
	AppName = "SwiftGoDebug"

	// firstRequestID keeps clear of the manager's request ranges.
	firstRequestID = 9000
)

var errTimeout = errors.New("no answer from simulator")

func main() {
	dllPath := flag.String("dll", "", "Path to SimConnect.dll (searched when empty)")
	useMock := flag.Bool("mock", false, "Run against the mock simulator")
	lat := flag.Float64("lat", 50.0379, "Spawn latitude")
	lon := flag.Float64("lon", 8.5622, "Spawn longitude")
	alt := flag.Float64("alt", 3000, "Spawn altitude MSL in feet")
	wait := flag.Duration("wait", 3*time.Second, "Time to wait for each answer")
	flag.Parse()

	titles := flag.Args()
	if len(titles) == 0 {
		fmt.Fprintln(os.Stderr, "usage: debug_simconnect [flags] <model title>...")
		os.Exit(2)
	}

	fmt.Println("Starting SimConnect Debugger...")
	api, err := open(*dllPath, *useMock)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer api.Close()
	fmt.Println("Connected to SimConnect!")

	pos := sim.Situation{Latitude: *lat, Longitude: *lon, AltitudeMSL: *alt, GroundSpeed: 150}
	failed := 0
	for i, title := range titles {
		fmt.Printf("[%d] Spawning: %s...\n", i, title)
		ctx, cancel := context.WithTimeout(context.Background(), *wait)
		objectID, err := trySpawn(ctx, api, title, pos, uint32(firstRequestID+i))
		cancel()
		if err != nil {
			failed++
			fmt.Printf("  -> FAILED: %v\n", err)
			continue
		}
		fmt.Printf("  -> SUCCESS: object id %d\n", objectID)
		if err := api.AIRemoveObject(objectID, uint32(firstRequestID+i)); err != nil {
			fmt.Printf("  -> Remove failed: %v\n", err)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func open(dllPath string, useMock bool) (simconnect.API, error) {
	var api simconnect.API
	if useMock {
		api = mocksim.New(mocksim.DefaultConfig())
	} else {
		if dllPath == "" {
			found, err := simconnect.FindDLL()
			if err != nil {
				return nil, err
			}
			dllPath = found
		}
		dll, err := simconnect.LoadDLL(dllPath)
		if err != nil {
			return nil, err
		}
		api = dll
	}
	if err := api.Open(AppName); err != nil {
		return nil, err
	}
	return api, nil
}

// trySpawn creates one non-ATC aircraft and waits for its object id or for
// the exception carrying the send id of the create call.
func trySpawn(ctx context.Context, api simconnect.API, title string, pos sim.Situation, requestID uint32) (uint32, error) {
	tail := strings.ToUpper(fmt.Sprintf("DBG%d", requestID%1000))
	if err := api.AICreateNonATCAircraft(title, tail, simconnect.NewInitPosition(pos), requestID); err != nil {
		return 0, fmt.Errorf("AICreateNonATCAircraft failed locally: %w", err)
	}
	sendID, err := api.LastSentPacketID()
	if err != nil {
		return 0, err
	}

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return 0, errTimeout
		case <-ticker.C:
		}
		for {
			msg, err := api.NextDispatch()
			if err != nil {
				return 0, err
			}
			if msg == nil {
				break
			}
			switch m := msg.(type) {
			case simconnect.RecvException:
				if m.SendID == sendID {
					return 0, fmt.Errorf("exception %s (send id %d, index %d)", m.Exception, m.SendID, m.Index)
				}
			case simconnect.RecvAssignedObjectID:
				if m.RequestID == requestID {
					return m.ObjectID, nil
				}
			}
		}
	}
}
