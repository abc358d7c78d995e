package main

import (
	"log/slog"

	"swiftgo/pkg/config"
	"swiftgo/pkg/sim/mocksim"
	"swiftgo/pkg/sim/simconnect"
)

// initializeSimAPI returns the simulator backend and whether it is the mock.
func initializeSimAPI(cfg *config.Config, provider string) (simconnect.API, bool) {
	if provider == "mock" {
		slog.Info("Sim Source: Mock")
		return newMock(cfg), true
	}

	slog.Info("Sim Source: SimConnect (Default)")
	path := cfg.Sim.DLLPath
	if path == "" {
		found, err := simconnect.FindDLL()
		if err != nil {
			slog.Error("SimConnect.dll not found, falling back to Mock", "error", err)
			return newMock(cfg), true
		}
		path = found
	}
	dll, err := simconnect.LoadDLL(path)
	if err != nil {
		slog.Error("Failed to load SimConnect, falling back to Mock", "path", path, "error", err)
		return newMock(cfg), true
	}
	slog.Info("SimConnect loaded", "path", path)
	return dll, false
}

func newMock(cfg *config.Config) *mocksim.Sim {
	mc := mocksim.DefaultConfig()
	m := cfg.Mock
	mc.StartLat = m.StartLat
	mc.StartLon = m.StartLon
	mc.StartAlt = m.StartAlt
	mc.StartHeading = m.StartHeading
	mc.DurationParked = m.DurationParked.D()
	mc.DurationTaxi = m.DurationTaxi.D()
	mc.Latency = m.Latency.D()
	mc.MaxObjects = m.MaxObjects
	mc.FailTitles = m.FailTitles
	mc.GroundElevation = m.StartAlt
	return mocksim.New(mc)
}
