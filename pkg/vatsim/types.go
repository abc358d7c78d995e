package vatsim

import "time"

// Data is the v3 data feed document, reduced to what traffic needs.
type Data struct {
	General General `json:"general"`
	Pilots  []Pilot `json:"pilots"`
}

type General struct {
	Version          int       `json:"version"`
	Reload           int       `json:"reload"`
	UpdateTimestamp  time.Time `json:"update_timestamp"`
	ConnectedClients int       `json:"connected_clients"`
}

type Pilot struct {
	CID         int         `json:"cid"`
	Callsign    string      `json:"callsign"`
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	Altitude    int         `json:"altitude"`
	Groundspeed int         `json:"groundspeed"`
	Transponder string      `json:"transponder"`
	Heading     int         `json:"heading"`
	FlightPlan  *FlightPlan `json:"flight_plan,omitempty"`
	LastUpdated time.Time   `json:"last_updated"`
}

type FlightPlan struct {
	FlightRules   string `json:"flight_rules"`
	Aircraft      string `json:"aircraft"`
	AircraftShort string `json:"aircraft_short"`
	Departure     string `json:"departure"`
	Arrival       string `json:"arrival"`
}
