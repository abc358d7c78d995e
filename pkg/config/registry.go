package config

// Persistent state keys (Registry)
const (
	KeySimSource    = "sim_source"
	KeyTracing      = "trace_send_ids"
	KeyMaxAircraft  = "max_aircraft"
	KeyMaxRangeNM   = "max_range_nm"
	KeyFeedEnabled  = "vatsim_enabled"
	KeyLastModelSet = "model_set_imported"
)
