package toolload

// BuiltinLoaders returns the loader for every per-tool agent in the
// built-in roster (spec §4.2, §4.7). Each collector's Collect() writes a
// single summary.json under its own artifacts subdirectory, so every
// entry is a JSONLoader.
func BuiltinLoaders() map[string]Loader {
	return map[string]Loader{
		"sysevents":      JSONLoader("sysevents", "sysevents/summary.json"),
		"procmon":        JSONLoader("procmon", "procmon/summary.json"),
		"network":        JSONLoader("network", "network/summary.json"),
		"connsnapshot":   JSONLoader("connsnapshot", "connsnapshot/summary.json"),
		"handlesnapshot": JSONLoader("handlesnapshot", "handlesnapshot/summary.json"),
	}
}
