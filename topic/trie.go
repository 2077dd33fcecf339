// Package topic implements MQTT topic filter matching, section 4.7 of the
// 3.1.1 specification.
package topic

import "strings"

// Match reports whether topicName, a published topic with no wildcards,
// matches filter, a subscription filter that may contain the single-level
// wildcard '+' and the trailing multi-level wildcard '#'.
//
// A device client's subscription table holds a handful of entries (the
// registry that calls this caps out in the tens, not the thousands a
// broker's routing table would hold), so each incoming PUBLISH is matched
// against every registered filter directly rather than through a shared
// lookup tree.
func Match(filter, topicName string) bool {
	if filter == topicName {
		return true
	}
	if strings.HasPrefix(topicName, "$") && !strings.HasPrefix(filter, "$") {
		return false // section 4.7.2: $ topics never match a plain wildcard at the first level
	}

	filterLevels := strings.Split(filter, "/")
	topicLevels := strings.Split(topicName, "/")

	for i, fl := range filterLevels {
		if fl == "#" {
			return i == len(filterLevels)-1 // '#' must be the last filter level
		}
		if i >= len(topicLevels) {
			return false
		}
		if fl == "+" {
			continue
		}
		if fl != topicLevels[i] {
			return false
		}
	}
	return len(filterLevels) == len(topicLevels)
}

// ValidFilter reports whether filter is a syntactically legal subscription
// filter: '#' only as the final, standalone level, '+' only as a standalone
// level, and no empty filter string.
func ValidFilter(filter string) bool {
	if filter == "" {
		return false
	}
	levels := strings.Split(filter, "/")
	for i, l := range levels {
		if strings.Contains(l, "#") && (l != "#" || i != len(levels)-1) {
			return false
		}
		if strings.Contains(l, "+") && l != "+" {
			return false
		}
	}
	return true
}
