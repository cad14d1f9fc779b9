// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package stream

import "strings"

// IsTopicFilterMatch checks if a topic name matches an MQTT topic filter.
// Wildcards in the first level do not match topics starting with '$'.
func IsTopicFilterMatch(topicFilter, topicName string) bool {
	if strings.HasPrefix(topicName, "$") &&
		(strings.HasPrefix(topicFilter, "+") ||
			strings.HasPrefix(topicFilter, "#")) {
		return false
	}

	filters := strings.Split(topicFilter, "/")
	names := strings.Split(topicName, "/")

	for i, filter := range filters {
		switch {
		case filter == "#":
			// Multi-level wildcard is only valid as the last level, and also
			// matches the parent level.
			return i == len(filters)-1
		case i >= len(names):
			return false
		case filter == "+":
			continue
		case filter != names[i]:
			return false
		}
	}

	return len(filters) == len(names)
}
