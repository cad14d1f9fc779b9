// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package internal

import (
	"slices"
	"sync"
)

// TopicSet is the set of topic filters a client wants to be subscribed to.
type TopicSet struct {
	mu     sync.RWMutex
	topics map[string]struct{}
}

func NewTopicSet(topics ...string) *TopicSet {
	s := &TopicSet{topics: make(map[string]struct{}, len(topics))}
	for _, t := range topics {
		s.topics[t] = struct{}{}
	}
	return s
}

// Add inserts the filter and reports whether it was not already present.
func (s *TopicSet) Add(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.topics[topic]; ok {
		return false
	}
	s.topics[topic] = struct{}{}
	return true
}

// Remove deletes the filter and reports whether it was present.
func (s *TopicSet) Remove(topic string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.topics[topic]; !ok {
		return false
	}
	delete(s.topics, topic)
	return true
}

func (s *TopicSet) Contains(topic string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.topics[topic]
	return ok
}

func (s *TopicSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.topics)
}

// Snapshot returns the filters in sorted order.
func (s *TopicSet) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	topics := make([]string, 0, len(s.topics))
	for t := range s.topics {
		topics = append(topics, t)
	}
	slices.Sort(topics)
	return topics
}
