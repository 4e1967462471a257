package metadata

import (
	"sort"
	"sync"
)

type store[T PluginInfo] struct {
	mu    sync.RWMutex
	infos map[string]T
}

func newStore[T PluginInfo]() *store[T] {
	return &store[T]{infos: map[string]T{}}
}

// SetPluginInfo registers or replaces the metadata of a plugin.
func (s *store[T]) SetPluginInfo(info T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infos[info.ID()] = info
}

// PluginInfo returns the metadata of pluginID, or the zero value.
func (s *store[T]) PluginInfo(pluginID string) T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.infos[pluginID]
}

func (s *store[T]) Has(pluginID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.infos[pluginID]
	return ok
}

func (s *store[T]) Remove(pluginID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.infos, pluginID)
}

func (s *store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.infos = map[string]T{}
}

// All returns every registered plugin ordered by id.
func (s *store[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.infos))
	for id := range s.infos {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	all := make([]T, 0, len(ids))
	for _, id := range ids {
		all = append(all, s.infos[id])
	}
	return all
}

type ArtifactMetadataStore struct {
	*store[*ArtifactPluginInfo]
}

type AuthorizationMetadataStore struct {
	*store[*AuthorizationPluginInfo]
}

// CanSearch reports whether the plugin supports user search.
func (s *AuthorizationMetadataStore) CanSearch(pluginID string) bool {
	info := s.PluginInfo(pluginID)
	return info != nil && info.Capabilities.CanSearch
}

// CanAuthorize reports whether the plugin supports plugin roles.
func (s *AuthorizationMetadataStore) CanAuthorize(pluginID string) bool {
	info := s.PluginInfo(pluginID)
	return info != nil && info.Capabilities.CanAuthorize
}

var (
	artifacts      = &ArtifactMetadataStore{newStore[*ArtifactPluginInfo]()}
	authorizations = &AuthorizationMetadataStore{newStore[*AuthorizationPluginInfo]()}
	roleUsers      = NewPluginRoleUsersStore()
)

// Artifacts returns the process-wide artifact plugin metadata.
func Artifacts() *ArtifactMetadataStore { return artifacts }

// Authorizations returns the process-wide authorization plugin metadata.
func Authorizations() *AuthorizationMetadataStore { return authorizations }

// PluginRoleUsers returns the process-wide plugin role assignments.
func PluginRoleUsers() *PluginRoleUsersStore { return roleUsers }
