package metadata

import (
	"sort"
	"strings"
	"sync"
)

// PluginRoleUsersStore tracks which users an authorization plugin placed in
// each plugin role. Role and user names are case-insensitive.
type PluginRoleUsersStore struct {
	mu    sync.RWMutex
	roles map[string]map[string]struct{}
}

func NewPluginRoleUsersStore() *PluginRoleUsersStore {
	return &PluginRoleUsersStore{roles: map[string]map[string]struct{}{}}
}

func (s *PluginRoleUsersStore) AssignRole(user, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(role)
	users, ok := s.roles[key]
	if !ok {
		users = map[string]struct{}{}
		s.roles[key] = users
	}
	users[strings.ToLower(user)] = struct{}{}
}

// UsersInRole returns the members of role, lower-cased and sorted.
func (s *PluginRoleUsersStore) UsersInRole(role string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var users []string
	for u := range s.roles[strings.ToLower(role)] {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

func (s *PluginRoleUsersStore) IsMember(user, role string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roles[strings.ToLower(role)][strings.ToLower(user)]
	return ok
}

// RolesFor returns the roles user is assigned to, lower-cased and sorted.
func (s *PluginRoleUsersStore) RolesFor(user string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var roles []string
	for role, users := range s.roles {
		if _, ok := users[strings.ToLower(user)]; ok {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return roles
}

func (s *PluginRoleUsersStore) RevokeAllRolesFor(user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for role, users := range s.roles {
		delete(users, strings.ToLower(user))
		if len(users) == 0 {
			delete(s.roles, role)
		}
	}
}

func (s *PluginRoleUsersStore) Remove(role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles, strings.ToLower(role))
}

func (s *PluginRoleUsersStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = map[string]map[string]struct{}{}
}
