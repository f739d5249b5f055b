package alarm

import (
	"fmt"
	"sync"
)

// Permission is the user's answer to "may wakeup show desktop notifications".
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// PermissionKey is the settings key the answer is stored under.
const PermissionKey = "notification_permission"

// SettingsStore is satisfied by *db.DB.
type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// PermissionStore reads and records the notification permission.
type PermissionStore interface {
	Permission() (Permission, error)
	SetPermission(Permission) error
}

// SettingsPermissions keeps the permission in a settings table.
type SettingsPermissions struct {
	settings SettingsStore
}

// NewSettingsPermissions wraps a settings store.
func NewSettingsPermissions(s SettingsStore) *SettingsPermissions {
	return &SettingsPermissions{settings: s}
}

// Permission returns the stored answer, PermissionDefault when none.
func (p *SettingsPermissions) Permission() (Permission, error) {
	v, err := p.settings.GetSetting(PermissionKey)
	if err != nil {
		return PermissionDefault, fmt.Errorf("read permission: %w", err)
	}
	switch Permission(v) {
	case PermissionGranted, PermissionDenied:
		return Permission(v), nil
	default:
		return PermissionDefault, nil
	}
}

// SetPermission stores the answer.
func (p *SettingsPermissions) SetPermission(perm Permission) error {
	if err := p.settings.SetSetting(PermissionKey, string(perm)); err != nil {
		return fmt.Errorf("store permission: %w", err)
	}
	return nil
}

// MemoryPermissions is an in-process PermissionStore, used when no
// database is available.
type MemoryPermissions struct {
	mu   sync.Mutex
	perm Permission
}

func (m *MemoryPermissions) Permission() (Permission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.perm == "" {
		return PermissionDefault, nil
	}
	return m.perm, nil
}

func (m *MemoryPermissions) SetPermission(p Permission) error {
	m.mu.Lock()
	m.perm = p
	m.mu.Unlock()
	return nil
}
