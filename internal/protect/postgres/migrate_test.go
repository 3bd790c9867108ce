// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package postgres

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/frameguard/pkg/errutil"
)

type mockMigrate struct {
	upErr      error
	version    uint
	dirty      bool
	versionErr error
	forced     int
	closeErr   error
}

func (m *mockMigrate) Up() error                    { return m.upErr }
func (m *mockMigrate) Down() error                  { return nil }
func (m *mockMigrate) Version() (uint, bool, error) { return m.version, m.dirty, m.versionErr }
func (m *mockMigrate) Force(v int) error            { m.forced = v; return nil }
func (m *mockMigrate) Close() (error, error)        { return nil, m.closeErr }

func TestNewMigrator_InvalidURL(t *testing.T) {
	_, err := NewMigrator("badscheme://localhost:5432/frameguard")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "MIGRATION_INIT_FAILED")
}

func TestMigrator_Up(t *testing.T) {
	require.NoError(t, (&Migrator{m: &mockMigrate{upErr: migrate.ErrNoChange}}).Up())

	err := (&Migrator{m: &mockMigrate{upErr: errors.New("syntax error")}}).Up()
	errutil.AssertErrorCode(t, err, "MIGRATION_FAILED")
}

func TestMigrator_Version_Fresh(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}
	v, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.False(t, dirty)
}

func TestMigrator_Pending(t *testing.T) {
	m := &Migrator{m: &mockMigrate{versionErr: migrate.ErrNilVersion}}
	pending, err := m.Pending()
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, pending)

	m = &Migrator{m: &mockMigrate{version: 1}}
	pending, err = m.Pending()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMigrator_Force(t *testing.T) {
	mm := &mockMigrate{}
	m := &Migrator{m: mm}
	require.NoError(t, m.Force(1))
	assert.Equal(t, 1, mm.forced)

	errutil.AssertErrorCode(t, m.Force(-1), "INVALID_ARGUMENT")
}

func TestMigrator_Close(t *testing.T) {
	err := (&Migrator{m: &mockMigrate{closeErr: errors.New("db gone")}}).Close()
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
}
