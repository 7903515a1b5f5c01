// internal/messenger/gateway_test.go
package messenger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDirectory is an in-memory UserDirectory.
type mockDirectory struct {
	mu    sync.Mutex
	names map[int64][2]string
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{names: map[int64][2]string{}}
}

func (m *mockDirectory) UpsertUserInfo(_ context.Context, userID int64, username, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[userID] = [2]string{username, displayName}
	return nil
}

func (m *mockDirectory) LookupUser(_ context.Context, userID int64) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.names[userID]
	if !ok {
		return "", "", errors.New("no such user")
	}
	return n[0], n[1], nil
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestResolveIdentityFromLiveCache(t *testing.T) {
	g := NewGateway(testLogger(), newMockDirectory())

	g.observe(InboundEvent{
		RoomID:      -1,
		UserID:      7,
		Username:    "alice",
		DisplayName: "Alice A",
		IsAdmin:     true,
	})

	id, err := g.ResolveIdentity(context.Background(), -1, 7)
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Name(), "username wins over display name")
	assert.True(t, id.IsAdmin)
}

func TestResolveIdentityFallsBackToDirectory(t *testing.T) {
	dir := newMockDirectory()
	require.NoError(t, dir.UpsertUserInfo(context.Background(), 9, "", "Bob B"))
	g := NewGateway(testLogger(), dir)

	id, err := g.ResolveIdentity(context.Background(), -1, 9)
	require.NoError(t, err)
	assert.Equal(t, "Bob B", id.Name())
}

func TestResolveIdentityUnknownUser(t *testing.T) {
	g := NewGateway(testLogger(), newMockDirectory())

	_, err := g.ResolveIdentity(context.Background(), -1, 404)
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestObservePersistsToDirectory(t *testing.T) {
	dir := newMockDirectory()
	g := NewGateway(testLogger(), dir)

	g.observe(InboundEvent{RoomID: -1, UserID: 7, Username: "alice"})

	username, _, err := dir.LookupUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestNotifyWithoutConnections(t *testing.T) {
	g := NewGateway(testLogger(), newMockDirectory())

	err := g.Notify(context.Background(), -1, "hello", nil)
	assert.Error(t, err, "no connected bridge means lost messages, which callers must see")
}

func TestPlaceholderName(t *testing.T) {
	assert.Equal(t, "Player_42", PlaceholderName(42))
}
