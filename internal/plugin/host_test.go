package plugin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tucan/internal/domain"
)

// panickingSource blows up while computing its entries
type panickingSource struct{}

func (panickingSource) Info() domain.PluginInfo {
	return domain.PluginInfo{ID: "broken", Priority: 1, Title: "Broken"}
}

func (panickingSource) Entries(ctx context.Context) ([]domain.Entry, error) {
	panic("corrupt index")
}

func (panickingSource) Activate(ctx context.Context, entry domain.Entry) (bool, error) {
	return false, nil
}

func receive(t *testing.T, ch <-chan domain.ControllerMessage) domain.ControllerMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a plugin message")
		return nil
	}
}

func TestHostMergesRegistrationsFromAllPlugins(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := NewHost(ctx, HostOptions{Defaults: WorkerOptions{Logger: testLogger(), PollInterval: time.Hour}})

	clock := newFakeSource(domain.Entry{ID: "time-entry"})
	clock.info = domain.PluginInfo{ID: "clock", Priority: 10}
	git := newFakeSource(domain.Entry{ID: "/src/tucan"})
	git.info = domain.PluginInfo{ID: "git-repositories", Priority: 28}

	host.Start(clock, WorkerOptions{})
	host.Start(git, WorkerOptions{})

	seen := map[string]domain.RequestSender{}
	for range 2 {
		reg, ok := receive(t, host.Messages()).(domain.RegisterPluginMessage)
		require.True(t, ok)
		seen[reg.Plugin.ID] = reg.Requests
	}
	assert.Contains(t, seen, "clock")
	assert.Contains(t, seen, "git-repositories")
	assert.Len(t, host.Workers(), 2)

	// a search through the handle comes back through the merged stream
	require.NoError(t, seen["git-repositories"].TrySend(domain.SearchRequest{Query: "tucan"}))
	assert.Equal(t, domain.ClearMessage{PluginID: "git-repositories"}, receive(t, host.Messages()))
	assert.Equal(t,
		domain.AppendEntryMessage{PluginID: "git-repositories", Entry: domain.Entry{ID: "/src/tucan"}},
		receive(t, host.Messages()))

	cancel()
	assert.NoError(t, host.Wait())
	assert.True(t, clock.closed)
	assert.True(t, git.closed)
}

func TestHostRecoversPanickingPlugin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	host := NewHost(ctx, HostOptions{Defaults: WorkerOptions{Logger: testLogger(), PollInterval: time.Hour}})
	host.Start(panickingSource{}, WorkerOptions{})

	healthy := newFakeSource(domain.Entry{ID: "ok"})
	host.Start(healthy, WorkerOptions{})

	reg, ok := receive(t, host.Messages()).(domain.RegisterPluginMessage)
	require.True(t, ok)
	assert.Equal(t, "fake", reg.Plugin.ID)

	cancel()
	assert.NoError(t, host.Wait())
}

func TestHostMergeFillsZeroOptions(t *testing.T) {
	defaults := WorkerOptions{PollInterval: 5 * time.Second, RequestCapacity: 7, MaxResults: 40, Logger: testLogger()}
	host := NewHost(context.Background(), HostOptions{Defaults: defaults})

	merged := host.merge(WorkerOptions{MaxResults: 3})
	assert.Equal(t, 5*time.Second, merged.PollInterval)
	assert.Equal(t, 7, merged.RequestCapacity)
	assert.Equal(t, 3, merged.MaxResults)
	assert.Same(t, defaults.Logger, merged.Logger)
}
