package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAgentStateStorePutMemoryAssignsUUIDWhenAbsent(t *testing.T) {
	a, err := OpenAgentStateStore(t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	m, err := a.PutMemory(AgentMemory{Kind: MemoryFact, Content: "the sky is blue", Tags: []string{"weather", "color"}})
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)

	got, err := a.GetMemory(m.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "the sky is blue", got.Content)
}

func TestAgentStateStoreListMemoriesByKind(t *testing.T) {
	a, err := OpenAgentStateStore(t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.PutMemory(AgentMemory{Kind: MemoryFact, Content: "fact one"})
	require.NoError(t, err)
	_, err = a.PutMemory(AgentMemory{Kind: MemoryPreference, Content: "pref one"})
	require.NoError(t, err)

	facts, err := a.ListMemoriesByKind(MemoryFact)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	require.Equal(t, "fact one", facts[0].Content)
}

func TestAgentStateStoreListMemoriesByTag(t *testing.T) {
	a, err := OpenAgentStateStore(t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	m, err := a.PutMemory(AgentMemory{Kind: MemoryObservation, Content: "obs", Tags: []string{"project-x"}})
	require.NoError(t, err)

	ids, err := a.ListMemoriesByTag("project-x")
	require.NoError(t, err)
	require.Equal(t, []string{m.ID}, ids)
}

func TestAgentStateStoreDeleteMemoryRemovesTagIndex(t *testing.T) {
	a, err := OpenAgentStateStore(t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	m, err := a.PutMemory(AgentMemory{Kind: MemoryTemporary, Content: "scratch", Tags: []string{"temp"}})
	require.NoError(t, err)

	existed, err := a.DeleteMemory(m.ID)
	require.NoError(t, err)
	require.True(t, existed)

	ids, err := a.ListMemoriesByTag("temp")
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestAgentStateStorePutMemoryReplacesTagsOnUpdate(t *testing.T) {
	a, err := OpenAgentStateStore(t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	m, err := a.PutMemory(AgentMemory{Kind: MemoryFact, Content: "v1", Tags: []string{"old"}})
	require.NoError(t, err)

	m.Content = "v2"
	m.Tags = []string{"new"}
	_, err = a.PutMemory(m)
	require.NoError(t, err)

	oldIDs, err := a.ListMemoriesByTag("old")
	require.NoError(t, err)
	require.Empty(t, oldIDs)

	newIDs, err := a.ListMemoriesByTag("new")
	require.NoError(t, err)
	require.Equal(t, []string{m.ID}, newIDs)
}

func TestAgentStateStoreSessionLifecycle(t *testing.T) {
	a, err := OpenAgentStateStore(t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	s, err := a.PutSession(AgentSession{Label: "debugging", State: map[string]any{"step": float64(1)}})
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	got, err := a.GetSession(s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "debugging", got.Label)
}

func TestAgentStateStoreStateAndFileNamespaces(t *testing.T) {
	a, err := OpenAgentStateStore(t.TempDir())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.SetState("notes", "remember this"))
	v, ok := a.GetState("notes")
	require.True(t, ok)
	require.Equal(t, "remember this", v)

	require.NoError(t, a.SetFile("src/main.go", "package main"))
	content, ok := a.GetFile("src/main.go")
	require.True(t, ok)
	require.Equal(t, "package main", content)

	files, err := a.ListFiles()
	require.NoError(t, err)
	require.Equal(t, []string{"src/main.go"}, files)
}
