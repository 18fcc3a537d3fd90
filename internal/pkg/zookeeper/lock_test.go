package zookeeper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore 是一个只支持锁所需操作的内存节点树。
type memStore struct {
	mu       sync.Mutex
	nodes    map[string]bool
	seq      int
	watchers map[string][]chan zk.Event
}

func newMemStore() *memStore {
	return &memStore{nodes: map[string]bool{}, watchers: map[string][]chan zk.Event{}}
}

func (m *memStore) Exists(path string) (bool, *zk.Stat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodes[path], &zk.Stat{}, nil
}

func (m *memStore) Create(path string, _ []byte, _ int32, _ []zk.ACL) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nodes[path] {
		return "", zk.ErrNodeExists
	}
	m.nodes[path] = true
	return path, nil
}

func (m *memStore) CreateProtectedEphemeralSequential(prefix string, _ []byte, _ []zk.ACL) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir := prefix[:strings.LastIndex(prefix, "/")]
	base := prefix[strings.LastIndex(prefix, "/")+1:]
	// 模拟 protected 前缀：GUID 越大不代表序号越大
	guid := fmt.Sprintf("_c_%08d-", 99999999-m.seq)
	p := fmt.Sprintf("%s/%s%s%010d", dir, guid, base, m.seq)
	m.seq++
	m.nodes[p] = true
	return p, nil
}

func (m *memStore) Children(path string) ([]string, *zk.Stat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for p := range m.nodes {
		if strings.HasPrefix(p, path+"/") && !strings.Contains(strings.TrimPrefix(p, path+"/"), "/") {
			out = append(out, strings.TrimPrefix(p, path+"/"))
		}
	}
	return out, &zk.Stat{}, nil
}

func (m *memStore) ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan zk.Event, 1)
	m.watchers[path] = append(m.watchers[path], ch)
	return m.nodes[path], &zk.Stat{}, ch, nil
}

func (m *memStore) Delete(path string, _ int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.nodes[path] {
		return zk.ErrNoNode
	}
	delete(m.nodes, path)
	for _, ch := range m.watchers[path] {
		ch <- zk.Event{Type: zk.EventNodeDeleted, Path: path}
	}
	delete(m.watchers, path)
	return nil
}

func TestDistributedLock_Exclusive(t *testing.T) {
	store := newMemStore()
	first, err := newDistributedLock(store, "catalog-import")
	require.NoError(t, err)
	second, err := newDistributedLock(store, "catalog-import")
	require.NoError(t, err)

	require.NoError(t, first.Lock(context.Background()))

	acquired := make(chan error, 1)
	go func() { acquired <- second.Lock(context.Background()) }()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, first.Unlock())
	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second lock not acquired after release")
	}
	require.NoError(t, second.Unlock())
}

func TestDistributedLock_ContextCancelRemovesNode(t *testing.T) {
	store := newMemStore()
	holder, _ := newDistributedLock(store, "r")
	waiter, _ := newDistributedLock(store, "r")
	require.NoError(t, holder.Lock(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := waiter.Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	children, _, _ := store.Children(lockRoot + "/r")
	assert.Len(t, children, 1)
}

func TestDistributedLock_UnlockWithoutLock(t *testing.T) {
	l, err := newDistributedLock(newMemStore(), "r")
	require.NoError(t, err)
	assert.Error(t, l.Unlock())
}
