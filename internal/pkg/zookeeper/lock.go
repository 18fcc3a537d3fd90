// internal/pkg/zookeeper/lock.go
package zookeeper

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const (
	lockRoot = "/velocraft_locks" // 所有分布式锁的根节点
)

// DefaultWaitTimeout 等待前一个节点释放的上限，防止死等。
const DefaultWaitTimeout = 30 * time.Second

// nodeStore 是锁实现用到的 zk.Conn 方法子集。
type nodeStore interface {
	Exists(path string) (bool, *zk.Stat, error)
	Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error)
	CreateProtectedEphemeralSequential(path string, data []byte, acl []zk.ACL) (string, error)
	Children(path string) ([]string, *zk.Stat, error)
	ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error)
	Delete(path string, version int32) error
}

// DistributedLock 基于临时顺序节点实现的互斥锁，满足 port.Locker。
type DistributedLock struct {
	conn        nodeStore
	path        string // 锁的路径，例如 /velocraft_locks/catalog-import
	lockNode    string // 成功获取锁后，自己创建的节点路径
	waitTimeout time.Duration
}

// NewDistributedLock 创建锁并确保父节点存在。
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	return newDistributedLock(conn, resourceID)
}

func newDistributedLock(conn nodeStore, resourceID string) (*DistributedLock, error) {
	lockPath := lockRoot + "/" + resourceID
	for _, p := range []string{lockRoot, lockPath} {
		if err := ensureNode(conn, p); err != nil {
			return nil, err
		}
	}
	return &DistributedLock{conn: conn, path: lockPath, waitTimeout: DefaultWaitTimeout}, nil
}

func ensureNode(conn nodeStore, path string) error {
	exists, _, err := conn.Exists(path)
	if err == nil && exists {
		return nil
	}
	_, err = conn.Create(path, []byte(""), 0, zk.WorldACL(zk.PermAll))
	if err != nil && !errors.Is(err, zk.ErrNodeExists) {
		return fmt.Errorf("failed to create lock node %s: %w", path, err)
	}
	return nil
}

// Lock 尝试获取锁，获取不到则阻塞，直到成功、超时或 ctx 结束。
func (l *DistributedLock) Lock(ctx context.Context) error {
	// 1. 在锁路径下创建一个临时顺序节点
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte(""), zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath
	myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")

	for {
		// 2. 获取锁路径下的所有子节点，按序号排序
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return l.abandon(fmt.Errorf("failed to get children nodes: %w", err))
		}
		sort.Slice(children, func(i, j int) bool { return sequence(children[i]) < sequence(children[j]) })

		// 3. 自己是最小节点即获得锁
		idx := -1
		for i, child := range children {
			if child == myNodeName {
				idx = i
				break
			}
		}
		if idx == 0 {
			return nil
		}
		if idx < 0 {
			return l.abandon(errors.New("lock node disappeared, session may have expired"))
		}

		// 4. 监听前一个节点
		prevNodePath := l.path + "/" + children[idx-1]
		exists, _, eventChan, err := l.conn.ExistsW(prevNodePath)
		if err != nil {
			if errors.Is(err, zk.ErrNoNode) {
				continue
			}
			return l.abandon(fmt.Errorf("failed to watch previous node: %w", err))
		}
		if !exists {
			continue
		}

		select {
		case <-eventChan:
			// 前一个节点变化后重新竞争
		case <-ctx.Done():
			return l.abandon(ctx.Err())
		case <-time.After(l.waitTimeout):
			return l.abandon(errors.New("timeout waiting for lock"))
		}
	}
}

// abandon 放弃排队时删除自己的节点，避免阻塞后来者。
func (l *DistributedLock) abandon(cause error) error {
	_ = l.Unlock()
	return cause
}

// Unlock 释放锁
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && !errors.Is(err, zk.ErrNoNode) {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}

// sequence 取节点名末尾的 10 位序号；protected 节点的前缀带有随机 GUID，不能直接按字符串排序。
func sequence(node string) string {
	if len(node) < 10 {
		return node
	}
	return node[len(node)-10:]
}
