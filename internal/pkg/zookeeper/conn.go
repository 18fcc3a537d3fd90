// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	zlog "github.com/rs/zerolog/log"
)

// Conn 包装 zk.Conn，锁实现只依赖其中的节点操作。
type Conn struct {
	*zk.Conn
}

// Connect 连接 ZooKeeper 集群，servers 格式为 "host1:2181,host2:2181"。
func Connect(servers string, sessionTimeout time.Duration) (*Conn, error) {
	addrs := strings.Split(servers, ",")
	c, _, err := zk.Connect(addrs, sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper %s: %w", servers, err)
	}
	zlog.Info().Str("servers", servers).Msg("Connected to ZooKeeper.")
	return &Conn{Conn: c}, nil
}
