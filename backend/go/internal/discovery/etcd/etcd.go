package etcd

import (
	"context"
	"fmt"
	"path"
	"time"

	"MedMemory/backend/go/internal/config"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// keyPrefix 是所有服务实例注册键的公共前缀。
const keyPrefix = "/services"

// ServiceDiscovery 通过 etcd 租约注册与发现服务实例。
type ServiceDiscovery struct {
	cli *clientv3.Client
}

// NewServiceDiscovery 创建 etcd 客户端。
func NewServiceDiscovery(cfg *config.EtcdConfig) (*ServiceDiscovery, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接到 etcd: %w", err)
	}
	return &ServiceDiscovery{cli: cli}, nil
}

// ServiceKey 返回实例在 etcd 中的键。
func ServiceKey(serviceName, addr string) string {
	return path.Join(keyPrefix, serviceName, addr)
}

// Register 以 ttl 秒的租约注册实例并持续续约。
// 关闭返回的 channel 会停止续约并删除注册键。
func (s *ServiceDiscovery) Register(ctx context.Context, serviceName, addr string, ttl int64) (chan<- struct{}, error) {
	leaseResp, err := s.cli.Grant(ctx, ttl)
	if err != nil {
		return nil, fmt.Errorf("申请 etcd 租约失败: %w", err)
	}

	key := ServiceKey(serviceName, addr)
	if _, err = s.cli.Put(ctx, key, addr, clientv3.WithLease(leaseResp.ID)); err != nil {
		return nil, fmt.Errorf("写入注册信息失败: %w", err)
	}

	keepAliveCtx, cancel := context.WithCancel(context.Background())
	keepAliveCh, err := s.cli.KeepAlive(keepAliveCtx, leaseResp.ID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("续约失败: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		defer cancel()
		for {
			select {
			case <-stop:
				s.revoke(key)
				return
			case _, ok := <-keepAliveCh:
				if !ok {
					// 租约过期或被撤销。
					s.revoke(key)
					return
				}
			}
		}
	}()

	return stop, nil
}

func (s *ServiceDiscovery) revoke(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	s.cli.Delete(ctx, key)
}

// Discover 返回某个服务当前注册的全部实例地址。
func (s *ServiceDiscovery) Discover(ctx context.Context, serviceName string) ([]string, error) {
	resp, err := s.cli.Get(ctx, path.Join(keyPrefix, serviceName)+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("查询服务实例失败: %w", err)
	}

	var addrs []string
	for _, kv := range resp.Kvs {
		addrs = append(addrs, string(kv.Value))
	}
	return addrs, nil
}

// Close 关闭 etcd 客户端。
func (s *ServiceDiscovery) Close() error {
	return s.cli.Close()
}
