package nacos

import (
	"fmt"
	"strconv"
	"strings"

	"gamestore/internal/pkg/logger"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/clients/naming_client"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

const defaultGroup = "DEFAULT_GROUP"

// Instance 描述一个注册到 Nacos 的服务实例
type Instance struct {
	ServiceName string
	IP          string
	Port        int
	// Metadata 随实例一起注册，例如 push-gateway 的节点 ID
	Metadata map[string]string
}

func (i Instance) validate() error {
	switch {
	case i.ServiceName == "":
		return fmt.Errorf("nacos instance: service name is empty")
	case i.IP == "":
		return fmt.Errorf("nacos instance %s: ip is empty", i.ServiceName)
	case i.Port <= 0 || i.Port > 65535:
		return fmt.Errorf("nacos instance %s: invalid port %d", i.ServiceName, i.Port)
	}
	return nil
}

// Registry 负责实例的注册与注销
type Registry struct {
	naming naming_client.INamingClient
	group  string
}

// ParseServerConfigs 解析 "host1:port1,host2:port2"
func ParseServerConfigs(addrs string) ([]constant.ServerConfig, error) {
	var out []constant.ServerConfig
	for _, addr := range strings.Split(addrs, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		host, portStr, ok := strings.Cut(addr, ":")
		if !ok || host == "" {
			return nil, fmt.Errorf("invalid nacos address %q, want host:port", addr)
		}
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid port in nacos address %q: %w", addr, err)
		}
		out = append(out, *constant.NewServerConfig(host, port))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no nacos server address given")
	}
	return out, nil
}

func NewRegistry(addrs, namespaceID, group string) (*Registry, error) {
	if group == "" {
		group = defaultGroup
	}
	servers, err := ParseServerConfigs(addrs)
	if err != nil {
		return nil, err
	}

	naming, err := clients.NewNamingClient(vo.NacosClientParam{
		ClientConfig: constant.NewClientConfig(
			constant.WithNamespaceId(namespaceID),
			constant.WithNotLoadCacheAtStart(true),
			constant.WithLogDir("/tmp/nacos/log"),
			constant.WithCacheDir("/tmp/nacos/cache"),
			constant.WithLogLevel("warn"),
		),
		ServerConfigs: servers,
	})
	if err != nil {
		return nil, fmt.Errorf("create nacos naming client: %w", err)
	}

	logger.L().Info().Str("addrs", addrs).Str("group", group).Msg("✅ Connected to Nacos.")
	return &Registry{naming: naming, group: group}, nil
}

// Register 注册临时实例，心跳中断后由 Nacos 摘除
func (r *Registry) Register(inst Instance) error {
	if err := inst.validate(); err != nil {
		return err
	}
	ok, err := r.naming.RegisterInstance(vo.RegisterInstanceParam{
		Ip:          inst.IP,
		Port:        uint64(inst.Port),
		ServiceName: inst.ServiceName,
		GroupName:   r.group,
		Weight:      10,
		Enable:      true,
		Healthy:     true,
		Ephemeral:   true,
		Metadata:    inst.Metadata,
	})
	if err != nil {
		return fmt.Errorf("register %s with nacos: %w", inst.ServiceName, err)
	}
	if !ok {
		return fmt.Errorf("nacos rejected registration of %s", inst.ServiceName)
	}
	logger.L().Info().Str("service", inst.ServiceName).Str("ip", inst.IP).Int("port", inst.Port).
		Interface("metadata", inst.Metadata).Msg("✅ Service registered to Nacos")
	return nil
}

func (r *Registry) Deregister(inst Instance) error {
	if _, err := r.naming.DeregisterInstance(vo.DeregisterInstanceParam{
		Ip:          inst.IP,
		Port:        uint64(inst.Port),
		ServiceName: inst.ServiceName,
		GroupName:   r.group,
		Ephemeral:   true,
	}); err != nil {
		return fmt.Errorf("deregister %s from nacos: %w", inst.ServiceName, err)
	}
	logger.L().Info().Str("service", inst.ServiceName).Msg("Service deregistered from Nacos")
	return nil
}

func (r *Registry) Close() {
	if r.naming != nil {
		r.naming.CloseClient()
	}
}
