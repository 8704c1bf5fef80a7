// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gamestore/internal/pkg/logger"
	"gamestore/internal/pkg/nacos"
	"gamestore/internal/pkg/tracing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type AppCtx struct {
	Mux    *http.ServeMux
	Config *Config
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName string
	Port        int
	Config      *Config
	// RegisterHandlers 允许每个服务注册自己独特的 HTTP 路由
	RegisterHandlers func(appCtx AppCtx)
	// Workers 是随服务一起运行的后台任务，ctx 在关停时被取消
	Workers []func(ctx context.Context) error
	// OnShutdown 在 HTTP 服务器停止后按后进先出的顺序执行
	OnShutdown []func(ctx context.Context) error
	// Metadata 注册到 Nacos 的实例元数据
	Metadata map[string]string
}

// Setup 加载配置并初始化日志器，服务在组装依赖之前调用
func Setup(serviceName string) (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	cfg.App.ServiceName = serviceName
	logger.Init(serviceName, cfg.App.Env, cfg.App.LogLevel)
	return cfg, nil
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑，阻塞直到收到退出信号或某个任务失败。
func StartService(info AppInfo) error {
	cfg := info.Config
	if cfg == nil {
		cfg = GetCurrentConfig()
	}
	port := info.Port
	if port == 0 {
		port = cfg.App.Port
	}
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint, cfg.App.TraceSampleRatio)
	if err != nil {
		return err
	}
	shutdowns := []func(context.Context) error{tracing.Shutdown(tp)}
	shutdowns = append(shutdowns, info.OnShutdown...)

	// 2. HTTP Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Config: cfg})
	}
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("service", info.ServiceName).Int("port", port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	for _, worker := range info.Workers {
		g.Go(func() error { return worker(gctx) })
	}

	// 3. 可选的 Nacos 服务注册
	var (
		registry *nacos.Registry
		instance nacos.Instance
	)
	if cfg.Infra.Nacos.Enabled {
		registry, instance, err = registerNacos(cfg.Infra.Nacos, info, port)
		if err != nil {
			log.Error().Err(err).Msg("Nacos registration failed, continuing without service discovery")
		}
	}

	// 4. 优雅关停
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Str("service", info.ServiceName).Msg("🛑 Shutting down service...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()

		if registry != nil {
			if err := registry.Deregister(instance); err != nil {
				log.Error().Err(err).Msg("Error deregistering from Nacos")
			}
			registry.Close()
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error shutting down http server")
		}
		// 后进先出
		for i := len(shutdowns) - 1; i >= 0; i-- {
			if err := shutdowns[i](shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Error during shutdown step")
			}
		}
		return nil
	})

	err = g.Wait()
	if err != nil {
		log.Error().Err(err).Str("service", info.ServiceName).Msg("Service stopped with error")
		return err
	}
	log.Info().Str("service", info.ServiceName).Msg("✅ Service gracefully shut down.")
	return nil
}

func registerNacos(cfg NacosConfig, info AppInfo, port int) (*nacos.Registry, nacos.Instance, error) {
	registry, err := nacos.NewRegistry(cfg.ServerAddrs, cfg.Namespace, cfg.Group)
	if err != nil {
		return nil, nacos.Instance{}, err
	}
	ip, err := outboundIP()
	if err != nil {
		registry.Close()
		return nil, nacos.Instance{}, err
	}
	inst := nacos.Instance{ServiceName: info.ServiceName, IP: ip, Port: port, Metadata: info.Metadata}
	if err := registry.Register(inst); err != nil {
		registry.Close()
		return nil, nacos.Instance{}, err
	}
	return registry, inst, nil
}

// outboundIP 通过一个 UDP "连接" 获取本机用于出网的 IP，不会真正发送数据
func outboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
