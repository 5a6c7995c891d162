package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/JoeShih716/go-mem-transfer/api/ledgerv1"
	grpc_adapter "github.com/JoeShih716/go-mem-transfer/internal/app/core/adapter/in/grpc"
	http_adapter "github.com/JoeShih716/go-mem-transfer/internal/app/core/adapter/in/http"
	memory_adapter "github.com/JoeShih716/go-mem-transfer/internal/app/core/adapter/out/memory"
	mysql_adapter "github.com/JoeShih716/go-mem-transfer/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/adapter/out/notify"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-transfer/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-transfer/internal/telemetry"
	"github.com/JoeShih716/go-mem-transfer/pkg/journal"
	"github.com/JoeShih716/go-mem-transfer/pkg/keylock"
	"github.com/JoeShih716/go-mem-transfer/pkg/logger"
	"github.com/JoeShih716/go-mem-transfer/pkg/mysql"
	"github.com/JoeShih716/go-mem-transfer/pkg/workerpool"
)

const serviceName = "mem-transfer"

func main() {
	// 1. 載入設定
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	zl, err := logger.New(cfg.Log, serviceName)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync()

	// 3. 通知出口
	notifier, closeNotifier, err := newNotifier(context.Background(), cfg, zl.Named("notify"))
	if err != nil {
		zl.Fatal("failed to init notifier", zap.String("type", cfg.Notifier.Type), zap.Error(err))
	}
	defer closeNotifier()

	// 4. 組裝核心
	store := memory_adapter.NewAccountStore()
	coordinator := usecase.NewTransferCoordinator(store, keylock.New(), notifier, zl.Named("transfer"))
	scheduler := workerpool.New(cfg.Scheduler, zl.Named("scheduler"), workerpool.WithObserver(telemetry.SchedulerObserver{}))
	coreUseCase := usecase.NewCoreUseCase(store, coordinator, scheduler, zl.Named("core"))

	err = telemetry.RegisterLedgerGauges(prometheus.DefaultRegisterer, func() (int, float64) {
		accounts, _ := store.All(context.Background())
		var total float64
		for _, a := range accounts {
			total += a.Balance.InexactFloat64()
		}
		return len(accounts), total
	})
	if err != nil {
		zl.Fatal("failed to register ledger gauges", zap.Error(err))
	}

	// 5. gRPC
	lis, err := net.Listen("tcp", cfg.Server.GrpcAddr)
	if err != nil {
		zl.Fatal("failed to listen", zap.String("addr", cfg.Server.GrpcAddr), zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	ledgerv1.RegisterAccountServiceServer(grpcServer, grpc_adapter.NewGrpcServer(coreUseCase))
	healthServer := health.NewServer()
	healthServer.SetServingStatus(ledgerv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	// 6. REST
	gin.SetMode(cfg.Server.GinMode)
	httpServer := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      http_adapter.NewRouter(http_adapter.NewHandler(coreUseCase), zl.Named("http")),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// 7. Metrics 獨立 port
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    cfg.Server.MetricsAddr,
		Handler: metricsMux,
	}

	go func() {
		zl.Info("grpc server listening", zap.String("addr", cfg.Server.GrpcAddr))
		if err := grpcServer.Serve(lis); err != nil {
			zl.Fatal("grpc server error", zap.Error(err))
		}
	}()
	go serveHTTP(zl, "http", httpServer)
	go serveHTTP(zl, "metrics", metricsServer)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	healthServer.Shutdown()
	if err := httpServer.Shutdown(ctx); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	// 入口都關閉後再排空排程器，已接受的轉帳都會完成
	if err := scheduler.Close(ctx); err != nil {
		zl.Warn("scheduler did not drain", zap.Int("pending", scheduler.Pending()), zap.Error(err))
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		zl.Warn("metrics shutdown", zap.Error(err))
	}
	zl.Info("server exited")
}

func serveHTTP(zl *zap.Logger, name string, srv *http.Server) {
	zl.Info(name+" server listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zl.Fatal(name+" server error", zap.Error(err))
	}
}

// newNotifier 依設定建立通知出口，回傳的 close 在程式結束時呼叫
func newNotifier(ctx context.Context, cfg Config, zl *zap.Logger) (usecase.Notifier, func(), error) {
	switch cfg.Notifier.Type {
	case NotifierLog:
		return notify.NewLogNotifier(zl), func() {}, nil

	case NotifierJournal:
		j, err := journal.Open(cfg.Notifier.JournalPath, cfg.Notifier.JournalSync)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewJournalNotifier(j), func() {
			if err := j.Close(); err != nil {
				zl.Warn("close journal", zap.Error(err))
			}
		}, nil

	case NotifierNATS:
		conn, err := notify.Connect(cfg.Notifier.NATSUrl, zl)
		if err != nil {
			return nil, nil, err
		}
		return notify.NewNATSNotifier(conn, cfg.Notifier.NATSSubject), func() {
			if err := conn.Drain(); err != nil {
				zl.Warn("drain nats", zap.Error(err))
			}
		}, nil

	case NotifierMySQL:
		client, err := mysql.NewClient(cfg.MySQL, zl)
		if err != nil {
			return nil, nil, err
		}
		outbox, err := mysql_adapter.NewNotificationOutbox(ctx, client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		// 投遞端: 取出 outbox 中的通知交給 log 出口
		relayCtx, stopRelay := context.WithCancel(ctx)
		sink := notify.NewLogNotifier(zl.Named("relay"))
		done := make(chan struct{})
		go func() {
			defer close(done)
			outbox.Relay(relayCtx, time.Second, 100, func(ctx context.Context, n domain.Notification) error {
				return sink.Notify(ctx, domain.Account{ID: n.AccountID, Balance: n.Balance}, n.Message)
			}, zl)
		}()
		return outbox, func() {
			stopRelay()
			<-done
			if err := client.Close(); err != nil {
				zl.Warn("close mysql", zap.Error(err))
			}
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown notifier type %q", cfg.Notifier.Type)
}
