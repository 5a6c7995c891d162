package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-mem-transfer/api/ledgerv1"
	grpcpool "github.com/JoeShih716/go-mem-transfer/pkg/grpc"
)

// 壓測: 建立 N 個帳戶後隨機互轉，結束時檢查總額不變
func main() {
	target := flag.String("target", "localhost:50051", "gRPC server address")
	accounts := flag.Int("accounts", 10, "number of accounts")
	total := flag.Int("n", 100000, "total transfers")
	concurrency := flag.Int("c", 200, "concurrent callers")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	pool := grpcpool.NewPool(grpcpool.WithContentSubtype(ledgerv1.CodecName), grpcpool.WithLogging(logger))
	defer pool.Close()
	conn, err := pool.GetConnection(*target)
	if err != nil {
		log.Fatalf("did not connect: %v", err)
	}
	c := ledgerv1.NewAccountServiceClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	prefix := fmt.Sprintf("bench-%d-", time.Now().UnixNano())
	initial := decimal.NewFromInt(1000000)
	ids := make([]string, *accounts)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d", prefix, i)
		if _, err := c.CreateAccount(ctx, &ledgerv1.CreateAccountRequest{AccountId: ids[i], Balance: initial}); err != nil {
			log.Fatalf("create account %s: %v", ids[i], err)
		}
	}

	var (
		wg        sync.WaitGroup
		ok        atomic.Int64
		rejected  atomic.Int64
		failed    atomic.Int64
		sem       = make(chan struct{}, *concurrency)
		startTime = time.Now()
	)
	wg.Add(*total)
	for i := 0; i < *total; i++ {
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			_, err := c.Transfer(ctx, &ledgerv1.TransferRequest{
				FromAccountId: ids[idx%len(ids)],
				ToAccountId:   ids[(idx*7+1)%len(ids)],
				Amount:        decimal.NewFromInt(int64(idx%50 + 1)),
			})
			switch status.Code(err) {
			case codes.OK:
				ok.Add(1)
			case codes.ResourceExhausted:
				rejected.Add(1)
			default:
				failed.Add(1)
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(startTime)

	sum := decimal.Zero
	for _, id := range ids {
		a, err := c.GetAccount(ctx, &ledgerv1.GetAccountRequest{AccountId: id})
		if err != nil {
			log.Fatalf("get account %s: %v", id, err)
		}
		sum = sum.Add(a.Balance)
	}

	fmt.Printf("Completed %d requests in %v (ok=%d rejected=%d failed=%d)\n", *total, elapsed, ok.Load(), rejected.Load(), failed.Load())
	fmt.Printf("TPS: %.2f\n", float64(*total)/elapsed.Seconds())
	fmt.Printf("Total balance %s, expected %s\n", sum, initial.Mul(decimal.NewFromInt(int64(*accounts))))
}
