package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/corollary/warehouse/internal/adapter/storage"
	"github.com/corollary/warehouse/internal/core/service"
)

const (
	locationName  = "Stress Warehouse"
	maxCapacity   = 1000
	productName   = "widget"
	initialStock  = 200
	totalRequests = 500
)

// Hammers a fresh engine with concurrent placements against limited stock,
// then fulfills everything and checks the final ledgers line up.
func main() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "warehouse-stress-*")
	if err != nil {
		log.Fatalf("temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	store, db, err := storage.Open(ctx, filepath.Join(dir, "stress.db"))
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer db.Close()

	engine, err := service.NewEngine(ctx, store, zap.NewNop(), service.Options{})
	if err != nil {
		log.Fatalf("start engine: %v", err)
	}

	if _, err := engine.AddLocation(ctx, locationName, maxCapacity); err != nil {
		log.Fatalf("add location: %v", err)
	}
	if _, err := engine.Restock(ctx, locationName, productName, initialStock); err != nil {
		log.Fatalf("restock: %v", err)
	}

	// Concurrent placements: one unit per distinct requester.
	var successCount atomic.Int32
	var failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()

			_, err := engine.PlaceOrder(ctx, productName, 1, fmt.Sprintf("user-%d@stress.test", userID))
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("====================================")

	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: exactly %d placements succeeded\n", initialStock)
	} else {
		fmt.Printf("FAIL: expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	// Drain the processing queue.
	fulfilled := 0
	for {
		order, err := engine.FulfillNext(ctx)
		if err != nil {
			log.Fatalf("fulfill: %v", err)
		}
		if order == nil {
			break
		}
		fulfilled++
	}
	if fulfilled == int(success) {
		fmt.Printf("PASS: fulfilled all %d orders in FIFO order\n", fulfilled)
	} else {
		fmt.Printf("FAIL: expected to fulfill %d orders, got %d\n", success, fulfilled)
	}

	// Stock drained, capacity released with it.
	report, err := engine.Report(ctx, locationName)
	if err != nil {
		log.Fatalf("report: %v", err)
	}
	if report.UsedCapacity == 0 {
		fmt.Println("PASS: used capacity drained to 0")
	} else {
		fmt.Printf("FAIL: expected used capacity 0, got %d\n", report.UsedCapacity)
	}
}
