package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"go-tenant-catalog/pkg/config"
	"go-tenant-catalog/pkg/database"

	"gorm.io/gorm"
)

func main() {
	cfg := config.Load("catalogctl")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	open := func() (*gorm.DB, error) {
		return database.Connect(cfg.DB)
	}

	if err := newRootCommand(open, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
