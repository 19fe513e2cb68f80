package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/openpress/openpress-stack/pkg/assets"
	"github.com/openpress/openpress-stack/pkg/config"
	"github.com/openpress/openpress-stack/pkg/logger"
	"github.com/openpress/openpress-stack/web/editor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stack and listen for HTTP calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.GetConfig()
		uploader, err := makeUploader(cfg)
		if err != nil {
			return err
		}
		service := editor.NewService(uploader)

		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.Use(middleware.Recover())
		service.Routes(e.Group("/posts"))
		if cfg.Assets.Backend == "local" {
			e.Static("/assets", cfg.Assets.Dir)
		}

		addr := config.ServerAddr()
		log := logger.WithNamespace("serve")
		go func() {
			log.Infof("Listening on %s", addr)
			if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
				log.Errorf("Server has stopped: %s", err)
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt)
		<-quit

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		service.Shutdown()
		return e.Shutdown(ctx)
	},
}

func makeUploader(cfg *config.Config) (assets.Uploader, error) {
	switch cfg.Assets.Backend {
	case "local":
		if err := os.MkdirAll(cfg.Assets.Dir, 0o755); err != nil {
			return nil, err
		}
		fs := afero.NewBasePathFs(afero.NewOsFs(), cfg.Assets.Dir)
		return assets.NewLocalUploader(fs, cfg.Assets.BaseURL), nil
	case "minio":
		return assets.NewMinioUploader(context.Background(), assets.MinioOptions{
			Endpoint:  cfg.Assets.Endpoint,
			AccessKey: cfg.Assets.AccessKey,
			SecretKey: cfg.Assets.SecretKey,
			UseSSL:    cfg.Assets.UseSSL,
			Bucket:    cfg.Assets.Bucket,
			BaseURL:   cfg.Assets.BaseURL,
		})
	default:
		return nil, fmt.Errorf("unknown assets backend %q", cfg.Assets.Backend)
	}
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
