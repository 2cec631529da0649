package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/blockstage/internal/console"
	"github.com/MeKo-Tech/blockstage/internal/render"
	"github.com/MeKo-Tech/blockstage/internal/server"
	"github.com/MeKo-Tech/blockstage/internal/stage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stage API and stored frames over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("scene", "", "YAML scene whose final stage becomes the initial live stage")
	serveCmd.Flags().String("store", "", "Frame store to serve under /frames/ (optional)")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served images")
	serveCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	serveCmd.Flags().Float64("scale", 1, "Pixels per stage unit for rendered images")
	serveCmd.Flags().Int("console-lines", console.DefaultMaxLines, "Maximum console lines kept in memory")
	serveCmd.Flags().Duration("shutdown-timeout", 5*time.Second, "Grace period for in-flight requests on shutdown")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.scene", "scene")
	mustBind("serve.store", "store")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.png_compression", "png-compression")
	mustBind("serve.scale", "scale")
	mustBind("serve.console_lines", "console-lines")
	mustBind("serve.shutdown_timeout", "shutdown-timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	scenePath := viper.GetString("serve.scene")
	storePath := viper.GetString("serve.store")
	cacheControl := viper.GetString("serve.cache_control")
	scale := viper.GetFloat64("serve.scale")
	shutdownTimeout := viper.GetDuration("serve.shutdown_timeout")

	var initial *stage.Stage
	if scenePath != "" {
		st, err := finalStage(scenePath)
		if err != nil {
			return err
		}
		initial = st
	}

	if scale > render.MaxScale {
		return fmt.Errorf("invalid scale %v: must be at most %d", scale, render.MaxScale)
	}
	raster := render.DefaultOptions()
	if scale > 0 {
		raster.Scale = scale
	}

	api, err := server.NewAPI(server.APIConfig{
		Stage:          initial,
		Raster:         raster,
		PNGCompression: viper.GetString("serve.png_compression"),
		CacheControl:   cacheControl,
		ConsoleLines:   viper.GetInt("serve.console_lines"),
	}, logger)
	if err != nil {
		return err
	}

	var frames *server.FrameHandler
	if storePath != "" {
		frames, err = server.NewFrameHandler(server.FrameConfig{
			StorePath:    storePath,
			CacheControl: cacheControl,
		}, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := frames.Close(); err != nil {
				logger.Error("Failed to close frame store", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewMux(api, frames),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", addr,
			"scene", scenePath,
			"store", storePath,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("Received interrupt signal, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func finalStage(scenePath string) (*stage.Stage, error) {
	scene, err := stage.LoadScene(scenePath)
	if err != nil {
		return nil, err
	}
	frames, err := sceneFrames(scene, true)
	if err != nil {
		return nil, err
	}
	return frames[0], nil
}
