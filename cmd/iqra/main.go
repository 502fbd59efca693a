package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fayaz1010/Iqra/internal/curriculum"
	"github.com/fayaz1010/Iqra/internal/profile"
	"github.com/fayaz1010/Iqra/internal/version"
	"github.com/fayaz1010/Iqra/plugin/markdown"
	"github.com/fayaz1010/Iqra/server"
	"github.com/fayaz1010/Iqra/store"
	"github.com/fayaz1010/Iqra/store/cache"
	"github.com/fayaz1010/Iqra/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "iqra",
		Short: `Spaced repetition practice backend for learning to read Arabic.`,
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile := &profile.Profile{
				Mode:        viper.GetString("mode"),
				Addr:        viper.GetString("addr"),
				Port:        viper.GetInt("port"),
				UNIXSock:    viper.GetString("unix-sock"),
				Data:        viper.GetString("data"),
				Driver:      viper.GetString("driver"),
				DSN:         viper.GetString("dsn"),
				InstanceURL: viper.GetString("instance-url"),
				Version:     version.GetCurrentVersion(viper.GetString("mode")),
			}
			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				panic(err)
			}

			ctx, cancel := context.WithCancel(context.Background())
			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				cancel()
				slog.Error("failed to create db driver", "error", err)
				return
			}

			var opts []store.Option
			if instanceProfile.IsRedisEnabled() {
				redisConfig := cache.DefaultRedisConfig()
				redisConfig.Addr = instanceProfile.CacheRedisAddr
				redisConfig.Password = instanceProfile.CacheRedisPassword
				redisCache, err := cache.NewRedisCache(ctx, redisConfig)
				if err != nil {
					// The L1 cache keeps working without Redis.
					slog.Warn("redis cache disabled", "error", err)
				} else {
					opts = append(opts, store.WithRemoteCache(redisCache))
				}
			}

			storeInstance := store.New(dbDriver, instanceProfile, opts...)
			if err := storeInstance.Migrate(ctx); err != nil {
				cancel()
				slog.Error("failed to migrate", "error", err)
				return
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance)
			if err != nil {
				cancel()
				slog.Error("failed to create server", "error", err)
				return
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			// The default signal sent by the `kill` command is SIGTERM,
			// which is taken as the graceful shutdown signal for many systems, eg., Kubernetes, Gunicorn.
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)

			if err := s.Start(ctx); err != nil {
				if err != http.ErrServerClosed {
					slog.Error("failed to start server", "error", err)
					cancel()
				}
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			// Wait for CTRL-C.
			<-ctx.Done()
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.GetCurrentVersion(viper.GetString("mode")))
		},
	}

	curriculumCmd = &cobra.Command{
		Use:   "curriculum",
		Short: "Print the embedded curriculum levels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := curriculum.Default()
			if err != nil {
				return err
			}
			printCurriculum(cmd, c)
			return nil
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("unix-sock", "", "path to the unix socket, overrides --addr and --port")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver, sqlite or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().String("instance-url", "", "the url of your iqra instance")

	for _, name := range []string{"mode", "addr", "port", "unix-sock", "data", "driver", "dsn", "instance-url"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("iqra")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(versionCmd, curriculumCmd)
}

func printGreetings(profile *profile.Profile) {
	if profile.IsDev() {
		println("Development mode is enabled")
		println("DSN: ", profile.DSN)
	}
	fmt.Printf(`---
Server profile
version: %s
data: %s
addr: %s
port: %d
mode: %s
driver: %s
---
`, profile.Version, profile.Data, profile.Addr, profile.Port, profile.Mode, profile.Driver)

	if len(profile.UNIXSock) == 0 {
		if len(profile.Addr) == 0 {
			fmt.Printf("Iqra is listening on port %d\n", profile.Port)
		} else {
			fmt.Printf("Iqra is listening on %s:%d\n", profile.Addr, profile.Port)
		}
	} else {
		fmt.Printf("Iqra is listening on unix socket %s\n", profile.UNIXSock)
	}
}

func printCurriculum(cmd *cobra.Command, c *curriculum.Curriculum) {
	for _, level := range c.Levels {
		cmd.Printf("Level %d: %s (%d letters, %d words)\n", level.Level, level.Title, len(level.Letters), len(level.Words))
		if description := markdown.PlainText(level.Description); description != "" {
			cmd.Printf("  %s\n", description)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
