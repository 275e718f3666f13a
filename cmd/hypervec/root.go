package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/hypervec"
	"github.com/hupe1980/hypervec/kv"
	"github.com/hupe1980/hypervec/metrics/prometheus"
)

// app carries the configuration and I/O shared by all subcommands.
type app struct {
	v       *viper.Viper
	in      io.Reader
	out     io.Writer
	metrics *prometheus.Collector
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{v: viper.New(), in: in, out: out}

	rootCmd := &cobra.Command{
		Use:   "hypervec",
		Short: "Vector-symbolic behavioral profiles, anchors and similarity search",
		Long: `hypervec encodes behavioral events as hypervectors.

It maintains per-subject profiles, learns sparse anchors from observations
and answers nearest neighbor queries. State is kept in the configured store.

Configuration is read from flags, HYPERVEC_* environment variables, a .env
file in the working directory and an optional config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Missing .env is fine.
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			return a.readConfig()
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("store", "memory", "state store: memory, local, sqlite, s3, minio, dynamodb")
	flags.String("path", ".hypervec", "directory for local, database file for sqlite")
	flags.String("bucket", "", "bucket for s3 and minio")
	flags.String("table", "", "table for dynamodb")
	flags.String("prefix", "", "key prefix inside the bucket or table")
	flags.String("endpoint", "", "endpoint override for s3, minio and dynamodb")
	flags.String("region", "", "AWS region")
	flags.String("access-key", "", "minio access key")
	flags.String("secret-key", "", "minio secret key")
	flags.Bool("secure", true, "use TLS for minio")
	flags.String("compression", "none", "value compression: none, lz4, zstd")
	flags.IntSlice("dimensions", []int{10000}, "profile dimensions")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")

	if err := a.v.BindPFlags(flags); err != nil {
		panic(err)
	}
	a.v.SetEnvPrefix("hypervec")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	rootCmd.AddCommand(
		newVersionCmd(a),
		newGenerateCmd(a),
		newSparseCmd(a),
		newProfileCmd(a),
		newAnchorsCmd(a),
		newQueryCmd(a),
		newObserveCmd(a),
	)
	return rootCmd
}

func (a *app) readConfig() error {
	file := a.v.GetString("config")
	if file == "" {
		return nil
	}
	a.v.SetConfigFile(file)
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", file, err)
	}
	return nil
}

func (a *app) logger() (*hypervec.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	switch format := a.v.GetString("log-format"); format {
	case "json":
		return hypervec.NewJSONLogger(level), nil
	case "text", "":
		return hypervec.NewTextLogger(level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// engine opens the store and returns an engine restored from it. The
// returned close function stops the engine and releases the store.
func (a *app) engine(ctx context.Context, extra ...hypervec.Option) (*hypervec.Engine, func() error, error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	e, err := a.newEngine(ctx, store, extra...)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return e, func() error { return errors.Join(e.Close(), closeStore()) }, nil
}

// newEngine returns an engine over store, restored from it.
func (a *app) newEngine(ctx context.Context, store kv.Store, extra ...hypervec.Option) (*hypervec.Engine, error) {
	logger, err := a.logger()
	if err != nil {
		return nil, err
	}
	opts := []hypervec.Option{
		hypervec.WithDimensions(a.v.GetIntSlice("dimensions")...),
		hypervec.WithStore(store),
		hypervec.WithLogger(logger),
	}
	if a.metrics != nil {
		opts = append(opts, hypervec.WithMetricsCollector(a.metrics))
	}
	e, err := hypervec.New(append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	if err := e.Restore(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "hypervec version %s\n", version)
		},
	}
}
