package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"BARTHub/internal/agent"
	"BARTHub/internal/config"
	"BARTHub/internal/console"
	"BARTHub/internal/model"
	"BARTHub/internal/recorder"
	"BARTHub/internal/report"
	"BARTHub/internal/scheduler"
	"BARTHub/internal/session"
)

var (
	configPath  string
	variantFlag string
	subjectFlag string
	targetFlag  string
	dryRunFlag  bool

	rootCmd = &cobra.Command{
		Use:           "bart",
		Short:         "Balloon Analogue Risk Task sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run an interactive session on the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, variant, err := loadSession()
			if err != nil {
				return err
			}
			sc := cfg.SessionConfig(variant)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rec, meta, err := openRecorder(cfg, sc)
			if err != nil {
				return err
			}
			defer closeRecorder(rec)

			con := console.New(os.Stdout)
			opts := []session.Option{
				session.WithObserver(con.Observe),
				session.WithErrorHandler(func(err error) {
					log.Printf("[ERROR] %v", err)
					con.Fail(err)
				}),
			}
			if variant == model.VariantAuto {
				pacer := scheduler.NewCronPacer()
				defer func() {
					closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := pacer.Close(closeCtx); err != nil {
						log.Printf("[WARN] close pacer: %v", err)
					}
				}()
				opts = append(opts, session.WithPacer(pacer))
			}

			ctrl, err := session.NewController(sc, rec, opts...)
			if err != nil {
				return fmt.Errorf("start session: %w", err)
			}
			log.Printf("[INFO] session %s started: variant=%s subject=%q balloons=%d",
				meta.ID, variant, sc.Subject.ID, sc.TotalBalloons())

			err = con.Run(ctx, ctrl, os.Stdin)
			switch {
			case errors.Is(err, console.ErrAborted), errors.Is(err, context.Canceled):
				log.Printf("[WARN] session %s ended early after %d balloons", meta.ID, ctrl.Totals().Completed)
				return nil
			case err != nil:
				return err
			}
			log.Printf("[INFO] session %s finished", meta.ID)
			return nil
		},
	}

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Play a session with a scripted participant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, variant, err := loadSession()
			if err != nil {
				return err
			}
			sc := cfg.SessionConfig(variant)
			if sc.Seed == 0 {
				sc.Seed = uint64(time.Now().UnixNano())
			}
			policy, err := agent.ParsePolicy(targetFlag, rand.New(rand.NewPCG(sc.Seed, ^sc.Seed)))
			if err != nil {
				return err
			}

			var rec recorder.Recorder = recorder.NewNoopRecorder()
			if !dryRunFlag {
				if rec, _, err = openRecorder(cfg, sc); err != nil {
					return err
				}
			}
			defer closeRecorder(rec)

			pacer := scheduler.NewStepPacer()
			ctrl, err := session.NewController(sc, rec, session.WithPacer(pacer))
			if err != nil {
				return fmt.Errorf("start session: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			player := &agent.Player{Policy: policy, Pacer: pacer}
			summary, err := player.Play(ctx, ctrl)
			if err != nil {
				return err
			}
			fmt.Print(report.FormatSummary(summary))
			log.Printf("[INFO] simulation done: seed=%d target=%s", sc.Seed, targetFlag)
			return nil
		},
	}

	verifyCmd = &cobra.Command{
		Use:   "verify FILE...",
		Short: "Check recorded session files for consistency",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bad := 0
			for _, path := range args {
				records, err := recorder.ReadFile(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				vs := recorder.Verify(records)
				fmt.Print(report.FormatViolations(path, len(records), vs))
				if len(vs) > 0 {
					bad++
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d of %d files failed verification", bad, len(args))
			}
			return nil
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists", configPath)
			}
			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", configPath)
			return nil
		},
	}
)

func init() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "path to the YAML configuration")

	for _, cmd := range []*cobra.Command{runCmd, simulateCmd} {
		cmd.Flags().StringVarP(&variantFlag, "variant", "v", "manual", "manual, preset, auto or points")
		cmd.Flags().StringVarP(&subjectFlag, "subject", "s", "", "subject id (overrides config)")
	}
	simulateCmd.Flags().StringVarP(&targetFlag, "target", "t", "16", "pumps per balloon: N or MIN-MAX")
	simulateCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "do not write session files")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(runCmd, simulateCmd, verifyCmd, configCmd)
}

func loadSession() (*config.Config, model.Variant, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}
	if subjectFlag != "" {
		cfg.Subject.ID = subjectFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("config validation: %w", err)
	}
	variant, err := model.ParseVariant(variantFlag)
	if err != nil {
		return nil, "", err
	}
	return cfg, variant, nil
}

func openRecorder(cfg *config.Config, sc model.SessionConfig) (recorder.Recorder, model.SessionMeta, error) {
	meta := model.NewSessionMeta(sc.Variant, sc.Subject)
	rec, err := recorder.Open(recorder.Options{
		OutputDir:  cfg.OutputDir(),
		SQLitePath: cfg.SQLitePath(),
	}, meta)
	if err != nil {
		return nil, meta, fmt.Errorf("open recorder: %w", err)
	}
	log.Printf("[INFO] recording to %s", filepath.Join(cfg.OutputDir(), recorder.FileName(meta)))
	return rec, meta, nil
}

func closeRecorder(rec recorder.Recorder) {
	if err := rec.Close(); err != nil {
		log.Printf("[ERROR] close recorder: %v", err)
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}
