package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fairbot/internal/logger"
	"fairbot/internal/scheduler"
	"fairbot/internal/server"
	"fairbot/internal/telegram"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the daily report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			log := logger.Get(ctx)

			a, err := openApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			deps := server.Deps{
				Corrections: a.store,
				History:     a.history,
				Matcher:     a.matcher,
			}
			svc, err := a.assistant(ctx)
			if err != nil {
				// Admin endpoints stay up without an LLM.
				log.Errorw("assistant unavailable, /chat disabled", "error", err)
			} else {
				deps.Chat = svc
			}

			var notify func(string) error
			if cfg.TelegramBotToken != "" && svc != nil {
				bot, err := telegram.New(cfg.TelegramBotToken, svc, log.Named("telegram"))
				if err != nil {
					return fmt.Errorf("start telegram bot: %w", err)
				}
				go bot.Start(ctx)
				if cfg.TelegramReportChatID != 0 {
					notify = func(text string) error { return bot.SendReport(cfg.TelegramReportChatID, text) }
				}
			}

			sched := scheduler.New(cfg.ReportCron, log.Named("scheduler"))
			sched.SetReportFunction(reportJob(a.store, notify))
			if err := sched.Start(); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			defer sched.Stop()

			srv := server.New(deps, cfg.HTTPAddr, log.Named("http"))
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case <-ctx.Done():
				log.Info("shutting down")
				return srv.Stop()
			case err := <-errCh:
				return err
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: HTTP_ADDR)")
	return cmd
}
