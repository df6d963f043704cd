package main

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"jobpilot/internal/domain/fiber/handler"
	"jobpilot/internal/model"
	"jobpilot/internal/util"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the store read-only over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		util.SetProduction(a.cfg.App.Env == "production")

		fapp := fiber.New(fiber.Config{
			AppName: "jobpilot",
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				code := fiber.StatusInternalServerError
				var e *fiber.Error
				if errors.As(err, &e) {
					code = e.Code
				}
				message := err.Error()
				if message == "" {
					message = "Internal Server Error"
				}
				return c.Status(code).JSON(fiber.Map{"error": message})
			},
		})
		fapp.Use(fiberlogger.New())
		fapp.Use(cors.New(cors.Config{AllowOrigins: "*"}))
		fapp.Use(recover.New(recover.Config{
			EnableStackTrace: a.cfg.App.Env != "production",
		}))
		fapp.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

		handler.NewStatusHandler(a.jobs, a.runs).RegisterRoutes(fapp, a.cfg.Server)

		go func() {
			<-ctx.Done()
			if err := fapp.Shutdown(); err != nil {
				a.log.Errorw("shutdown", "error", err)
			}
		}()

		a.log.Infow("status server listening", "port", a.cfg.Server.Port)
		if err := fapp.Listen(a.cfg.Server.Port); err != nil {
			a.log.Errorw("serve", "error", err)
			return err
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print store counters and recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}

		counts, err := a.jobs.CountByStatus()
		if err != nil {
			a.log.Errorw("stats", "error", err)
			return err
		}
		order := []model.Status{
			model.StatusNew, model.StatusScored, model.StatusEligible,
			model.StatusApplied, model.StatusSkipped, model.StatusFailed,
		}
		for _, s := range order {
			cmd.Printf("%-10s %d\n", s, counts[s])
		}

		runs, err := a.runs.Recent(10)
		if err != nil {
			a.log.Errorw("stats", "error", err)
			return err
		}
		for _, run := range runs {
			cmd.Printf("run %d [%s] %s  new=%d scored=%d applied=%d skipped=%d failed=%d blocked=%d\n",
				run.ID, run.Kind, run.StartedAt.Format("2006-01-02 15:04"),
				run.New, run.Scored, run.Applied, run.Skipped, run.Failed, run.Blocked)
		}
		return nil
	},
}
