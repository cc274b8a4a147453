package controllers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/notarius-app/notarius/app/repository"
	"github.com/notarius-app/notarius/internal/pkg/payments"
	"github.com/notarius-app/notarius/internal/pkg/reconcile"
)

func newReconcileEngine() *reconcile.Engine {
	repos := repository.GetGlobalRepositories()
	return reconcile.NewEngine(providerFeed, repos.Reconciliation, repos.Payment)
}

// HandleReconciliationRun triggers a manual reconciliation pass for one
// provider, optionally from a supplied cursor, and returns the run summary.
func HandleReconciliationRun(c *fiber.Ctx) error {
	providerName := c.Params("provider")
	if _, ok := payments.GetProvider(providerName); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown provider"})
	}
	cursor := c.Query("cursor")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	run, err := newReconcileEngine().Run(ctx, providerName, cursor)
	if run == nil && err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	resp := fiber.Map{
		"run_id":           run.RunID,
		"provider":         run.Provider,
		"status":           run.Status,
		"pages_scanned":    run.PagesScanned,
		"entries_checked":  run.EntriesChecked,
		"mismatches_found": run.MismatchesFound,
		"end_cursor":       run.EndCursor,
	}
	if err != nil {
		resp["error"] = run.ErrorMessage
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandleListReconciliationRuns lists past runs, newest first.
func HandleListReconciliationRuns(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit > 200 {
		limit = 200
	}

	runs, err := repository.GetGlobalRepositories().Reconciliation.ListRuns(offset, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list runs"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"runs": runs})
}

// HandleListReconciliationItems lists the mismatches of one run.
func HandleListReconciliationItems(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid run id"})
	}

	repos := repository.GetGlobalRepositories()
	run, err := repos.Reconciliation.GetRunByID(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "run not found"})
	}
	items, err := repos.Reconciliation.ListItems(run.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list items"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"run": run, "items": items})
}
