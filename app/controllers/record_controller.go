package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/notarius-app/notarius/app/repository"
	"github.com/notarius-app/notarius/internal/pkg/outbox"
)

// HandleAnchorRecord enqueues the ledger anchoring of a record. The enqueue
// is idempotent per record id, so operators can safely requeue.
func HandleAnchorRecord(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid record id"})
	}

	repos := repository.GetGlobalRepositories()
	if _, err := repos.Record.GetByID(uint(id)); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "record not found"})
	}

	job, err := outbox.EnqueueLedgerAnchor(repos.Job, uint(id))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to enqueue anchor job"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"ok":     true,
		"job_id": job.ID,
		"status": job.Status,
	})
}
