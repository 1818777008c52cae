package worker

// note_worker.go
// Processes goods-received-note jobs from QueueReceivedNotes: renders the
// PDF note for a committed allocation and mails it to the purchasing
// mailbox. Everything here is after-the-fact bookkeeping — a failure never
// affects the allocation itself.

import (
	"context"
	"encoding/json"
	"fmt"

	"stockroom/internal/infra"
	"stockroom/internal/repository"

	"github.com/rs/zerolog/log"
)

// ReceivedNoteWorker renders and distributes goods-received notes.
type ReceivedNoteWorker struct {
	allocationRepo repository.AllocationRepository
	mailer         *infra.Mailer
	smtpCB         *infra.CircuitBreaker
	storagePath    string
	notifyEmail    string
}

func NewReceivedNoteWorker(
	allocationRepo repository.AllocationRepository,
	mailer *infra.Mailer,
	smtpCB *infra.CircuitBreaker,
	storagePath string,
	notifyEmail string,
) *ReceivedNoteWorker {
	return &ReceivedNoteWorker{
		allocationRepo: allocationRepo,
		mailer:         mailer,
		smtpCB:         smtpCB,
		storagePath:    storagePath,
		notifyEmail:    notifyEmail,
	}
}

// Process renders the PDF and, when a notify address is configured, sends it
// through the SMTP circuit breaker.
func (w *ReceivedNoteWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceivedNotePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("note_worker: invalid payload")
		return
	}

	allocation, err := w.allocationRepo.FindByIDFull(ctx, payload.AllocationID)
	if err != nil {
		log.Error().Err(err).Int64("allocation_id", payload.AllocationID).
			Msg("note_worker: allocation not found")
		return
	}

	pdfPath, err := infra.GenerateReceivedNotePDF(allocation, w.storagePath)
	if err != nil {
		log.Error().Err(err).Int64("allocation_id", allocation.ID).
			Msg("note_worker: failed to render PDF")
		return
	}

	if w.notifyEmail == "" {
		log.Info().Int64("allocation_id", allocation.ID).Str("pdf", pdfPath).
			Msg("note_worker: note rendered (mail disabled)")
		return
	}

	subject := fmt.Sprintf("Goods received note #%d", allocation.ID)
	body := fmt.Sprintf("Allocation %d: order %d fulfilled, total $%s.",
		allocation.ID, allocation.OrderID, allocation.Total.StringFixed(2))

	err = w.smtpCB.Execute(func() error {
		return w.mailer.SendNote(w.notifyEmail, subject, body, pdfPath)
	})
	if err != nil {
		log.Error().Err(err).Int64("allocation_id", allocation.ID).
			Msg("note_worker: failed to send note")
		return
	}
	log.Info().Int64("allocation_id", allocation.ID).Str("to", w.notifyEmail).
		Msg("note_worker: note sent")
}
