// internal/service/delivery_worker.go
package service

import (
	"context"
	"fmt"
	"log"

	"github.com/dineshachuthan/storyteller-backend/internal/provider/notify"
	"github.com/dineshachuthan/storyteller-backend/internal/repository"
)

// DeliveryWorker drains the deliveries queue: one job is the ID of a pending
// delivery row, which it hands to the sender for that row's channel.
type DeliveryWorker struct {
	DeliveryRepo repository.DeliveryRepositoryInterface
	Senders      map[string]notify.Sender
}

func NewDeliveryWorker(repo repository.DeliveryRepositoryInterface, senders ...notify.Sender) *DeliveryWorker {
	byChannel := make(map[string]notify.Sender, len(senders))
	for _, s := range senders {
		byChannel[s.Channel()] = s
	}
	return &DeliveryWorker{DeliveryRepo: repo, Senders: byChannel}
}

// ProcessDelivery sends one delivery by ID. A returned error requeues the
// job, so the row is only marked failed once retries are exhausted upstream.
func (w *DeliveryWorker) ProcessDelivery(ctx context.Context, deliveryID int) error {
	delivery, err := w.DeliveryRepo.GetByID(deliveryID)
	if err != nil {
		return err
	}

	if delivery.Status != "pending" && delivery.Status != "failed" {
		log.Printf("⚠️ delivery %d already %s, skipping", delivery.ID, delivery.Status)
		return nil
	}

	sender, ok := w.Senders[delivery.Channel]
	if !ok {
		err := fmt.Errorf("no sender configured for channel %q", delivery.Channel)
		if updErr := w.DeliveryRepo.UpdateStatus(delivery.ID, "failed", err.Error()); updErr != nil {
			return updErr
		}
		return err
	}

	if err := sender.Send(ctx, delivery.Address, delivery.RenderedSubject, delivery.RenderedBody); err != nil {
		if updErr := w.DeliveryRepo.UpdateStatus(delivery.ID, "failed", err.Error()); updErr != nil {
			return updErr
		}
		return err
	}

	if err := w.DeliveryRepo.UpdateStatus(delivery.ID, "sent", ""); err != nil {
		return err
	}
	log.Printf("📩 delivery %d sent via %s to %s", delivery.ID, delivery.Channel, delivery.Address)
	return nil
}
