package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/application"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/consts"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/errs"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/events"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db"
	dbs "github.com/Builder-Lawyers/hosting-backend/pkg/db"
	"github.com/Builder-Lawyers/hosting-backend/pkg/env"
	"github.com/Builder-Lawyers/hosting-backend/pkg/interfaces"
	"github.com/jackc/pgx/v5"
)

type OutboxPoller struct {
	processors *application.Processors
	uowFactory *dbs.UOWFactory
	cfg        *OutboxConfig
	stop       chan struct{}
	done       chan struct{}
}

type OutboxConfig struct {
	Limit    int
	Interval time.Duration
	// MaxAttempts caps how often a retryable event is handled before it is left in error.
	MaxAttempts int
}

func NewOutboxConfig() *OutboxConfig {
	limit := env.GetEnvInt("SCHEDULER_LIMIT", 5)
	if limit <= 0 {
		limit = 5
	}
	maxAttempts := env.GetEnvInt("SCHEDULER_MAX_ATTEMPTS", 10)
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &OutboxConfig{
		Limit:       limit,
		Interval:    time.Duration(env.GetEnvInt("SCHEDULER_INTERVAL", 5)) * time.Second,
		MaxAttempts: maxAttempts,
	}
}

func NewOutboxPoller(processors *application.Processors, uowFactory *dbs.UOWFactory, cfg *OutboxConfig) *OutboxPoller {
	return &OutboxPoller{
		processors: processors,
		uowFactory: uowFactory,
		cfg:        cfg,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start polls until Stop is called. A poll in flight is cancelled on stop.
func (o *OutboxPoller) Start() {
	slog.Info("Starting outbox poller...")
	defer close(o.done)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t := time.NewTimer(o.cfg.Interval)
	defer t.Stop()
	polled := make(chan struct{}, 1)
	for {
		select {
		case <-t.C:
			go func() {
				o.PollOnce(ctx)
				polled <- struct{}{}
			}()
		case <-polled:
			// wait after poll finishes
			t.Reset(o.cfg.Interval)
		case <-o.stop:
			slog.Info("Cancelling current execution")
			return
		}
	}
}

// PollOnce claims a batch of pending events and dispatches them concurrently.
func (o *OutboxPoller) PollOnce(ctx context.Context) {
	batch, err := o.claimBatch(ctx)
	if err != nil {
		slog.Error("error in poller", "err", err)
		return
	}
	if len(batch) == 0 {
		slog.Debug("no events to process")
		return
	}

	var wg sync.WaitGroup
	for _, event := range batch {
		wg.Add(1)
		go func(ev db.Outbox) {
			defer wg.Done()
			if err := o.handleEvent(ctx, ev); err != nil {
				slog.Error("handler error", "event", ev.ID, "err", err)
			}
		}(event)
	}

	wg.Wait()
	slog.Debug("Finished poller thread processing")
}

func (o *OutboxPoller) claimBatch(ctx context.Context) (batch []db.Outbox, err error) {
	uow := o.uowFactory.GetUoW()
	tx, err := uow.Begin()
	if err != nil {
		return nil, err
	}
	defer uow.Finalize(&err)

	query := "SELECT id, event, status, payload, attempts, created_at FROM hosting.outbox WHERE status = $1 ORDER BY created_at LIMIT $2 FOR NO KEY UPDATE SKIP LOCKED"
	rows, err := tx.Query(ctx, query, consts.NotProcessed, o.cfg.Limit)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var event db.Outbox
		if err = rows.Scan(&event.ID, &event.Event, &event.Status, &event.Payload, &event.Attempts, &event.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, int64(event.ID))
		batch = append(batch, event)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = tx.Exec(ctx, "UPDATE hosting.outbox SET status = $1 WHERE id = ANY($2)", consts.Processing, ids)
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (o *OutboxPoller) handleEvent(ctx context.Context, outbox db.Outbox) error {
	var (
		uow interfaces.UoW
		tx  pgx.Tx
		err error
	)

	slog.Info("Handling event", "event", outbox.Event, "id", outbox.ID)

	switch outbox.Event {
	case events.SiteDeployed{}.GetType():
		uow, err = o.processors.MirrorSite.Handle(ctx, db.MapOutboxModelToSiteDeployed(outbox))
	case events.SiteUndeployed{}.GetType():
		uow, err = o.processors.UnmirrorSite.Handle(ctx, db.MapOutboxModelToSiteUndeployed(outbox))
	default:
		err = errors.New("unknown event type")
	}
	attempts := outbox.Attempts + 1
	status := statusFor(err, attempts, o.cfg.MaxAttempts)

	if err != nil {
		slog.Error("error in handler", "event", outbox.Event, "id", outbox.ID, "err", err)
	}

	if uow == nil {
		var errTx error
		// open new transaction if there was none in event handler
		uow = o.uowFactory.GetUoW()
		tx, errTx = uow.Begin()
		if errTx != nil {
			return errors.Join(err, errTx)
		}
	} else {
		tx = uow.GetTx()
	}

	_, err = tx.Exec(context.WithoutCancel(ctx), "UPDATE hosting.outbox SET status = $1, attempts = $3 WHERE id = $2",
		status, outbox.ID, attempts)
	if err != nil {
		errRollback := uow.Rollback()
		slog.Error("error in poller", "err", err)
		return errors.Join(err, errRollback)
	}

	if err = uow.Commit(); err != nil {
		slog.Error("error in poller", "err", err)
		return err
	}

	slog.Info("processed event", "id", outbox.ID, "status", status, "attempts", attempts)
	return nil
}

// statusFor maps a handler result to the next outbox status. Retryable failures go back to the queue
// until the event has been handled maxAttempts times.
func statusFor(err error, attempts, maxAttempts int) consts.OutboxStatus {
	if err == nil {
		return consts.Processed
	}
	var r errs.RetryableError
	if errors.As(err, &r) && attempts < maxAttempts {
		return consts.NotProcessed
	}
	return consts.InError
}

// Stop ends the poll loop and waits for Start to return.
func (o *OutboxPoller) Stop() {
	slog.Info("Stopping poller")
	close(o.stop)
	<-o.done
}
